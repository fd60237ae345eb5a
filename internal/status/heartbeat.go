package status

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Heartbeat periodically logs a status summary.
type Heartbeat struct {
	cron    *cron.Cron
	tracker *Tracker
	log     *zap.SugaredLogger
}

// StartHeartbeat schedules a heartbeat log line every interval.
// It returns nil when interval <= 0 (disabled).
func StartHeartbeat(tracker *Tracker, interval time.Duration, log *zap.SugaredLogger) *Heartbeat {
	if interval <= 0 {
		return nil
	}

	cl := cronLogger{log}
	h := &Heartbeat{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		tracker: tracker,
		log:     log,
	}
	h.cron.Schedule(cron.Every(interval), cron.FuncJob(h.beat))
	h.cron.Start()
	return h
}

// Stop halts the schedule and waits for a running heartbeat to finish.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	<-h.cron.Stop().Done()
}

func (h *Heartbeat) beat() {
	snap := h.tracker.Snapshot()
	fields := []interface{}{
		"uptime", snap.Uptime().Truncate(time.Second),
		"relay", snap.Relay,
		"in_sync", snap.InSync,
		"active", snap.Active,
		"turn_on", snap.Counts.TurnOn,
		"turn_off", snap.Counts.TurnOff,
		"suppressed", snap.Counts.Suppressed,
		"sensor_failures", snap.Failures.Sensor,
		"actuator_failures", snap.Failures.Actuator,
	}
	if snap.HasReading {
		fields = append(fields, "temperature", snap.Temperature, "threshold", snap.Threshold)
	}
	if snap.Config.Broker != "" {
		fields = append(fields, "mqtt_connected", snap.MQTTConnected)
	}
	h.log.Infow("heartbeat", fields...)
	h.log.Debugw("heartbeat status", "json", string(FormatCompact(snap)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "err", err)...)
}
