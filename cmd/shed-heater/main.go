// Command shed-heater keeps a shed warm by switching a heater relay from
// temperature readings and a weekly schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sweeney/shed-heater/internal/config"
	"github.com/sweeney/shed-heater/internal/logger"
	"github.com/sweeney/shed-heater/internal/logic"
	"github.com/sweeney/shed-heater/internal/mqtt"
	"github.com/sweeney/shed-heater/internal/relay"
	"github.com/sweeney/shed-heater/internal/sensor"
	"github.com/sweeney/shed-heater/internal/status"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "shed-heater: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shed-heater: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "err", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	// One broker connection serves both MQTT adapters.
	var client *mqtt.Client
	var mqttStatus mqtt.ConnectionStatus
	if cfg.UsesMQTT() {
		client, err = mqtt.Dial(cfg.Broker, cfg.ClientID, log.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer client.Close()
		mqttStatus = client
	}

	reader, err := newReader(cfg, client, log)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	controller := logic.NewController(cfg.Policy())

	if cfg.PrintState {
		return printState(os.Stdout, reader, controller, schedule, tracker, cfg.ReadTimeout, time.Now)
	}

	actuator, err := newActuator(cfg, client, log)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer actuator.Close()

	hb := status.StartHeartbeat(tracker, cfg.Heartbeat, log.Named("heartbeat"))
	defer hb.Stop()

	log.Infow("started",
		"target", cfg.TargetTemperature,
		"min", cfg.MinTemperature,
		"hours", fmt.Sprintf("%02d-%02d", cfg.StartHour, cfg.EndHour),
		"last_active_weekday", cfg.LastActiveWeekday,
		"time_zone", cfg.TimeZone,
		"min_off", cfg.Policy().MinOff,
		"poll", cfg.PollInterval(),
		"sensor", cfg.SensorSource,
		"relay", cfg.RelayDriver,
	)

	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, actuator, controller, schedule, tracker, mqttStatus, log, cfg.ReadTimeout, time.Now, ticker.C, sigCh)
}

// newReader builds the configured temperature source wrapped with retries.
// client is nil unless the configuration needs a broker.
func newReader(cfg *config.Config, client *mqtt.Client, log *zap.SugaredLogger) (sensor.Reader, error) {
	var r sensor.Reader
	switch cfg.SensorSource {
	case config.SensorMQTT:
		src, err := mqtt.NewTemperatureSource(client, cfg.SensorTopic, cfg.SensorField, cfg.SensorMaxAge, time.Now, log.Named("sensor"))
		if err != nil {
			return nil, err
		}
		r = src
	default:
		bme, err := sensor.NewBME280(cfg.I2CBus, cfg.I2CAddress)
		if err != nil {
			return nil, err
		}
		r = bme
	}
	return sensor.WithRetry(r, cfg.SensorRetries, cfg.RetryInterval, log.Named("sensor")), nil
}

// newActuator builds the configured relay driver wrapped with retries.
func newActuator(cfg *config.Config, client *mqtt.Client, log *zap.SugaredLogger) (relay.Actuator, error) {
	var a relay.Actuator
	switch cfg.RelayDriver {
	case config.RelayMQTT:
		a = mqtt.NewRelaySwitch(client, cfg.RelayTopic, cfg.RelayPayloadOn, cfg.RelayPayloadOff)
	default:
		g, err := relay.NewGPIORelay(cfg.GPIOChip, cfg.RelayPin, cfg.RelayActiveLow)
		if err != nil {
			return nil, err
		}
		a = g
	}
	return relay.WithRetry(a, cfg.RelayRetries, cfg.RetryInterval, log.Named("relay")), nil
}

func statusConfig(cfg *config.Config) status.Config {
	sc := status.Config{
		TargetTemperature: cfg.TargetTemperature,
		MinTemperature:    cfg.MinTemperature,
		StartHour:         cfg.StartHour,
		EndHour:           cfg.EndHour,
		LastActiveWeekday: cfg.LastActiveWeekday,
		TimeZone:          cfg.TimeZone,
		MinOffSeconds:     int64(cfg.MinOffSeconds),
		PollSeconds:       int64(cfg.PollIntervalSeconds),
		HeartbeatMs:       cfg.Heartbeat.Milliseconds(),
		Sensor:            cfg.SensorSource,
		Relay:             cfg.RelayDriver,
	}
	if cfg.UsesMQTT() {
		sc.Broker = cfg.Broker
	}
	return sc
}

// printState takes one reading and prints the status together with the
// command the controller would issue from a cold start. The relay is not touched.
func printState(w io.Writer, reader sensor.Reader, controller *logic.Controller, schedule logic.Schedule, tracker *status.Tracker, readTimeout time.Duration, now func() time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	temp, err := reader.Read(ctx)
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}

	t := now()
	d := controller.Tick(logic.Input{Temperature: temp, Active: schedule.IsActive(t), Time: t})
	// The physical relay is unknown here; report it as the daemon would
	// leave it at startup.
	tracker.Record(d, logic.State{}, logic.Counts{})

	fmt.Fprintf(w, "%s\nnext command: %s\n", status.FormatJSON(tracker.Snapshot()), d.Command)
	return nil
}

func runLoop(reader sensor.Reader, actuator relay.Actuator, controller *logic.Controller, schedule logic.Schedule, tracker *status.Tracker, mqttStatus mqtt.ConnectionStatus, log *zap.SugaredLogger, readTimeout time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	// Start from a known relay state. LastOffAt stays unset so the first
	// turn-on is never delayed.
	inSync := drive(actuator, false, tracker, log)

	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s.String())
			if err := actuator.Set(false); err != nil {
				log.Errorw("relay off on shutdown failed", "err", err)
				return fmt.Errorf("relay off on shutdown: %w", err)
			}
			log.Infow("relay off")
			return nil

		case <-tick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
			temp, err := reader.Read(ctx)
			cancel()
			if err != nil {
				// No fabricated reading; the relay keeps its state until the next tick.
				log.Warnw("sensor read failed, skipping tick", "err", err)
				tracker.SensorFailed()
				continue
			}

			t := now()
			active := schedule.IsActive(t)
			d := controller.Tick(logic.Input{Temperature: temp, Active: active, Time: t})
			tracker.Record(d, controller.State(), controller.CountsSnapshot())
			logDecision(log, d)

			switch {
			case d.Command != logic.CommandNoOp:
				inSync = drive(actuator, d.Relay == logic.RelayOn, tracker, log)
			case !inSync:
				log.Infow("re-sending relay state", "relay", d.Relay)
				inSync = drive(actuator, d.Relay == logic.RelayOn, tracker, log)
			}
		}
	}
}

// drive writes on to the relay and reports whether it succeeded.
// A failure is logged and left for the next tick to correct.
func drive(actuator relay.Actuator, on bool, tracker *status.Tracker, log *zap.SugaredLogger) bool {
	if err := actuator.Set(on); err != nil {
		log.Errorw("relay write failed", "on", on, "err", err)
		tracker.ActuatorFailed()
		return false
	}
	tracker.SetInSync(true)
	return true
}

func logDecision(log *zap.SugaredLogger, d logic.Decision) {
	fields := []interface{}{
		"temperature", d.Temperature,
		"threshold", d.Threshold,
		"active", d.Active,
		"relay", d.Relay,
	}
	switch {
	case d.Command != logic.CommandNoOp:
		log.Infow("relay "+commandVerb(d.Command), fields...)
	case d.Suppressed:
		log.Infow("turn on suppressed, min off period not elapsed", fields...)
	default:
		log.Debugw("no change", fields...)
	}
}

func commandVerb(c logic.Command) string {
	if c == logic.CommandTurnOn {
		return "on"
	}
	return "off"
}
