package mqtt

import "fmt"

// RelaySwitch commands a smart relay (Tasmota, Shelly, zigbee2mqtt) over MQTT.
type RelaySwitch struct {
	pub        Publisher
	topic      string
	payloadOn  string
	payloadOff string
}

// NewRelaySwitch creates a relay actuator publishing to the command topic.
func NewRelaySwitch(pub Publisher, topic, payloadOn, payloadOff string) *RelaySwitch {
	return &RelaySwitch{pub: pub, topic: topic, payloadOn: payloadOn, payloadOff: payloadOff}
}

// Set publishes the on or off payload. Commands are retained so a plug that
// reconnects picks up the last commanded state.
func (r *RelaySwitch) Set(on bool) error {
	payload := r.payloadOff
	if on {
		payload = r.payloadOn
	}
	if err := r.pub.Publish(r.topic, QoSRelay, true, []byte(payload)); err != nil {
		return fmt.Errorf("relay %s: %w", r.topic, err)
	}
	return nil
}

// Close is a no-op. The off command is sent by the polling loop on shutdown
// and the broker connection is owned by the caller.
func (r *RelaySwitch) Close() error {
	return nil
}
