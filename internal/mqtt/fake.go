package mqtt

import (
	"errors"
	"sync"
)

// Message is a publish recorded by FakeBroker.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeBroker is an in-memory Subscriber/Publisher for tests.
type FakeBroker struct {
	mu sync.Mutex

	// Published contains every message passed to Publish.
	Published []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Connected controls the return value of IsConnected.
	Connected bool

	handlers map[string]func(payload []byte)
}

// NewFakeBroker creates a connected FakeBroker.
func NewFakeBroker() *FakeBroker {
	return &FakeBroker{Connected: true, handlers: make(map[string]func([]byte))}
}

// Subscribe records the handler for topic.
func (f *FakeBroker) Subscribe(topic string, qos byte, handler func(payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.handlers[topic] = handler
	return nil
}

// Unsubscribe drops the handler for topic.
func (f *FakeBroker) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handlers[topic]; !ok {
		return errors.New("not subscribed")
	}
	delete(f.handlers, topic)
	return nil
}

// Subscribed reports whether a handler is registered for topic.
func (f *FakeBroker) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

// Deliver hands payload to the topic's handler, as the broker would.
func (f *FakeBroker) Deliver(topic string, payload []byte) {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

// Publish records the message.
func (f *FakeBroker) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Published = append(f.Published, Message{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	return nil
}

// IsConnected reports whether the fake broker is "connected".
func (f *FakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}
