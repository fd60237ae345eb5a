package sensor

import (
	"context"
	"errors"
)

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Samples contains scripted readings. Each call to Read consumes the next.
	Samples []Sample

	index int

	// Calls counts Read invocations.
	Calls int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error
}

// Sample is a single scripted reading. A non-nil Err fails that read.
type Sample struct {
	Temperature float64
	Err         error
}

// NewFakeReader creates a FakeReader returning the given temperatures.
func NewFakeReader(temps ...float64) *FakeReader {
	samples := make([]Sample, len(temps))
	for i, t := range temps {
		samples[i] = Sample{Temperature: t}
	}
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read(ctx context.Context) (float64, error) {
	f.Calls++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Temperature, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
