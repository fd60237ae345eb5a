package relay

import "errors"

// FakeRelay records relay writes for test assertions.
type FakeRelay struct {
	// Writes contains every value passed to Set, including failed ones.
	Writes []bool

	// On is the last successfully written value.
	On bool

	// SetErrors, if non-empty, are returned by successive Set calls.
	// A nil entry lets that call succeed.
	SetErrors []error

	// SetError, if set, is returned by every Set call once SetErrors is used up.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRelay creates a FakeRelay in the off state.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// Set records the write and applies it unless an error is scripted.
func (f *FakeRelay) Set(on bool) error {
	f.Writes = append(f.Writes, on)
	if len(f.SetErrors) > 0 {
		err := f.SetErrors[0]
		f.SetErrors = f.SetErrors[1:]
		if err != nil {
			return err
		}
	} else if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	return nil
}

// Close marks the relay as closed and switches it off.
func (f *FakeRelay) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	f.On = false
	return nil
}
