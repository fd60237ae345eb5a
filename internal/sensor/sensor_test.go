package sensor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeDriver struct {
	temps  []float32
	errs   []error
	calls  int
	halted bool
}

func (d *fakeDriver) Temperature() (float32, error) {
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return 0, d.errs[i]
	}
	if i >= len(d.temps) {
		i = len(d.temps) - 1
	}
	return d.temps[i], nil
}

func (d *fakeDriver) Halt() error {
	d.halted = true
	return nil
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{19.456, 19.46},
		{19.454, 19.45},
		{-3.006, -3.01},
		{20, 20},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Round2(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBME280Read(t *testing.T) {
	d := &fakeDriver{temps: []float32{18.237}}
	b := &BME280{driver: d}

	got, err := b.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-18.24) > 1e-9 {
		t.Errorf("got %v, want 18.24", got)
	}
}

func TestBME280ReadError(t *testing.T) {
	d := &fakeDriver{temps: []float32{0}, errs: []error{errors.New("i2c nack")}}
	b := &BME280{driver: d}

	if _, err := b.Read(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestBME280ReadNaN(t *testing.T) {
	d := &fakeDriver{temps: []float32{float32(math.NaN())}}
	b := &BME280{driver: d}

	_, err := b.Read(context.Background())
	if !errors.Is(err, ErrNoReading) {
		t.Errorf("expected ErrNoReading, got %v", err)
	}
}

func TestBME280ReadCancelled(t *testing.T) {
	d := &fakeDriver{temps: []float32{20}}
	b := &BME280{driver: d}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if d.calls != 0 {
		t.Errorf("driver should not be read after cancel, got %d calls", d.calls)
	}
}

func TestBME280Close(t *testing.T) {
	d := &fakeDriver{temps: []float32{20}}
	finalized := false
	b := &BME280{driver: d, finalize: func() error { finalized = true; return nil }}

	if err := b.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.halted {
		t.Error("driver should be halted")
	}
	if !finalized {
		t.Error("adaptor should be finalized")
	}
}

func TestFakeReaderSequence(t *testing.T) {
	f := NewFakeReader(21, 19)
	ctx := context.Background()

	for i, want := range []float64{21, 19, 19} {
		got, err := f.Read(ctx)
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("read %d: got %v, want %v", i, got, want)
		}
	}
	if f.Calls != 3 {
		t.Errorf("Calls: got %d, want 3", f.Calls)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader()
	if _, err := f.Read(context.Background()); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestRetryReaderRecovers(t *testing.T) {
	f := &FakeReader{Samples: []Sample{
		{Err: errors.New("bus busy")},
		{Err: errors.New("bus busy")},
		{Temperature: 18.5},
	}}
	r := WithRetry(f, 2, time.Millisecond, zap.NewNop().Sugar())

	got, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 18.5 {
		t.Errorf("got %v, want 18.5", got)
	}
	if f.Calls != 3 {
		t.Errorf("Calls: got %d, want 3", f.Calls)
	}
}

func TestRetryReaderGivesUp(t *testing.T) {
	f := NewFakeReader(20)
	f.ReadError = errors.New("no device")
	r := WithRetry(f, 2, time.Millisecond, zap.NewNop().Sugar())

	_, err := r.Read(context.Background())
	if err == nil || err.Error() != "no device" {
		t.Errorf("expected last error, got %v", err)
	}
	if f.Calls != 3 {
		t.Errorf("Calls: got %d, want 3", f.Calls)
	}
}

func TestRetryReaderZeroRetries(t *testing.T) {
	f := NewFakeReader(20)
	f.ReadError = errors.New("no device")
	r := WithRetry(f, 0, time.Millisecond, zap.NewNop().Sugar())

	if _, err := r.Read(context.Background()); err == nil {
		t.Error("expected error")
	}
	if f.Calls != 1 {
		t.Errorf("Calls: got %d, want 1", f.Calls)
	}
}

func TestRetryReaderClosesInner(t *testing.T) {
	f := NewFakeReader(20)
	r := WithRetry(f, 1, time.Millisecond, zap.NewNop().Sugar())
	if err := r.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("inner reader should be closed")
	}
}

func TestRetryReaderDeadlineKeepsLastError(t *testing.T) {
	busErr := errors.New("i2c: remote I/O error")
	f := NewFakeReader(20)
	f.ReadError = busErr
	r := WithRetry(f, 5, 200*time.Millisecond, zap.NewNop().Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if !errors.Is(err, busErr) {
		t.Errorf("expected the read error to be kept, got %v", err)
	}
	if f.Calls != 1 {
		t.Errorf("Calls: got %d, want 1", f.Calls)
	}
}
