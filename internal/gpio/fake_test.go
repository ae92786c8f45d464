package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakePinsScript(t *testing.T) {
	f := NewFakePins()
	f.Script(17, true, false, true)

	want := []bool{true, false, true, true}
	for i, w := range want {
		got, err := f.Get(17)
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: expected %v, got %v", i, w, got)
		}
	}
	if f.Reads[17] != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads[17])
	}
}

func TestFakePinsUnscriptedReadsLow(t *testing.T) {
	f := NewFakePins()
	got, err := f.Get(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected unscripted pin to read low")
	}
}

func TestFakePinsRecordsWrites(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFakePins()
	f.Now = func() time.Time { return now }

	if err := f.Set(5, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(5, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(23, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(f.Writes))
	}
	if f.Level(5) {
		t.Error("pin 5 should be low")
	}
	if !f.Level(23) {
		t.Error("pin 23 should be high")
	}
	if got := f.WritesTo(5); len(got) != 2 {
		t.Errorf("expected 2 writes to pin 5, got %d", len(got))
	}
	if !f.Writes[0].Time.Equal(now) {
		t.Errorf("unexpected write time: %v", f.Writes[0].Time)
	}
}

func TestFakePinsErrors(t *testing.T) {
	f := NewFakePins()
	f.GetError = errors.New("simulated read error")
	f.SetError = errors.New("simulated write error")

	if _, err := f.Get(17); err == nil {
		t.Error("expected read error")
	}
	if err := f.Set(5, true); err == nil {
		t.Error("expected write error")
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed write should not be recorded, got %d", len(f.Writes))
	}
}

func TestFakePinsClose(t *testing.T) {
	f := NewFakePins()
	f.Set(5, true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.Level(5) {
		t.Error("outputs should be low after Close()")
	}
}
