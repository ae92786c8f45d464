package watchdog

import (
	"testing"
	"time"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestFakeArmClearsResetCause(t *testing.T) {
	clk := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := NewFake(clk.now)
	f.ResetCause = true

	if err := f.Arm(DefaultTimeout); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.BootStatus().WatchdogReset {
		t.Error("expected boot status to record watchdog reset")
	}
	if f.ResetCause {
		t.Error("expected reset cause to be cleared by Arm")
	}
}

func TestFakeFeedBeforeTimeout(t *testing.T) {
	clk := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := NewFake(clk.now)
	f.Arm(DefaultTimeout)

	for i := 0; i < 10; i++ {
		clk.advance(900 * time.Millisecond)
		if f.Check() {
			t.Fatalf("iteration %d: unexpected expiry", i)
		}
		if err := f.Feed(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if f.Feeds != 10 {
		t.Errorf("expected 10 feeds, got %d", f.Feeds)
	}
	if f.MaxGap != 900*time.Millisecond {
		t.Errorf("expected max gap 900ms, got %v", f.MaxGap)
	}
}

func TestFakeExpiresWithoutFeed(t *testing.T) {
	clk := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := NewFake(clk.now)
	f.Arm(DefaultTimeout)

	clk.advance(999 * time.Millisecond)
	if f.Check() {
		t.Fatal("should not expire before timeout")
	}
	clk.advance(time.Millisecond)
	if !f.Check() {
		t.Fatal("expected expiry at 1000ms without feed")
	}
	if f.Resets != 1 {
		t.Errorf("expected 1 reset, got %d", f.Resets)
	}
	if !f.ResetCause {
		t.Error("expiry should leave reset cause for next boot")
	}
	if f.Check() {
		t.Error("disarmed watchdog should not expire again")
	}
}

func TestFakeFeedUnarmed(t *testing.T) {
	f := NewFake(nil)
	if err := f.Feed(); err == nil {
		t.Error("expected error feeding unarmed watchdog")
	}
}

func TestSoftExpires(t *testing.T) {
	s := NewSoft()
	fired := make(chan struct{})
	s.OnExpire = func() { close(fired) }

	if err := s.Arm(20 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("soft watchdog did not expire")
	}
}

func TestSoftFeedPreventsExpiry(t *testing.T) {
	s := NewSoft()
	fired := make(chan struct{}, 1)
	s.OnExpire = func() { fired <- struct{}{} }

	if err := s.Arm(200 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := s.Feed(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("soft watchdog expired despite feeds")
	default:
	}
}

func TestSoftArmTwice(t *testing.T) {
	s := NewSoft()
	s.OnExpire = func() {}
	if err := s.Arm(time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()
	if err := s.Arm(time.Second); err == nil {
		t.Error("expected error arming twice")
	}
}

func TestSoftFeedUnarmed(t *testing.T) {
	s := NewSoft()
	if err := s.Feed(); err == nil {
		t.Error("expected error feeding unarmed watchdog")
	}
	if err := s.Close(); err != nil {
		t.Errorf("close unarmed: %v", err)
	}
}
