package watchdog

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"
)

// Soft is a software watchdog for hosts without a hardware device.
// On expiry it calls OnExpire, which by default logs and exits non-zero so
// the service manager restarts the daemon.
type Soft struct {
	// OnExpire is called once from the watchdog goroutine on timeout.
	OnExpire func()

	mu   sync.Mutex
	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewSoft returns an unarmed software watchdog.
func NewSoft() *Soft {
	return &Soft{
		OnExpire: func() {
			log.Printf("watchdog: software timeout expired, restarting")
			os.Exit(2)
		},
	}
}

// Arm starts the countdown. A software watchdog has no reset cause to clear.
func (s *Soft) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return errors.New("watchdog: timeout must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kick != nil {
		return errors.New("watchdog: already armed")
	}
	s.kick = make(chan struct{}, 1)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(timeout, s.kick, s.stop, s.done)
	return nil
}

func (s *Soft) run(timeout time.Duration, kick, stop, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-kick:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
		case <-stop:
			return
		case <-timer.C:
			s.OnExpire()
			return
		}
	}
}

// Feed resets the countdown. It never blocks.
func (s *Soft) Feed() error {
	s.mu.Lock()
	kick := s.kick
	s.mu.Unlock()
	if kick == nil {
		return errors.New("watchdog: not armed")
	}
	select {
	case kick <- struct{}{}:
	default:
	}
	return nil
}

// BootStatus is always empty for the software watchdog.
func (s *Soft) BootStatus() BootStatus {
	return BootStatus{}
}

// Close stops the countdown and waits for the watchdog goroutine to exit.
func (s *Soft) Close() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.kick, s.stop, s.done = nil, nil, nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
