package ucsm

import (
	"context"
	"time"
)

// refresher renews the cookie of a session at half of the refresh period.  It
// is owned by the session and lives from Login until Logout (or the next
// Login).
type refresher struct {
	s      *Session
	period time.Duration

	resetCh chan time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func newRefresher(s *Session, period time.Duration) *refresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &refresher{
		s:       s,
		period:  period,
		resetCh: make(chan time.Duration, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (r *refresher) start() {
	go r.run()
}

func (r *refresher) run() {
	defer close(r.done)

	timer := time.NewTimer(r.period / 2)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case period := <-r.resetCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(period / 2)

		case <-timer.C:
			if err := r.s.refresh(r.ctx, r); err != nil {
				if r.ctx.Err() != nil {
					return
				}
				// the timer is not re-armed; a successful manual Refresh
				// resets it.
				r.s.refreshFailed(r, err)
			}
		}
	}
}

// reset reschedules the next renewal at half of period from now.
func (r *refresher) reset(period time.Duration) {
	select {
	case <-r.resetCh:
	default:
	}
	select {
	case r.resetCh <- period:
	default:
	}
}

// stop cancels the renewal, including a refresh in flight, and waits for the
// renewal goroutine to exit.  It must not be called from that goroutine.
func (r *refresher) stop() {
	r.cancel()
	<-r.done
}
