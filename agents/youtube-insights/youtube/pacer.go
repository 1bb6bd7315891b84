package youtube

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum gap between the end of one upstream call and the
// start of the next. Calls through the same Pacer never overlap.
type Pacer struct {
	mu      sync.Mutex
	delay   time.Duration
	lastEnd time.Time
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Do waits out the remaining gap, then runs fn.
func (p *Pacer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastEnd.IsZero() {
		if wait := p.delay - time.Since(p.lastEnd); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	err := fn(ctx)
	p.lastEnd = time.Now()
	return err
}

func (p *Pacer) Delay() time.Duration {
	return p.delay
}
