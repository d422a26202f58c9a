package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateSettings configures token-bucket style rate limiting per host.
type RateSettings struct {
	Requests int
	Window   time.Duration
}

// Pacer enforces per-host politeness combining a minimum delay between
// requests and an optional token bucket. All strategies funnel their network
// calls through one shared pacer.
type Pacer struct {
	delay       time.Duration
	rate        RateSettings
	rateEnabled bool

	mu       sync.Mutex
	last     map[string]time.Time
	limiters map[string]*rate.Limiter
}

// NewPacer creates a pacer with per-host delay and optional rate limiting.
func NewPacer(delay time.Duration, rateCfg RateSettings) *Pacer {
	pacer := &Pacer{delay: delay}
	if delay > 0 {
		pacer.last = make(map[string]time.Time)
	}
	if rateCfg.Requests > 0 && rateCfg.Window > 0 {
		pacer.rateEnabled = true
		pacer.rate = rateCfg
		pacer.limiters = make(map[string]*rate.Limiter)
		if pacer.last == nil {
			pacer.last = make(map[string]time.Time)
		}
	}
	return pacer
}

// Wait blocks until politeness constraints for the host are satisfied.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	if p == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	if p.delay <= 0 && !p.rateEnabled {
		return nil
	}

	var sleep time.Duration
	var limiter *rate.Limiter
	now := time.Now()

	p.mu.Lock()
	if p.delay > 0 {
		if last, ok := p.last[host]; ok {
			rest := last.Add(p.delay).Sub(now)
			if rest > 0 {
				sleep = rest
			}
		}
	}
	if p.rateEnabled {
		limiter = p.ensureLimiterLocked(host)
	}
	p.mu.Unlock()

	if sleep > 0 {
		if err := Sleep(ctx, sleep); err != nil {
			return err
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	p.mu.Lock()
	if p.last != nil {
		p.last[host] = time.Now()
	}
	p.mu.Unlock()
	return nil
}

func (p *Pacer) ensureLimiterLocked(host string) *rate.Limiter {
	limiter, ok := p.limiters[host]
	if ok {
		return limiter
	}
	interval := p.rate.Window / time.Duration(p.rate.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	burst := p.rate.Requests
	if burst <= 0 {
		burst = 1
	}
	limiter = rate.NewLimiter(rate.Every(interval), burst)
	p.limiters[host] = limiter
	return limiter
}

// Sleep waits for d or until the context is cancelled. Used for the fixed
// page and unit delays between requests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
