// Package ratelimit throttles API clients per route with token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds limiter settings.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	// IdleTimeout evicts buckets not used for this long. Zero disables eviction.
	IdleTimeout time.Duration
	Allow       map[string]bool
	Deny        map[string]bool
	Rules       []Rule
}

// DefaultConfig returns an enabled limiter with DefaultRules.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		IdleTimeout:   time.Hour,
		Allow:         map[string]bool{},
		Deny:          map[string]bool{},
		Rules:         DefaultRules(),
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type bucket struct {
	capacity float64
	rate     float64 // tokens per second
	tokens   float64
	last     time.Time
}

// take refills the bucket up to now and spends one token if available.
func (b *bucket) take(now time.Time) bool {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// until returns how long from now the bucket needs to hold n tokens.
func (b *bucket) until(n float64) time.Duration {
	if b.tokens >= n {
		return 0
	}
	return time.Duration((n - b.tokens) / b.rate * float64(time.Second))
}

// Limiter tracks one bucket per client and route.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. When IdleTimeout is set a background sweep
// runs until Stop is called.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.IdleTimeout > 0 {
		go l.sweepLoop(cfg.IdleTimeout)
	}
	return l
}

// Allow decides whether client may call method path now.
func (l *Limiter) Allow(client, method, path string) Decision {
	if !l.cfg.Enabled || l.cfg.Allow[client] {
		return Decision{Allowed: true}
	}
	if l.cfg.Deny[client] {
		return Decision{}
	}

	rule, ok := match(l.cfg.Rules, method, path)
	if !ok {
		// Unmatched routes share one default bucket per client.
		rule = Rule{Method: "*", Path: "*", Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}
	}

	now := l.now()
	key := client + "|" + rule.key()

	l.mu.Lock()
	b, exists := l.buckets[key]
	if !exists {
		c := float64(rule.capacity())
		b = &bucket{capacity: c, tokens: c, rate: float64(rule.Limit) / rule.Window.Seconds(), last: now}
		l.buckets[key] = b
	}
	allowed := b.take(now)
	d := Decision{Allowed: allowed, Limit: rule.Limit, Remaining: int(b.tokens)}
	d.ResetAt = now.Add(b.until(b.capacity))
	if !d.Allowed {
		d.RetryAfter = max(b.until(1), time.Second)
	}
	l.mu.Unlock()

	return d
}

// Sweep drops buckets idle for longer than idle and returns how many went.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweepLoop(idle time.Duration) {
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.Sweep(idle)
		case <-l.stop:
			return
		}
	}
}
