package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed attempts per key within a sliding lockout
// window.
type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type attemptInfo struct {
	count       int
	lastAttempt time.Time
}

// IPAttemptTracker is the in-process limiter used when redis is not
// configured.
type IPAttemptTracker struct {
	attempts     map[string]*attemptInfo
	mu           sync.RWMutex
	maxAttempts  int
	window       time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
	done         chan struct{}
	closeOnce    sync.Once
}

func NewIPAttemptTracker(maxAttempts int, window time.Duration) *IPAttemptTracker {
	tracker := &IPAttemptTracker{
		attempts:     make(map[string]*attemptInfo),
		maxAttempts:  maxAttempts,
		window:       window,
		cleanupEvery: 5 * time.Minute,
		now:          time.Now,
		done:         make(chan struct{}),
	}

	go tracker.startCleanup()

	return tracker
}

func (t *IPAttemptTracker) startCleanup() {
	ticker := time.NewTicker(t.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanOldEntries()
		case <-t.done:
			return
		}
	}
}

func (t *IPAttemptTracker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *IPAttemptTracker) cleanOldEntries() {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry := t.now().Add(-t.window)
	for ip, info := range t.attempts {
		if info.lastAttempt.Before(expiry) {
			delete(t.attempts, ip)
		}
	}
}

func (t *IPAttemptTracker) Blocked(_ context.Context, ip string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.attempts[ip]
	if !exists || info.lastAttempt.Before(t.now().Add(-t.window)) {
		return false, nil
	}
	return info.count >= t.maxAttempts, nil
}

func (t *IPAttemptTracker) Fail(_ context.Context, ip string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	info, exists := t.attempts[ip]
	if !exists || info.lastAttempt.Before(now.Add(-t.window)) {
		info = &attemptInfo{}
		t.attempts[ip] = info
	}
	info.count++
	info.lastAttempt = now
	return nil
}

func (t *IPAttemptTracker) Reset(_ context.Context, ip string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, ip)
	return nil
}

// RedisAttemptTracker shares attempt counts between server instances.
type RedisAttemptTracker struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
	prefix      string
}

func NewRedisAttemptTracker(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisAttemptTracker {
	return &RedisAttemptTracker{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      "login:attempts:",
	}
}

func (t *RedisAttemptTracker) Blocked(ctx context.Context, ip string) (bool, error) {
	n, err := t.client.Get(ctx, t.prefix+ip).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= t.maxAttempts, nil
}

func (t *RedisAttemptTracker) Fail(ctx context.Context, ip string) error {
	key := t.prefix + ip
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	_, err := pipe.Exec(ctx)
	return err
}

func (t *RedisAttemptTracker) Reset(ctx context.Context, ip string) error {
	return t.client.Del(ctx, t.prefix+ip).Err()
}
