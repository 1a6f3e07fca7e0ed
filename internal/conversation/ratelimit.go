package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCooldown is the per-sender window during which repeat messages are
// dropped, blunting rapid duplicate deliveries and abuse.
const DefaultCooldown = 2 * time.Second

// Limiter decides whether a message from a sender is accepted. A denied
// message is dropped with no reply and does not extend the sender's window.
type Limiter interface {
	Allow(ctx context.Context, sender string) bool
}

// MemoryLimiter tracks the last accepted message instant per sender.
type MemoryLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewMemoryLimiter creates a limiter with the given cooldown window.
func NewMemoryLimiter(cooldown time.Duration) *MemoryLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	l := &MemoryLimiter{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
	go l.cleanup()
	return l
}

// Allow reports whether the sender is outside their cooldown window and, if
// so, records this message as the last accepted one.
func (l *MemoryLimiter) Allow(_ context.Context, sender string) bool {
	if sender == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[sender]; ok && now.Sub(last) < l.cooldown {
		return false
	}
	l.last[sender] = now
	return true
}

// cleanup evicts stale entries to prevent unbounded memory growth.
func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := l.now().Add(-10 * l.cooldown)
		for sender, last := range l.last {
			if last.Before(cutoff) {
				delete(l.last, sender)
			}
		}
		l.mu.Unlock()
	}
}

// RedisLimiter enforces the cooldown via SET NX with expiry, so multiple
// processes sharing one Redis agree on the window. Redis being unreachable
// fails open: rate limiting is best effort, conversations are not.
type RedisLimiter struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, cooldown time.Duration) *RedisLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RedisLimiter{client: client, cooldown: cooldown}
}

func (l *RedisLimiter) Allow(ctx context.Context, sender string) bool {
	if sender == "" {
		return false
	}
	ok, err := l.client.SetNX(ctx, "ratelimit:"+sender, 1, l.cooldown).Result()
	if err != nil {
		return true
	}
	return ok
}
