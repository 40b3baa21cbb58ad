package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	ratelimitstore "github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ---- MongoDB ----

// Mongo counts fixed windows in the rate_limits collection.
type Mongo struct {
	w   *ratelimitstore.Windows
	now func() time.Time
}

// NewMongo wraps a window store.
func NewMongo(w *ratelimitstore.Windows) *Mongo {
	return &Mongo{w: w, now: time.Now}
}

func (m *Mongo) Allow(ctx context.Context, scope, key string, rule Rule) (Decision, error) {
	count, end, err := m.w.Hit(ctx, scope, key, rule.Window)
	if err != nil {
		return Decision{}, err
	}
	return windowDecision(count, end, rule, m.now()), nil
}

// ---- Redis ----

// Redis counts fixed windows with INCR + EXPIRE.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis uses client with keys under "ratelimit:".
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "ratelimit:", now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, scope, key string, rule Rule) (Decision, error) {
	now := r.now()
	start := now.Truncate(rule.Window)
	end := start.Add(rule.Window)
	k := fmt.Sprintf("%s%s:%s:%d", r.prefix, scope, key, start.Unix())

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireAt(ctx, k, end)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}
	return windowDecision(int(incr.Val()), end, rule, now), nil
}

// ---- in-process ----

// Memory keeps a token bucket per scope/key. Buckets refill at
// Limit per Window with a burst of Limit.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	now     func() time.Time
	lastGC  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewMemory creates an empty in-process limiter.
func NewMemory() *Memory {
	return &Memory{buckets: map[string]*bucket{}, idleTTL: time.Hour, now: time.Now}
}

func (m *Memory) Allow(_ context.Context, scope, key string, rule Rule) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastGC) > m.idleTTL {
		for k, b := range m.buckets {
			if now.Sub(b.seen) > m.idleTTL {
				delete(m.buckets, k)
			}
		}
		m.lastGC = now
	}

	k := scope + "|" + key
	b, ok := m.buckets[k]
	if !ok {
		every := rate.Every(rule.Window / time.Duration(rule.Limit))
		b = &bucket{lim: rate.NewLimiter(every, rule.Limit)}
		m.buckets[k] = b
	}
	b.seen = now

	res := b.lim.ReserveN(now, 1)
	if !res.OK() {
		return Decision{Allowed: false, RetryAfter: rule.Window}, nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(b.lim.TokensAt(now))}, nil
}
