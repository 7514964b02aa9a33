package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/redis"
)

var (
	ErrCompleted = errors.New("idempotency key already used by a completed request")
	ErrInFlight  = errors.New("idempotency key is held by a request in flight")
)

type Config struct {
	LockTTL time.Duration

	CompletedTTL time.Duration

	LockKeyPrefix string

	CompletedKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:            30 * time.Second,
		CompletedTTL:       24 * time.Hour,
		LockKeyPrefix:      "idem:lock:",
		CompletedKeyPrefix: "idem:done:",
	}
}

// Guard rejects a second submission carrying the same key. A Guard without a
// redis adapter lets everything through.
type Guard struct {
	redis  redis.RedisAdapter
	config Config
}

func NewGuard(redisAdapter redis.RedisAdapter, config Config) *Guard {
	return &Guard{
		redis:  redisAdapter,
		config: config,
	}
}

func (g *Guard) Enabled() bool {
	return g != nil && g.redis != nil
}

// Claim is held by the request that acquired a key.
type Claim struct {
	key   string
	token []byte
}

func (c *Claim) Key() string {
	if c == nil {
		return ""
	}
	return c.key
}

// Acquire claims scope/key for the caller. It returns a nil claim and no
// error when the guard is disabled or no key was sent.
func (g *Guard) Acquire(ctx context.Context, scope, key string) (*Claim, error) {
	if !g.Enabled() || key == "" {
		return nil, nil
	}
	id := scope + ":" + key

	// Step 1: a finished request with this key wins for CompletedTTL
	exists, err := g.redis.Exist(g.config.CompletedKeyPrefix + id)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		logger.Info("idempotency key already completed", "key", id)
		return nil, ErrCompleted
	}

	// Step 2: short lock against concurrent submissions
	token := []byte(uuid.NewString())
	acquired, err := g.redis.SetNX(g.config.LockKeyPrefix+id, token, g.config.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		logger.Info("idempotency key in flight", "key", id)
		return nil, ErrInFlight
	}

	return &Claim{key: id, token: token}, nil
}

// Complete marks the claim finished and stores result under it.
func (g *Guard) Complete(ctx context.Context, c *Claim, result []byte) error {
	if !g.Enabled() || c == nil {
		return nil
	}
	if err := g.redis.Set(g.config.CompletedKeyPrefix+c.key, result, g.config.CompletedTTL); err != nil {
		logger.Error("failed to mark idempotency key completed", "key", c.key, "error", err)
		return err
	}
	return g.Release(ctx, c)
}

// Release drops the lock so the key can be retried, unless the lock expired
// and was taken by someone else meanwhile.
func (g *Guard) Release(ctx context.Context, c *Claim) error {
	if !g.Enabled() || c == nil {
		return nil
	}
	lockKey := g.config.LockKeyPrefix + c.key
	current, err := g.redis.Get(lockKey)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return nil
		}
		return err
	}
	if string(current) != string(c.token) {
		logger.Warn("idempotency lock owned by another request", "key", c.key)
		return nil
	}
	if err := g.redis.Del(lockKey); err != nil {
		logger.Warn("failed to release idempotency lock", "key", c.key, "error", err)
		return err
	}
	return nil
}

// Result returns what Complete stored for scope/key.
func (g *Guard) Result(ctx context.Context, scope, key string) ([]byte, error) {
	if !g.Enabled() {
		return nil, nil
	}
	v, err := g.redis.Get(g.config.CompletedKeyPrefix + scope + ":" + key)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
