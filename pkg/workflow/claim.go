package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAlreadyClaimed is returned when another worker holds the claim for an
// execution.
var ErrAlreadyClaimed = errors.New("execution already claimed")

// ExecutionClaim fences concurrent workers: at most one worker at a time may
// process a given execution. The persistence-level status guard is the final
// arbiter; the claim just keeps redelivered jobs from racing each other.
type ExecutionClaim interface {
	// WithClaim runs f while holding the claim for executionID, releasing
	// it afterwards. Returns ErrAlreadyClaimed without running f when the
	// claim is held elsewhere.
	WithClaim(ctx context.Context, executionID string, ttl time.Duration, f func(context.Context) error) error
}

const claimKeyPrefix = "jurisnexo:execution-claim:"

// Compare-and-delete so an expired claim re-acquired by another worker is
// never released by the original holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`

// RedisExecutionClaim implements ExecutionClaim on redis SET NX with a TTL.
type RedisExecutionClaim struct {
	client redis.Cmdable
	logger *slog.Logger
}

func NewRedisExecutionClaim(client redis.Cmdable, logger *slog.Logger) *RedisExecutionClaim {
	return &RedisExecutionClaim{
		client: client,
		logger: logger.With("module", "execution_claim"),
	}
}

func (c *RedisExecutionClaim) WithClaim(ctx context.Context, executionID string, ttl time.Duration, f func(context.Context) error) error {
	key := claimKeyPrefix + executionID
	token := uuid.NewString()

	acquired, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire execution claim: %w", err)
	}

	if !acquired {
		return ErrAlreadyClaimed
	}

	defer c.release(key, token)

	return f(ctx)
}

func (c *RedisExecutionClaim) release(key, token string) {
	// The worker's context may already be cancelled; the release must
	// still go out.
	reply, err := c.client.Eval(context.Background(), releaseScript, []string{key}, token).Result()
	if err != nil {
		c.logger.Warn("Failed to release execution claim", "key", key, "error", err)

		return
	}

	if deleted, ok := reply.(int64); !ok || deleted != 1 {
		c.logger.Warn("Execution claim expired before release", "key", key)
	}
}

// NoopExecutionClaim is used with the in-memory channel, where a single
// process consumes the queue and no fencing is needed.
type NoopExecutionClaim struct{}

func (NoopExecutionClaim) WithClaim(ctx context.Context, _ string, _ time.Duration, f func(context.Context) error) error {
	return f(ctx)
}
