package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	challengePrefix = "twofactor:challenge:"
	stepPrefix      = "twofactor:step:"
)

// The slot and its attempts counter share a hash tag so the script and the
// delete transaction stay on one cluster slot.
func challengeKey(tokenHash string) string {
	return challengePrefix + "{" + tokenHash + "}"
}

func attemptsKey(tokenHash string) string {
	return challengeKey(tokenHash) + ":attempts"
}

// incrAttemptsScript bumps the attempts counter of a live slot and gives it the
// slot's remaining lifetime. It returns -1 when the slot is gone.
var incrAttemptsScript = redis.NewScript(`
local ttl = redis.call("PTTL", KEYS[1])
if ttl == -2 then
	return -1
end
local n = redis.call("INCR", KEYS[2])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[2], ttl)
end
return n
`)

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("twofactor.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SaveChallenge stores a pending challenge under its token hash for ttl.
func (c *Cache) SaveChallenge(ctx context.Context, tokenHash string, ch entity.Challenge, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveChallenge")
	defer func() { c.endSpan(span, err) }()

	body, err := json.Marshal(ch)
	if err != nil {
		return err
	}

	err = c.client.Set(ctx, challengeKey(tokenHash), body, ttl).Err()
	return err
}

// GetChallenge returns goerror.ErrNotFound when the slot is missing or expired.
func (c *Cache) GetChallenge(ctx context.Context, tokenHash string) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "GetChallenge")
	defer func() { c.endSpan(span, err) }()

	body, err := c.client.Get(ctx, challengeKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	var ch entity.Challenge
	if err = json.Unmarshal(body, &ch); err != nil {
		return nil, err
	}

	return &ch, nil
}

// IncrAttempts records one more code attempt against the slot and returns the
// new count. Concurrent callers always see distinct counts. It reports
// goerror.ErrNotFound when the slot is missing or expired.
func (c *Cache) IncrAttempts(ctx context.Context, tokenHash string) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "IncrAttempts")
	defer func() { c.endSpan(span, err) }()

	keys := []string{challengeKey(tokenHash), attemptsKey(tokenHash)}
	n, err := incrAttemptsScript.Run(ctx, c.client, keys).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		err = goerror.ErrNotFound
		return 0, err
	}

	return n, nil
}

// DeleteChallenge removes the slot with its attempts counter and reports
// whether this call removed the slot.
func (c *Cache) DeleteChallenge(ctx context.Context, tokenHash string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "DeleteChallenge")
	defer func() { c.endSpan(span, err) }()

	var del *redis.IntCmd
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, challengeKey(tokenHash))
		pipe.Del(ctx, attemptsKey(tokenHash))
		return nil
	})
	if err != nil {
		return false, err
	}

	return del.Val() == 1, nil
}

// ClaimStep marks the time step counter as used for userID. It returns false
// when the step was already claimed within ttl.
func (c *Cache) ClaimStep(ctx context.Context, userID string, counter uint64, ttl time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ClaimStep")
	defer func() { c.endSpan(span, err) }()

	key := stepPrefix + userID + ":" + strconv.FormatUint(counter, 10)
	ok, err := c.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}
