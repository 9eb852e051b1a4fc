// Package idempotency keeps per-key operation state in redis. A key is either
// free, held in progress by exactly one owner, or remembers how the last run
// ended.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is what Acquire found under a key.
type State string

const (
	StateNone       State = "none" // free, the caller now holds it
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) String() string {
	return string(s)
}

// Lease is the result of Acquire. Only an acquired lease can be released.
type Lease struct {
	Key   string
	State State
	owner string
}

// Acquired reports whether the caller holds the key.
func (l Lease) Acquired() bool {
	return l.State == StateNone
}

// Idempotency serializes operations per key.
type Idempotency interface {
	// Acquire marks key in progress for lockDuration when it is free.
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (Lease, error)
	// Release frees the key if lease still holds it.
	Release(ctx context.Context, lease Lease) error
	// Exec runs fn at most once per key and remembers the outcome.
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// releaseScript deletes the key only while it still carries the caller's owner
// token, so an expired lease cannot free somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// StateTracker implements Idempotency on redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker storing keys under "idempotency:".
func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Option tunes Exec.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long a crashed run keeps the key busy.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the outcome of a run is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func inProgress(owner string) string {
	return StateInProgress.String() + ":" + owner
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (Lease, error) {
	fk := s.prefix + key
	owner := uuid.NewString()

	// Two rounds cover a key that expires between SETNX and GET.
	for range 2 {
		ok, err := s.client.SetNX(ctx, fk, inProgress(owner), lockDuration).Result()
		if err != nil {
			return Lease{Key: key}, err
		}
		if ok {
			return Lease{Key: key, State: StateNone, owner: owner}, nil
		}

		val, err := s.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Lease{Key: key}, err
		}

		state, _, _ := strings.Cut(val, ":")
		switch State(state) {
		case StateInProgress, StateCompleted, StateFailed:
			return Lease{Key: key, State: State(state)}, nil
		default:
			return Lease{Key: key}, ErrInvalidState
		}
	}

	return Lease{Key: key, State: StateInProgress}, nil
}

func (s *StateTracker) Release(ctx context.Context, lease Lease) error {
	if !lease.Acquired() || lease.owner == "" {
		return nil
	}
	return releaseScript.Run(ctx, s.client, []string{s.prefix + lease.Key}, inProgress(lease.owner)).Err()
}

func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	o.lockDuration = max(o.lockDuration, time.Second)
	o.stateTTL = max(o.stateTTL, time.Second)

	lease, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch lease.State {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	outcome := StateCompleted
	runErr := fn(ctx)
	if runErr != nil {
		outcome = StateFailed
	}

	return errors.Join(runErr, s.client.Set(ctx, s.prefix+key, outcome.String(), o.stateTTL).Err())
}
