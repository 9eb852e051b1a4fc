package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	identity "github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/idempotency"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/qrcode"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
	"github.com/stretchr/testify/require"
)

type memSecrets struct {
	mu      sync.Mutex
	rows    map[string]entity.Secret
	findErr error
}

func (m *memSecrets) UpsertSecret(_ context.Context, in entity.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[in.UserID] = in
	return nil
}

func (m *memSecrets) FindSecret(_ context.Context, userID string) (*entity.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	row, ok := m.rows[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &row, nil
}

type memChallenges struct {
	mu       sync.Mutex
	slots    map[string]entity.Challenge
	attempts map[string]int
	steps    map[string]struct{}
}

func (m *memChallenges) SaveChallenge(_ context.Context, tokenHash string, ch entity.Challenge, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[tokenHash] = ch
	return nil
}

func (m *memChallenges) GetChallenge(_ context.Context, tokenHash string) (*entity.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.slots[tokenHash]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (m *memChallenges) IncrAttempts(_ context.Context, tokenHash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[tokenHash]; !ok {
		return 0, goerror.ErrNotFound
	}
	m.attempts[tokenHash]++
	return m.attempts[tokenHash], nil
}

func (m *memChallenges) DeleteChallenge(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[tokenHash]
	delete(m.slots, tokenHash)
	delete(m.attempts, tokenHash)
	return ok, nil
}

func (m *memChallenges) ClaimStep(_ context.Context, userID string, counter uint64, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + ":" + strconv.FormatUint(counter, 10)
	if _, ok := m.steps[key]; ok {
		return false, nil
	}
	m.steps[key] = struct{}{}
	return true, nil
}

func (m *memChallenges) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = map[string]entity.Challenge{}
	m.attempts = map[string]int{}
}

func (m *memChallenges) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *memChallenges) attemptsOf(tokenHash string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[tokenHash]
}

// barrierChallenges holds every GetChallenge caller until n of them have read
// the slot, so all of them act on the same snapshot.
type barrierChallenges struct {
	*memChallenges
	reads sync.WaitGroup
}

func newBarrierChallenges(m *memChallenges, n int) *barrierChallenges {
	b := &barrierChallenges{memChallenges: m}
	b.reads.Add(n)
	return b
}

func (b *barrierChallenges) GetChallenge(ctx context.Context, tokenHash string) (*entity.Challenge, error) {
	ch, err := b.memChallenges.GetChallenge(ctx, tokenHash)
	b.reads.Done()
	b.reads.Wait()
	return ch, err
}

type memLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (m *memLocks) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return idempotency.Lease{Key: key, State: idempotency.StateInProgress}, nil
	}
	m.held[key] = true
	return idempotency.Lease{Key: key, State: idempotency.StateNone}, nil
}

func (m *memLocks) Release(_ context.Context, lease idempotency.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lease.State == idempotency.StateNone {
		delete(m.held, lease.Key)
	}
	return nil
}

type recordEvents struct {
	mu     sync.Mutex
	events map[string][]SecurityEvent
}

func (r *recordEvents) add(name string, msg SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[name] = append(r.events[name], msg)
	return nil
}

func (r *recordEvents) PublishEnrolled(_ context.Context, msg SecurityEvent) error {
	return r.add("enrolled", msg)
}

func (r *recordEvents) PublishChallengeSucceeded(_ context.Context, msg SecurityEvent) error {
	return r.add("succeeded", msg)
}

func (r *recordEvents) PublishChallengeFailed(_ context.Context, msg SecurityEvent) error {
	return r.add("failed", msg)
}

type memAccounts struct {
	mu        sync.Mutex
	users     map[string]identity.User
	signIns   []string
	methods   [][]string
	signInErr error
}

func (m *memAccounts) FindByID(_ context.Context, userID string) (*identity.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *memAccounts) SignIn(_ context.Context, user identity.User, methods ...string) (*identity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	m.signIns = append(m.signIns, user.ID)
	m.methods = append(m.methods, methods)
	return &identity.Session{AccessToken: "access-" + user.ID, TokenType: "Bearer"}, nil
}

type failingQR struct{}

func (failingQR) RenderDataURI(string) (string, error) {
	return "", errors.Join(qrcode.ErrRender, errors.New("content too long"))
}

type seqToken struct {
	mu sync.Mutex
	n  int
}

func (s *seqToken) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "token-" + strconv.Itoa(s.n)
}

type harness struct {
	uc       *Usecase
	secrets  *memSecrets
	cache    *memChallenges
	events   *recordEvents
	accounts *memAccounts
	locks    *memLocks
	totp     *otp.TOTP
	clock    *clock.Fixed
	gm       *goroutine.Manager
}

// flush waits for queued event publications; the harness cannot publish afterwards.
func (h *harness) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, h.gm.Wait())
}

func newHarness(t *testing.T, yaml string, qr qrRenderer) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	if qr == nil {
		qr = qrcode.New(qrcode.DefaultSize)
	}

	h := &harness{
		secrets: &memSecrets{rows: map[string]entity.Secret{}},
		cache:   &memChallenges{slots: map[string]entity.Challenge{}, attempts: map[string]int{}, steps: map[string]struct{}{}},
		events:  &recordEvents{events: map[string][]SecurityEvent{}},
		accounts: &memAccounts{users: map[string]identity.User{
			"u1": {ID: "u1", UserName: "alice@example.com", Email: "alice@example.com"},
			"u2": {ID: "u2", UserName: "bob"},
		}},
		locks: &memLocks{held: map[string]bool{}},
		totp:  otp.NewTOTP(otp.Config{}),
		clock: clock.NewFixed(time.Unix(1_700_000_010, 0)),
		gm:    goroutine.NewManager(10),
	}

	h.uc = New(Dependency{
		RepoDB:        h.secrets,
		RepoCache:     h.cache,
		RepoMessaging: h.events,
		Accounts:      h.accounts,
		Idempotency:   h.locks,
		Totp:          h.totp,
		QR:            qr,
		HMAC:          hash.NewHMACSHA256("test-hmac-secret"),
		Token:         &seqToken{},
		Validator:     v,
		Config:        cfg,
		Clock:         h.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.gm,
	})

	return h
}
