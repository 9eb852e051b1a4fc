package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
)

const tokenTypeBearer = "Bearer"

type tokenIssuer interface {
	Generate(sub jwt.Subject) (string, error)
	TTL() time.Duration
}

// Accounts holds the account primitives other modules build on: creating
// accounts, looking them up, checking passwords and issuing sessions.
// Errors from the store are returned as they are (goerror.ErrNotFound,
// goerror.ErrConflict) so callers decide how to present them.
type Accounts struct {
	repoDB   repoDB
	bcrypt   hash.Hash
	jwt      tokenIssuer
	denylist jwt.Denylist
	uuid     uid.StringID
	clock    clock.Clocker
	ins      instrument.Instrumentation
}

type AccountsDependency struct {
	RepoDB     repoDB
	Bcrypt     hash.Hash
	JWT        tokenIssuer
	Denylist   jwt.Denylist
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func NewAccounts(dep AccountsDependency) *Accounts {
	return &Accounts{
		repoDB:   dep.RepoDB,
		bcrypt:   dep.Bcrypt,
		jwt:      dep.JWT,
		denylist: dep.Denylist,
		uuid:     dep.UUID,
		clock:    dep.Clock,
		ins:      dep.Instrument,
	}
}

// Normalize is the lookup form of user names and emails.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CreateAccount stores a new user whose name is its email address.
func (a *Accounts) CreateAccount(ctx context.Context, email, password string) (*entity.User, error) {
	ctx, span := a.ins.Tracer("identity.accounts").Start(ctx, "CreateAccount")
	defer span.End()

	hashed, err := a.bcrypt.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, err
	}

	email = strings.TrimSpace(email)
	user := entity.User{
		ID:                 a.uuid.Generate(),
		UserName:           email,
		NormalizedUserName: Normalize(email),
		Email:              email,
		NormalizedEmail:    Normalize(email),
		PasswordHash:       string(hashed),
		SecurityStamp:      a.uuid.Generate(),
		CreatedAt:          a.clock.Now().UTC(),
	}

	if err := a.repoDB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (a *Accounts) FindByID(ctx context.Context, userID string) (*entity.User, error) {
	ctx, span := a.ins.Tracer("identity.accounts").Start(ctx, "FindByID")
	defer span.End()

	return a.repoDB.FindUserByID(ctx, userID)
}

func (a *Accounts) FindByName(ctx context.Context, name string) (*entity.User, error) {
	ctx, span := a.ins.Tracer("identity.accounts").Start(ctx, "FindByName")
	defer span.End()

	return a.repoDB.FindUserByName(ctx, Normalize(name))
}

func (a *Accounts) VerifyPassword(user entity.User, password string) bool {
	return a.bcrypt.Verify(user.PasswordHash, password)
}

// SignIn issues an access token for user recording the methods that were
// verified, jwt.MethodPassword first.
func (a *Accounts) SignIn(ctx context.Context, user entity.User, methods ...string) (*entity.Session, error) {
	_, span := a.ins.Tracer("identity.accounts").Start(ctx, "SignIn")
	defer span.End()

	token, err := a.jwt.Generate(jwt.Subject{UserID: user.ID, Email: user.Email, Methods: methods})
	if err != nil {
		return nil, err
	}

	return &entity.Session{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   a.clock.Now().Add(a.jwt.TTL()),
	}, nil
}

// SignOut revokes the token behind clm until it would have expired.
func (a *Accounts) SignOut(ctx context.Context, clm jwt.Claims) error {
	ctx, span := a.ins.Tracer("identity.accounts").Start(ctx, "SignOut")
	defer span.End()

	until := a.clock.Now().Add(a.jwt.TTL())
	if clm.ExpiresAt != nil {
		until = clm.ExpiresAt.Time
	}

	return a.denylist.Revoke(ctx, clm.ID, until)
}
