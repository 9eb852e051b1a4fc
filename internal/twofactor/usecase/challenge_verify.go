package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	identity "github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
)

type VerifyChallengeInput struct {
	ChallengeToken string `validate:"required,max=128"`
	Code           string `validate:"required,max=16"`
}

type VerifyChallengeOutput struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// VerifyChallenge completes a login: the pending challenge must exist, the
// user must have an enabled secret and the code must verify. On success the
// user is signed in and the challenge consumed. A wrong code keeps the
// challenge for another try unless the attempt limit is reached.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyChallengeInput) (*VerifyChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	in.ChallengeToken = strings.TrimSpace(in.ChallengeToken)
	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hashToken(ctx, in.ChallengeToken)
	if err != nil {
		return nil, err
	}

	ch, err := s.loadChallenge(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	secret, err := s.loadSecret(ctx, ch.UserID)
	if err != nil {
		if errors.Is(err, entity.ErrNotConfigured) {
			s.countChallenge(ctx, "not_configured")
		}
		return nil, err
	}

	user, err := s.accounts.FindByID(ctx, ch.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge user not found", "user_id", ch.UserID)
		s.countChallenge(ctx, "session_expired")
		return nil, errSessionExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find user by id", "user_id", ch.UserID, "error", err)
		return nil, errPersistence(err)
	}

	attempt, err := s.reserveAttempt(ctx, tokenHash, user.ID)
	if err != nil {
		return nil, err
	}

	ver, err := s.totp.VerifyCode(secret.SecretKey, in.Code, s.clock.Now())
	if errors.Is(err, otp.ErrInvalidSecret) {
		slog.ErrorContext(ctx, "stored two factor secret is malformed", "user_id", user.ID)
		s.countChallenge(ctx, "not_configured")
		return nil, errNotConfigured()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ver.Valid {
		slog.WarnContext(ctx, "invalid two factor code", "user_id", user.ID, "attempt", attempt)
		return nil, s.rejectCode(ctx, tokenHash, user.ID, attempt, "invalid_code")
	}

	if s.cfg.GetBool("modules.twofactor.replay_guard") {
		ttl := time.Duration(2*s.totp.Window()+1) * s.totp.Period()
		fresh, err := s.repoCache.ClaimStep(ctx, user.ID, ver.MatchedCounter, ttl)
		if err != nil {
			slog.ErrorContext(ctx, "failed to claim time step", "user_id", user.ID, "error", err)
			return nil, errPersistence(err)
		}
		if !fresh {
			slog.WarnContext(ctx, "two factor code already used", "user_id", user.ID)
			return nil, s.rejectCode(ctx, tokenHash, user.ID, attempt, "code_reused")
		}
	}

	// The slot survives a signing failure so the user can submit again.
	session, err := s.accounts.SignIn(ctx, *user, jwt.MethodPassword, jwt.MethodOTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign in user", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	deleted, err := s.repoCache.DeleteChallenge(ctx, tokenHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete pending challenge", "user_id", user.ID, "error", err)
		return nil, errPersistence(err)
	}
	if !deleted {
		slog.WarnContext(ctx, "pending challenge consumed concurrently, session discarded", "user_id", user.ID)
		s.countChallenge(ctx, "session_expired")
		return nil, errSessionExpired()
	}

	s.countChallenge(ctx, "succeeded")

	step := ver.MatchedStep
	now := s.clock.Now()
	s.publish(ctx, "twofactor_challenge_succeeded", func(ctx context.Context) error {
		return s.repoMessaging.PublishChallengeSucceeded(ctx, SecurityEvent{UserID: user.ID, OccurredAt: now, MatchedStep: &step})
	})

	return sessionOutput(session), nil
}

func (s *Usecase) loadChallenge(ctx context.Context, tokenHash string) (*entity.Challenge, error) {
	ch, err := s.repoCache.GetChallenge(ctx, tokenHash)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pending challenge not found or expired")
		s.countChallenge(ctx, "session_expired")
		return nil, errSessionExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get pending challenge", "error", err)
		return nil, errPersistence(err)
	}

	return ch, nil
}

// reserveAttempt counts the submission before its code is evaluated, so no
// more than max_attempts codes are ever checked against one challenge. It
// returns 0 when max_attempts is unset.
func (s *Usecase) reserveAttempt(ctx context.Context, tokenHash, userID string) (int, error) {
	maxAttempts := s.cfg.GetInt("modules.twofactor.max_attempts")
	if maxAttempts <= 0 {
		return 0, nil
	}

	n, err := s.repoCache.IncrAttempts(ctx, tokenHash)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pending challenge gone before attempt", "user_id", userID)
		s.countChallenge(ctx, "session_expired")
		return 0, errSessionExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to count attempt", "user_id", userID, "error", err)
		return 0, errPersistence(err)
	}

	if n > maxAttempts {
		s.dropChallenge(ctx, tokenHash, userID, n)
		s.countChallenge(ctx, "max_attempts")
		return 0, errSessionExpired()
	}

	return n, nil
}

// dropChallenge removes a locked challenge. Losing the race to another
// request that already dropped it is fine.
func (s *Usecase) dropChallenge(ctx context.Context, tokenHash, userID string, attempt int) {
	if _, err := s.repoCache.DeleteChallenge(ctx, tokenHash); err != nil {
		slog.ErrorContext(ctx, "failed to drop locked challenge", "user_id", userID, "error", err)
		return
	}
	slog.WarnContext(ctx, "pending challenge dropped after too many attempts", "user_id", userID, "attempt", attempt)
}

// rejectCode returns the InvalidCode error for a failed attempt. The attempt
// that reaches max_attempts drops the challenge, so the next submission sees
// an expired session.
func (s *Usecase) rejectCode(ctx context.Context, tokenHash, userID string, attempt int, reason string) error {
	s.countChallenge(ctx, reason)

	maxAttempts := s.cfg.GetInt("modules.twofactor.max_attempts")
	if maxAttempts > 0 && attempt >= maxAttempts {
		s.dropChallenge(ctx, tokenHash, userID, attempt)
		reason = "max_attempts"
	}

	now := s.clock.Now()
	s.publish(ctx, "twofactor_challenge_failed", func(ctx context.Context) error {
		return s.repoMessaging.PublishChallengeFailed(ctx, SecurityEvent{UserID: userID, OccurredAt: now, Reason: reason})
	})

	return errInvalidCode()
}

func sessionOutput(session *identity.Session) *VerifyChallengeOutput {
	return &VerifyChallengeOutput{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresAt:   session.ExpiresAt,
	}
}
