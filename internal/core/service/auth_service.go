package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// LoginLimiter abstracts the failed-login throttle (Redis).
type LoginLimiter interface {
	TooMany(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// AuthService implements the session lifecycle and password-reset flow.
// Sessions are minted as HS256 JWTs carrying a session id; the authoritative
// record lives in the SessionStore, so logout actually revokes the token.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	resets   ports.ResetStore
	limiter  LoginLimiter
	audit    ports.AuditSink
	log      zerolog.Logger

	jwtSecret string
	tokenTTL  time.Duration
	baseURL   string
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	resets ports.ResetStore,
	limiter LoginLimiter,
	audit ports.AuditSink,
	jwtSecret string,
	tokenTTL time.Duration,
	baseURL string,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		resets:    resets,
		limiter:   limiter,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
	}
}

// Login authenticates by case-insensitive email and password. Unknown email
// and wrong password are indistinguishable to the caller: both come back as
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password, supersedes string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		locked, err := s.limiter.TooMany(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter check failed, proceeding")
		} else if locked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.recordFailure(ctx, email)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("login limiter reset failed")
		}
	}

	s.revokeGuest(ctx, supersedes)

	session, err := s.mintSession(ctx, user, false)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   user.ID,
		Action:    "login",
		Timestamp: time.Now().UTC(),
	})
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")

	return session, nil
}

// Signup creates an account and mints a session for it. Email uniqueness is
// case-insensitive; new accounts get the standard member role.
func (s *AuthService) Signup(ctx context.Context, input ports.SignupInput, supersedes string) (*domain.Session, error) {
	email := normalizeEmail(input.Email)
	if input.Name == "" || email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        email,
		Company:      input.Company,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		// The unique email index closes the check-then-create race.
		return nil, err
	}

	s.revokeGuest(ctx, supersedes)

	session, err := s.mintSession(ctx, created, false)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   created.ID,
		Action:    "signup",
		Timestamp: now,
	})
	s.log.Info().Str("user_id", created.ID).Msg("account created")

	return session, nil
}

// Logout revokes the presented session. Unknown or already-revoked tokens are
// not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sid, ok := s.sessionID(token)
	if !ok {
		return nil
	}

	session, err := s.sessions.Find(ctx, sid)
	if err == nil && session.User != nil {
		s.audit.Record(domain.AuditEvent{
			ActorID:   session.User.ID,
			Action:    "logout",
			Timestamp: time.Now().UTC(),
		})
	}

	if err := s.sessions.Delete(ctx, sid); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ContinueAsGuest mints a read-only pseudo-session with no backing account.
// The token survives reloads like any other session, but every mutating
// predicate on it is false.
func (s *AuthService) ContinueAsGuest(ctx context.Context) (*domain.Session, error) {
	now := time.Now().UTC()
	guest := &domain.User{
		ID:        "guest-user",
		Name:      "Guest User",
		Email:     "guest@example.com",
		Role:      domain.RoleGuest,
		CreatedAt: now,
	}

	session, err := s.mintSession(ctx, guest, true)
	if err != nil {
		return nil, fmt.Errorf("guest session: %w", err)
	}

	s.log.Info().Str("session_id", session.ID).Msg("guest session started")
	return session, nil
}

// TransitionFromGuest revokes a guest session so the visitor can log in or
// sign up. Missing or invalid tokens are ignored; revoking an authenticated
// session through this path is refused.
func (s *AuthService) TransitionFromGuest(ctx context.Context, token string) error {
	sid, ok := s.sessionID(token)
	if !ok {
		return nil
	}

	session, err := s.sessions.Find(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("guest exit: %w", err)
	}
	if !session.IsGuest {
		return domain.ErrPermissionDenied
	}

	if err := s.sessions.Delete(ctx, sid); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("guest exit: %w", err)
	}
	return nil
}

// Restore resolves a bearer token back to its live session. Revoked and
// expired tokens surface as ErrSessionNotFound.
func (s *AuthService) Restore(ctx context.Context, token string) (*domain.Session, error) {
	sid, ok := s.sessionID(token)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.sessions.Find(ctx, sid)
	if err != nil {
		return nil, err
	}
	session.Token = token
	return session, nil
}

// RequestPasswordReset always succeeds from the caller's point of view. A
// reset entry is written only when the email maps to a known account, and a
// newer request supersedes any live entry for the same email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ports.ResetRequest, error) {
	email = normalizeEmail(email)
	if email == "" {
		return &ports.ResetRequest{}, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Same outcome as a known address: no enumeration signal.
			s.log.Info().Msg("password reset requested for unknown address")
			return &ports.ResetRequest{}, nil
		}
		return nil, fmt.Errorf("request reset: %w", err)
	}

	now := time.Now().UTC()
	entry := &domain.PasswordResetEntry{
		Token:     newResetToken(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.ResetTokenTTL),
	}
	if err := s.resets.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("request reset: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   user.ID,
		Action:    "password_reset_requested",
		Timestamp: now,
	})

	return &ports.ResetRequest{
		ResetURL: fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, entry.Token),
	}, nil
}

// ResetPassword consumes a reset token exactly once. Expiry is decided here,
// at consumption time, against the entry's recorded deadline.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidResetToken
	}

	entry, err := s.resets.Find(ctx, token)
	if err != nil {
		return err
	}

	if entry.Expired(time.Now().UTC()) {
		_ = s.resets.Delete(ctx, token)
		return domain.ErrExpiredResetToken
	}

	user, err := s.users.FindByEmail(ctx, entry.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("reset password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.resets.Delete(ctx, token); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete consumed reset token")
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   user.ID,
		Action:    "password_reset",
		Timestamp: time.Now().UTC(),
	})
	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")

	return nil
}

// mintSession stores a fresh session record and signs its bearer token.
func (s *AuthService) mintSession(ctx context.Context, user *domain.User, isGuest bool) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		IsGuest:   isGuest,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	claims := jwt.MapClaims{
		"sid":      session.ID,
		"role":     string(user.Role),
		"is_guest": isGuest,
		"exp":      session.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	session.Token = token

	if err := s.sessions.Save(ctx, session, s.tokenTTL); err != nil {
		return nil, err
	}
	return session, nil
}

// sessionID verifies the token signature and extracts the session id.
func (s *AuthService) sessionID(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}

	sid, _ := claims["sid"].(string)
	return sid, sid != ""
}

// revokeGuest drops a guest session presented during login or signup, so the
// authenticated session never coexists with the guest one.
func (s *AuthService) revokeGuest(ctx context.Context, token string) {
	if token == "" {
		return
	}
	sid, ok := s.sessionID(token)
	if !ok {
		return
	}
	session, err := s.sessions.Find(ctx, sid)
	if err != nil || !session.IsGuest {
		return
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		s.log.Warn().Err(err).Str("session_id", sid).Msg("failed to revoke guest session")
	}
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login limiter record failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newResetToken returns an opaque 128-bit hex token.
func newResetToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// fallback: derive from a random UUID
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}
