package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// --- in-memory stubs ---

type stubUserRepo struct {
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return user, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.byEmail))
	for _, user := range r.byEmail {
		out = append(out, *user)
	}
	return out, nil
}

type stubSessionStore struct {
	sessions map[string]*domain.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*domain.Session{}}
}

func (s *stubSessionStore) Save(_ context.Context, session *domain.Session, _ time.Duration) error {
	cp := *session
	cp.Token = ""
	s.sessions[session.ID] = &cp
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubResetStore struct {
	byToken map[string]*domain.PasswordResetEntry
	byEmail map[string]string
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{
		byToken: map[string]*domain.PasswordResetEntry{},
		byEmail: map[string]string{},
	}
}

func (s *stubResetStore) Put(_ context.Context, entry *domain.PasswordResetEntry) error {
	if prev, ok := s.byEmail[entry.Email]; ok {
		delete(s.byToken, prev)
	}
	s.byToken[entry.Token] = entry
	s.byEmail[entry.Email] = entry.Token
	return nil
}

func (s *stubResetStore) Find(_ context.Context, token string) (*domain.PasswordResetEntry, error) {
	entry, ok := s.byToken[token]
	if !ok {
		return nil, domain.ErrInvalidResetToken
	}
	return entry, nil
}

func (s *stubResetStore) Delete(_ context.Context, token string) error {
	entry, ok := s.byToken[token]
	if !ok {
		return nil
	}
	delete(s.byToken, token)
	if s.byEmail[entry.Email] == token {
		delete(s.byEmail, entry.Email)
	}
	return nil
}

type stubLimiter struct {
	failures map[string]int
	max      int
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{failures: map[string]int{}, max: 5}
}

func (l *stubLimiter) TooMany(_ context.Context, email string) (bool, error) {
	return l.failures[email] >= l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, email string) error {
	l.failures[email]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, email string) error {
	delete(l.failures, email)
	return nil
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (a *stubAudit) Record(event domain.AuditEvent) {
	a.events = append(a.events, event)
}

func (a *stubAudit) has(action string) bool {
	for _, e := range a.events {
		if e.Action == action {
			return true
		}
	}
	return false
}

// --- fixture ---

type authFixture struct {
	svc     *AuthService
	users   *stubUserRepo
	store   *stubSessionStore
	resets  *stubResetStore
	limiter *stubLimiter
	audit   *stubAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:   newStubUserRepo(),
		store:   newStubSessionStore(),
		resets:  newStubResetStore(),
		limiter: newStubLimiter(),
		audit:   &stubAudit{},
	}
	f.svc = NewAuthService(f.users, f.store, f.resets, f.limiter, f.audit,
		"test-secret", time.Hour, "http://localhost:3000", zerolog.Nop())
	return f
}

func (f *authFixture) seedUser(t *testing.T, id, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		ID:           id,
		Name:         "Test " + id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if _, err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// --- tests ---

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleAdmin)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a signed token")
	}
	if session.IsGuest {
		t.Error("authenticated session must not be guest")
	}
	if session.User == nil || session.User.Role != domain.RoleAdmin {
		t.Errorf("unexpected session user: %+v", session.User)
	}

	restored, err := f.svc.Restore(ctx, session.Token)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.ID != session.ID {
		t.Errorf("restored session id %q, want %q", restored.ID, session.ID)
	}
	if restored.User.ID != "user-1" {
		t.Errorf("restored user id %q, want user-1", restored.User.ID)
	}

	if !f.audit.has("login") {
		t.Error("expected a login audit event")
	}
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)

	if _, err := f.svc.Login(context.Background(), "  John@Example.COM ", "Password123", ""); err != nil {
		t.Fatalf("login with mixed-case email failed: %v", err)
	}
}

// Unknown email and wrong password come back as the same error, so login
// failures never reveal whether an account exists.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	_, wrongPassword := f.svc.Login(ctx, "john@example.com", "nope", "")
	_, unknownEmail := f.svc.Login(ctx, "nobody@example.com", "nope", "")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", unknownEmail)
	}
}

func TestLoginThrottleLocksAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Login(ctx, "john@example.com", "nope", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Even the correct password is refused while locked.
	if _, err := f.svc.Login(ctx, "john@example.com", "Password123", ""); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("locked login: got %v, want ErrTooManyAttempts", err)
	}
}

func TestLoginResetsThrottleOnSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "john@example.com", "nope", "")
	}
	if _, err := f.svc.Login(ctx, "john@example.com", "Password123", ""); err != nil {
		t.Fatalf("login after partial failures: %v", err)
	}
	if f.limiter.failures["john@example.com"] != 0 {
		t.Errorf("failure count not reset: %d", f.limiter.failures["john@example.com"])
	}
}

func TestSignup(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.Signup(ctx, ports.SignupInput{
		Name:     "New User",
		Email:    "New@Example.com",
		Password: "Password123",
		Company:  "Acme",
	}, "")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if session.User.Role != domain.RoleUser {
		t.Errorf("new account role %q, want %q", session.User.Role, domain.RoleUser)
	}
	if session.User.Email != "new@example.com" {
		t.Errorf("email not normalized: %q", session.User.Email)
	}
	if session.Token == "" {
		t.Error("signup must mint a session")
	}

	// The new account can log in immediately.
	if _, err := f.svc.Login(ctx, "new@example.com", "Password123", ""); err != nil {
		t.Fatalf("login after signup: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)

	_, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Name:     "Imposter",
		Email:    "JOHN@example.com",
		Password: "Password456",
	}, "")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.Restore(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("restore after logout: got %v, want ErrSessionNotFound", err)
	}

	// Logout is idempotent and tolerates garbage tokens.
	if err := f.svc.Logout(ctx, session.Token); err != nil {
		t.Errorf("second logout: %v", err)
	}
	if err := f.svc.Logout(ctx, "not-a-jwt"); err != nil {
		t.Errorf("logout with garbage token: %v", err)
	}
}

func TestGuestSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.ContinueAsGuest(ctx)
	if err != nil {
		t.Fatalf("guest session: %v", err)
	}
	if !session.IsGuest {
		t.Error("expected IsGuest")
	}
	if session.CanCreate() || session.CanEdit("guest-user") || session.CanDelete("guest-user") {
		t.Error("guest session must have no mutating capability")
	}

	// Guest sessions survive reloads like any other.
	restored, err := f.svc.Restore(ctx, session.Token)
	if err != nil {
		t.Fatalf("restore guest: %v", err)
	}
	if !restored.IsGuest {
		t.Error("restored session lost its guest flag")
	}
}

func TestTransitionFromGuest(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	guest, err := f.svc.ContinueAsGuest(ctx)
	if err != nil {
		t.Fatalf("guest session: %v", err)
	}

	if err := f.svc.TransitionFromGuest(ctx, guest.Token); err != nil {
		t.Fatalf("guest exit: %v", err)
	}
	if _, err := f.svc.Restore(ctx, guest.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("guest session still live after exit: %v", err)
	}

	// Unknown tokens are ignored.
	if err := f.svc.TransitionFromGuest(ctx, "not-a-jwt"); err != nil {
		t.Errorf("guest exit with garbage token: %v", err)
	}
}

func TestTransitionFromGuestRefusesAuthenticatedSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.TransitionFromGuest(ctx, session.Token); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
	// The authenticated session is untouched.
	if _, err := f.svc.Restore(ctx, session.Token); err != nil {
		t.Errorf("authenticated session was revoked: %v", err)
	}
}

// Logging in while holding a guest token revokes the guest session, so the
// two never coexist.
func TestLoginSupersedesGuestSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	guest, err := f.svc.ContinueAsGuest(ctx)
	if err != nil {
		t.Fatalf("guest session: %v", err)
	}

	if _, err := f.svc.Login(ctx, "john@example.com", "Password123", guest.Token); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := f.svc.Restore(ctx, guest.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("guest session survived login: %v", err)
	}
}

// An authenticated token presented as supersedes is left alone.
func TestLoginDoesNotRevokeAuthenticatedSupersedes(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	f.seedUser(t, "user-2", "jane@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := f.svc.Login(ctx, "jane@example.com", "Password123", first.Token); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if _, err := f.svc.Restore(ctx, first.Token); err != nil {
		t.Errorf("authenticated session was revoked by another login: %v", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "OldPassword1", domain.RoleUser)
	ctx := context.Background()

	req, err := f.svc.RequestPasswordReset(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := tokenFromResetURL(t, req.ResetURL)

	if err := f.svc.ResetPassword(ctx, token, "NewPassword1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := f.svc.Login(ctx, "john@example.com", "OldPassword1", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := f.svc.Login(ctx, "john@example.com", "NewPassword1", ""); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Tokens are single use.
	if err := f.svc.ResetPassword(ctx, token, "AnotherPassword1"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Errorf("consumed token reused: got %v, want ErrInvalidResetToken", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	req, err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("request reset for unknown email must succeed: %v", err)
	}
	if req.ResetURL != "" {
		t.Errorf("unknown email produced a reset URL: %q", req.ResetURL)
	}
	if len(f.resets.byToken) != 0 {
		t.Error("unknown email must not create a reset entry")
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	// Entry already past its deadline; the Redis key would still exist.
	stale := &domain.PasswordResetEntry{
		Token:     "stale-token",
		Email:     "john@example.com",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: time.Now().UTC().Add(-45 * time.Minute),
	}
	if err := f.resets.Put(ctx, stale); err != nil {
		t.Fatalf("seed stale entry: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, "stale-token", "NewPassword1"); !errors.Is(err, domain.ErrExpiredResetToken) {
		t.Fatalf("got %v, want ErrExpiredResetToken", err)
	}
	if _, ok := f.resets.byToken["stale-token"]; ok {
		t.Error("expired entry not purged on consumption")
	}
}

// A newer reset request invalidates the previous token for the same email.
func TestPasswordResetSupersedes(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	first, err := f.svc.RequestPasswordReset(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := f.svc.RequestPasswordReset(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	oldToken := tokenFromResetURL(t, first.ResetURL)
	newToken := tokenFromResetURL(t, second.ResetURL)

	if err := f.svc.ResetPassword(ctx, oldToken, "NewPassword1"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Errorf("superseded token still works: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, newToken, "NewPassword1"); err != nil {
		t.Errorf("latest token rejected: %v", err)
	}
}

func TestRestoreRejectsForgedToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Same token signed with a different secret must not resolve.
	other := NewAuthService(f.users, f.store, f.resets, f.limiter, f.audit,
		"different-secret", time.Hour, "http://localhost:3000", zerolog.Nop())
	if _, err := other.Restore(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("token with wrong signature accepted: %v", err)
	}
}

// Full demo-account walkthrough: admin override, owner permission, and the
// anti-enumeration reset path behave as one coherent story.
func TestSeededAccountScenario(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "user-1", "john@example.com", "Password123", domain.RoleAdmin)
	f.seedUser(t, "user-2", "jane@example.com", "Password123", domain.RoleUser)
	ctx := context.Background()

	john, err := f.svc.Login(ctx, "john@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if !john.CanDelete("user-2") {
		t.Error("admin must be able to delete another user's resource")
	}

	jane, err := f.svc.Login(ctx, "jane@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("member login: %v", err)
	}
	if !jane.CanDelete("user-2") {
		t.Error("owner must be able to delete their own resource")
	}
	if jane.CanDelete("user-1") {
		t.Error("member must not delete another user's resource")
	}

	// Reset for an unseeded address: success with no entry, and no guessed
	// token can consume anything.
	req, err := f.svc.RequestPasswordReset(ctx, "stranger@example.com")
	if err != nil {
		t.Fatalf("reset request for unseeded email: %v", err)
	}
	if req.ResetURL != "" {
		t.Error("unseeded email must not yield a reset URL")
	}
	if err := f.svc.ResetPassword(ctx, "guessed-token", "Whatever123"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Errorf("guessed token: got %v, want ErrInvalidResetToken", err)
	}
}

func tokenFromResetURL(t *testing.T, url string) string {
	t.Helper()
	const marker = "token="
	i := strings.Index(url, marker)
	if i < 0 {
		t.Fatalf("reset URL %q has no token parameter", url)
	}
	return url[i+len(marker):]
}
