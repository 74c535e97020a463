package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

type stubUserRepo struct {
	users     map[string]*domain.User // keyed by email
	findErr   error
	createErr error
	nextID    int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[copy.Email] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubSessions struct {
	active  map[string]string
	saveErr error
}

func newStubSessions() *stubSessions {
	return &stubSessions{active: make(map[string]string)}
}

func (s *stubSessions) Save(_ context.Context, sessionID, userID string, _ time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.active[sessionID] = userID
	return nil
}

func (s *stubSessions) Exists(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.active[sessionID]
	return ok, nil
}

func (s *stubSessions) Revoke(_ context.Context, sessionID string) error {
	delete(s.active, sessionID)
	return nil
}

func seekerInput(email string) ports.CreateUserInput {
	return ports.CreateUserInput{
		Email:     email,
		Password:  "pass123",
		FirstName: "Alice",
		LastName:  "Smith",
		UserType:  domain.UserTypeSeeker,
	}
}

func newSvc(repo *stubUserRepo, sessions ports.SessionStore) *AuthService {
	return NewAuthService(repo, sessions, "secret", time.Hour, zerolog.Nop())
}

func TestAuthService_CreateUser_Success(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	svc := newSvc(repo, sessions)

	res, err := svc.CreateUser(context.Background(), seekerInput("  Alice@Example.com "))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if !res.Success || res.User == nil || res.Token == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", res.User.Email)
	}
	if res.User.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), passwordDigest("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(sessions.active) != 1 {
		t.Fatalf("expected one active session, got %d", len(sessions.active))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(res.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != res.User.ID || claims["user_type"] != string(domain.UserTypeSeeker) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_CreateUser_SeekerDropsBusinessName(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	in := seekerInput("bob@example.com")
	in.BusinessName = "Bob's Plumbing"
	res, err := svc.CreateUser(context.Background(), in)
	if err != nil || !res.Success {
		t.Fatalf("CreateUser failed: %+v %v", res, err)
	}
	if res.User.BusinessName != "" {
		t.Fatalf("seeker kept business name %q", res.User.BusinessName)
	}
}

func TestAuthService_CreateUser_Duplicate(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	_, _ = svc.CreateUser(context.Background(), seekerInput("bob@example.com"))
	res, err := svc.CreateUser(context.Background(), seekerInput("BOB@example.com"))
	if err != nil {
		t.Fatalf("expected structured failure, got error %v", err)
	}
	if res.Success || res.Error != MsgEmailRegistered {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_CreateUser_DuplicateRace(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = fmt.Errorf("insert user: %w", domain.ErrUserExists)
	svc := newSvc(repo, nil)

	res, err := svc.CreateUser(context.Background(), seekerInput("carol@example.com"))
	if err != nil {
		t.Fatalf("expected structured failure, got error %v", err)
	}
	if res.Success || res.Error != MsgEmailRegistered {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_CreateUser_StorageFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection refused")
	svc := newSvc(repo, nil)

	if _, err := svc.CreateUser(context.Background(), seekerInput("dave@example.com")); err == nil {
		t.Fatalf("expected error on storage failure")
	}
}

func TestAuthService_CreateUser_SessionFailure(t *testing.T) {
	sessions := newStubSessions()
	sessions.saveErr = errors.New("redis down")
	svc := newSvc(newStubUserRepo(), sessions)

	if _, err := svc.CreateUser(context.Background(), seekerInput("erin@example.com")); err == nil {
		t.Fatalf("expected error when session cannot be saved")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newSvc(newStubUserRepo(), newStubSessions())

	if _, err := svc.CreateUser(context.Background(), seekerInput("carol@example.com")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "Carol@Example.com", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.Email != "carol@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	_, _ = svc.CreateUser(context.Background(), seekerInput("dave@example.com"))
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	sessions := newStubSessions()
	svc := newSvc(newStubUserRepo(), sessions)

	res, err := svc.CreateUser(context.Background(), seekerInput("frank@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	claims, err := svc.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if claims.UserID != res.User.ID || claims.UserType != domain.UserTypeSeeker {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := svc.Logout(context.Background(), res.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), res.Token); err != domain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession after logout, got %v", err)
	}
}

func TestAuthService_Authenticate_RejectsForeignAndExpiredTokens(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "jti": "s1", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	if _, err := svc.Authenticate(context.Background(), foreign); err != domain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for foreign signature, got %v", err)
	}

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "jti": "s1", "exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if _, err := svc.Authenticate(context.Background(), expired); err != domain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for expired token, got %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "not-a-token"); err != domain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for garbage, got %v", err)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	res, _ := svc.CreateUser(context.Background(), seekerInput("gina@example.com"))
	user, err := svc.CurrentUser(context.Background(), res.User.ID)
	if err != nil || user.Email != "gina@example.com" {
		t.Fatalf("unexpected lookup: %+v %v", user, err)
	}
	if _, err := svc.CurrentUser(context.Background(), "missing"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_LongPassword(t *testing.T) {
	svc := newSvc(newStubUserRepo(), nil)

	in := seekerInput("hana@example.com")
	in.Password = strings.Repeat("x", 73)
	res, err := svc.CreateUser(context.Background(), in)
	if err != nil || !res.Success {
		t.Fatalf("CreateUser with a 73 byte password failed: %+v %v", res, err)
	}

	if _, _, err := svc.Login(context.Background(), "hana@example.com", in.Password); err != nil {
		t.Fatalf("login with long password failed: %v", err)
	}
	// bcrypt alone would only compare the first 72 bytes
	if _, _, err := svc.Login(context.Background(), "hana@example.com", strings.Repeat("x", 72)+"y"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for a different long password, got %v", err)
	}
}

func TestAuthService_CreateUser_RejectsUnknownUserType(t *testing.T) {
	repo := newStubUserRepo()
	svc := newSvc(repo, nil)

	in := seekerInput("ivan@example.com")
	in.UserType = "admin"
	res, err := svc.CreateUser(context.Background(), in)
	if err != nil {
		t.Fatalf("expected structured failure, got error %v", err)
	}
	if res.Success || res.Error != MsgInvalidUserType {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no account must be stored for an unknown user type")
	}
}
