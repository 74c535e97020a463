package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

// Structured rejections returned by CreateUser.
const (
	MsgEmailRegistered = "Email already registered"
	MsgInvalidUserType = "Invalid user type"
)

// AuthService implements account creation and the session lifecycle.
type AuthService struct {
	repo      ports.UserRepository
	sessions  ports.SessionStore // optional
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewAuthService wires an AuthService. sessions may be nil, in which case
// tokens are valid until expiry and logout only clears the client cookie.
func NewAuthService(repo ports.UserRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = domain.SessionTTL
	}
	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *AuthService) CreateUser(ctx context.Context, in ports.CreateUserInput) (ports.CreateUserResult, error) {
	if !in.UserType.Valid() {
		return ports.CreateUserResult{Error: MsgInvalidUserType}, nil
	}
	email := normalizeEmail(in.Email)

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return ports.CreateUserResult{Error: MsgEmailRegistered}, nil
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return ports.CreateUserResult{}, fmt.Errorf("create user: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(passwordDigest(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return ports.CreateUserResult{}, fmt.Errorf("create user: hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		UserType:     in.UserType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.UserType == domain.UserTypeProvider {
		user.BusinessName = strings.TrimSpace(in.BusinessName)
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return ports.CreateUserResult{Error: MsgEmailRegistered}, nil
		}
		return ports.CreateUserResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.startSession(ctx, created)
	if err != nil {
		return ports.CreateUserResult{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("user_type", string(created.UserType)).
		Msg("account created")

	return ports.CreateUserResult{Success: true, User: created, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordDigest(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	return token, user, nil
}

// Logout revokes the session carried by token. Tokens that do not verify
// are ignored: there is nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil || token == "" {
		return nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*ports.Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}
	if s.sessions == nil {
		return claims, nil
	}

	active, err := s.sessions.Exists(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !active {
		return nil, domain.ErrInvalidSession
	}
	return claims, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// startSession signs a token for user and records its session id.
func (s *AuthService) startSession(ctx context.Context, user *domain.User) (string, error) {
	sessionID := uuid.NewString()
	now := s.now()

	claims := jwt.MapClaims{
		"sub":       user.ID,
		"email":     user.Email,
		"user_type": string(user.UserType),
		"jti":       sessionID,
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, sessionID, user.ID, s.tokenTTL); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
	}
	return token, nil
}

func (s *AuthService) parseToken(token string) (*ports.Claims, error) {
	mc := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidSession
	}

	claims := &ports.Claims{}
	claims.UserID, _ = mc["sub"].(string)
	claims.SessionID, _ = mc["jti"].(string)
	claims.Email, _ = mc["email"].(string)
	userType, _ := mc["user_type"].(string)
	claims.UserType = domain.UserType(userType)

	if claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.ErrInvalidSession
	}
	return claims, nil
}

// passwordDigest condenses a password of any length into the 44 bytes bcrypt
// hashes. bcrypt itself refuses input longer than 72 bytes.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
