package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/dverhoef/taskhive/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 7

// AuthService handles registration, login, and the session-token lifecycle.
// Tokens are HS256-signed JWTs carrying the user id and no expiry: a token is
// valid exactly while it sits in the user's persisted token list, so logout
// and logout-all are plain removals from that list.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user account and logs it in, returning the user and
// a freshly issued session token.
func (s *AuthService) Register(ctx context.Context, name, email, password string, age int64) (*domain.User, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}
	if age < 0 {
		return nil, "", fmt.Errorf("%w: age must not be negative", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        normalized,
		PasswordHash: string(hash),
		Age:          age,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login verifies credentials and issues a new session token. Unknown email
// and wrong password both yield ErrInvalidCredentials so callers learn
// nothing about which one it was.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken signs a token for the user and appends it to the user's active
// session list. The jti claim makes every token unique, so two logins in the
// same second still create two revocable sessions.
func (s *AuthService) IssueToken(ctx context.Context, user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"iat": time.Now().Unix(),
		"jti": uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.users.AddToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return token, nil
}

// VerifyToken resolves a presented token to its user. It checks the
// signature, the decoded user, and membership in the user's current session
// list; every failure mode collapses into ErrUnauthorized.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	// A validly signed token that has been logged out no longer resolves.
	active, err := s.users.HasToken(ctx, userID, tokenString)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if !active {
		return nil, domain.ErrUnauthorized
	}

	return user, nil
}

// Logout revokes exactly the presented session token. Other sessions of the
// same user stay valid.
func (s *AuthService) Logout(ctx context.Context, userID int64, token string) error {
	return s.users.RemoveToken(ctx, userID, token)
}

// LogoutAll revokes every session token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.users.ClearTokens(ctx, userID)
}

// normalizeEmail validates the address and returns it lowercased.
func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is invalid", domain.ErrInvalidInput)
	}
	return strings.ToLower(email), nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return fmt.Errorf("%w: password must not contain the word \"password\"", domain.ErrInvalidInput)
	}
	return nil
}
