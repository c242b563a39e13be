package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/angulliamysara-del/MYCloud/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordLength = 72 // bcrypt limit

// Usernames name provider folders, so they must stay path-safe.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// accountStore abstracts the persistence layer.
type accountStore interface {
	CreateAccount(ctx context.Context, username, passwordHash string) (Account, error)
	FindAccount(ctx context.Context, username string) (Account, error)
}

// Service encapsulates registration, login and token verification.
type Service struct {
	store   accountStore
	cfg     config.AuthConfig
	nowFunc func() time.Time
	issuer  string
	parser  *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store accountStore, cfg config.AuthConfig) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		nowFunc: time.Now,
		issuer:  "mycloud",
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (Account, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return Account{}, err
	}

	hash, err := hashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.store.CreateAccount(ctx, username, hash)
	if err != nil {
		if errors.Is(err, ErrUsernameExists) || errors.Is(err, ErrCapacityExceeded) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	return account.SafeAccount(), nil
}

// Login authenticates credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, Account, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	account, err := s.store.FindAccount(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", Account{}, ErrInvalidCredentials
		}
		return "", Account{}, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(account.Username)
	if err != nil {
		return "", Account{}, fmt.Errorf("issue token: %w", err)
	}

	return token, account.SafeAccount(), nil
}

// ResolveToken verifies the token signature and expiry and returns the
// username it was issued to, confirming the account still exists.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrUnauthorized
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(expFloat), 0).Before(s.nowFunc()) {
		return "", ErrUnauthorized
	}

	if _, err := s.store.FindAccount(ctx, sub); err != nil {
		return "", ErrUnauthorized
	}

	return sub, nil
}

func (s *Service) issueToken(username string) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"sub": username,
		"iss": s.issuer,
		"aud": "mycloud-api",
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.TokenSecret))
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidCredentials
	}
	if len(password) > maxPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}
