package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// AuthService handles registration, login and bearer-token verification.
// Tokens are HS256 JWTs whose subject is the user id.
type AuthService struct {
	repo     *storage.SQLiteRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Logger
}

func NewAuthService(repo *storage.SQLiteRepository, secret string, tokenTTL time.Duration, logger *log.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a new user with a bcrypt password hash. A taken name
// surfaces as core.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	creds := core.Credentials{Name: name, Password: password}
	if err := creds.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, core.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return core.User{}, storageErr(ctx, s.logger, "register user", err)
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, user.ID)
	return user, nil
}

// Login checks the credentials and returns a signed access token. Every
// failure mode collapses into core.ErrUnauthorized so callers cannot probe
// which names exist.
func (s *AuthService) Login(ctx context.Context, name, password string) (string, error) {
	user, err := s.repo.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("login %q: %w", name, core.ErrUnauthorized)
		}
		return "", storageErr(ctx, s.logger, "login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("login %q: %w", name, core.ErrUnauthorized)
	}
	if !user.IsActive {
		return "", fmt.Errorf("login %q: inactive user: %w", name, core.ErrUnauthorized)
	}

	return s.createToken(user.ID)
}

func (s *AuthService) createToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the signature and expiry and returns the user id
// from the subject claim.
func (s *AuthService) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", core.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims: %w", core.ErrUnauthorized)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", claims.Subject, core.ErrUnauthorized)
	}
	return userID, nil
}

// CurrentUser resolves the token to a live user record.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (core.User, error) {
	userID, err := s.VerifyToken(tokenString)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, fmt.Errorf("user %d: %w", userID, core.ErrUnauthorized)
		}
		return core.User{}, storageErr(ctx, s.logger, "load current user", err)
	}
	if !user.IsActive {
		return core.User{}, fmt.Errorf("user %d inactive: %w", userID, core.ErrUnauthorized)
	}
	return user, nil
}
