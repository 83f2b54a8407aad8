package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies when admin credentials are changed.
const MinPasswordLength = 8

// CredentialRepository loads and replaces the admin credential record.
// Get returns (nil, nil) when nothing has been stored yet.
type CredentialRepository interface {
	Get(ctx context.Context) (*models.Credential, error)
	Put(ctx context.Context, cred models.Credential) error
}

type AuthService struct {
	credentials  CredentialRepository
	tokens       *TokenService
	guard        *LoginGuard
	failureDelay time.Duration
	logger       *zap.Logger
}

func NewAuthService(credentials CredentialRepository, tokens *TokenService, guard *LoginGuard, failureDelay time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		credentials:  credentials,
		tokens:       tokens,
		guard:        guard,
		failureDelay: failureDelay,
		logger:       logging.OrNop(logger),
	}
}

// Login checks the lockout counter, then the credentials, and mints a session token.
// Locked-out clients get ErrRateLimited even when the credentials are correct.
func (s *AuthService) Login(ctx context.Context, clientIP, username, password string) (string, error) {
	allowed, err := s.guard.Allowed(ctx, clientIP)
	if err != nil {
		return "", fmt.Errorf("check login lockout: %w", err)
	}
	if !allowed {
		s.logger.Warn("login rejected: client locked out", zap.String("client_ip", clientIP))
		return "", ErrRateLimited
	}

	cred, err := s.credentials.Get(ctx)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNotInitialized
	}

	if !credentialsMatch(cred, username, password) {
		s.logger.Warn("failed admin login", zap.String("client_ip", clientIP))
		recordErr := s.guard.RecordFailure(ctx, clientIP)
		s.delay(ctx)
		if recordErr != nil {
			// An unrecorded failure would never count toward the lockout.
			s.logger.Error("failed to record login failure", zap.String("client_ip", clientIP), zap.Error(recordErr))
			return "", fmt.Errorf("record login failure: %w", recordErr)
		}
		return "", ErrInvalidCredentials
	}

	if err := s.guard.RecordSuccess(ctx, clientIP); err != nil {
		s.logger.Error("failed to clear login failures", zap.String("client_ip", clientIP), zap.Error(err))
	}

	token, err := s.tokens.Mint(cred.Username)
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	s.logger.Info("admin logged in", zap.String("username", cred.Username), zap.String("client_ip", clientIP))
	return token, nil
}

func credentialsMatch(cred *models.Credential, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(cred.Username), []byte(username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(password))
	return userOK && passErr == nil
}

func (s *AuthService) delay(ctx context.Context) {
	if s.failureDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.failureDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ChangeCredentials replaces the admin username and password.
func (s *AuthService) ChangeCredentials(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("username", "is required")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.credentials.Put(ctx, models.Credential{Username: username, Password: hash}); err != nil {
		return err
	}
	s.logger.Info("admin credentials changed", zap.String("username", username))
	return nil
}

// EnsureAdmin seeds the credential record on first start. An existing record is left alone.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	existing, err := s.credentials.Get(ctx)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if username == "" || password == "" {
		return false, nil
	}
	if err := s.ChangeCredentials(ctx, username, password); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}

// HashPassword returns the bcrypt hash stored in the credential record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
