package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the session token payload: who logged in and when.
// No exp claim is written; age is enforced by the verifier.
type SessionClaims struct {
	Subject  string `json:"sub"`
	IssuedAt int64  `json:"iat"`
}

func (c SessionClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (c SessionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}
func (c SessionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c SessionClaims) GetIssuer() (string, error)              { return "", nil }
func (c SessionClaims) GetSubject() (string, error)             { return c.Subject, nil }
func (c SessionClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// TokenService mints and verifies HS256 admin session tokens.
type TokenService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret. A maxAge <= 0 disables the age check.
func NewTokenService(secret string, maxAge time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Mint issues a token asserting subject authenticated now.
func (s *TokenService) Mint(subject string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", ErrConfiguration)
	}
	claims := SessionClaims{Subject: subject, IssuedAt: s.now().Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify reports whether token is a valid, unexpired session token.
func (s *TokenService) Verify(token string) bool {
	_, err := s.Subject(token)
	return err == nil
}

// Subject verifies token and returns the authenticated subject.
func (s *TokenService) Subject(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", ErrConfiguration)
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return "", ErrUnauthorized
	}

	if err := s.checkAge(claims.IssuedAt); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (s *TokenService) checkAge(issuedAt int64) error {
	if issuedAt <= 0 {
		return fmt.Errorf("%w: token has no issue time", ErrUnauthorized)
	}
	age := s.now().Sub(time.Unix(issuedAt, 0))
	if age < -time.Minute {
		return fmt.Errorf("%w: token issued in the future", ErrUnauthorized)
	}
	if s.maxAge > 0 && age > s.maxAge {
		return fmt.Errorf("%w: %w", ErrUnauthorized, errTokenTooOld)
	}
	return nil
}

var errTokenTooOld = errors.New("token too old")
