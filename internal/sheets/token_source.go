package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	maxResponseBytes  = 1 << 20
	tokenCacheKey     = "bearer"
	tokenExpiryLeeway = time.Minute
)

// ErrTokenExchangeRejected matches every *TokenExchangeError.
var ErrTokenExchangeRejected = errors.New("token exchange rejected")

// TokenExchangeError carries the identity provider's answer for diagnostics.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange rejected: status=%d body=%s", e.Status, e.Body)
}

func (e *TokenExchangeError) Is(target error) bool {
	return target == ErrTokenExchangeRejected
}

// Token is a bearer access token for the spreadsheet API.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

type ServiceAccount struct {
	Email      string
	PrivateKey string
	TokenURL   string
	Scope      string
}

// TokenSource turns the service account into bearer tokens. Without a cache every call
// signs a new assertion and exchanges it.
type TokenSource struct {
	account    ServiceAccount
	httpClient *http.Client
	cache      *cache.Cache
	now        func() time.Time
}

func NewTokenSource(account ServiceAccount, httpClient *http.Client, cacheTokens bool) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if account.Scope == "" {
		account.Scope = SpreadsheetsScope
	}
	ts := &TokenSource{
		account:    account,
		httpClient: httpClient,
		now:        time.Now,
	}
	if cacheTokens {
		ts.cache = cache.New(cache.NoExpiration, 10*time.Minute)
	}
	return ts
}

// Token returns a bearer token, reusing a cached one until shortly before it expires.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.cache != nil {
		if v, found := ts.cache.Get(tokenCacheKey); found {
			return v.(string), nil
		}
	}

	assertion, err := BuildAssertion(ts.account.Email, ts.account.PrivateKey, ts.account.Scope, ts.account.TokenURL, ts.now())
	if err != nil {
		return "", err
	}
	token, err := ts.ExchangeForAccessToken(ctx, assertion)
	if err != nil {
		return "", err
	}

	if ts.cache != nil && token.ExpiresIn > 0 {
		if ttl := time.Duration(token.ExpiresIn)*time.Second - tokenExpiryLeeway; ttl > 0 {
			ts.cache.Set(tokenCacheKey, token.AccessToken, ttl)
		}
	}
	return token.AccessToken, nil
}

// ExchangeForAccessToken posts a jwt-bearer grant to the token endpoint.
func (ts *TokenSource) ExchangeForAccessToken(ctx context.Context, assertion string) (Token, error) {
	data := url.Values{}
	data.Set("grant_type", jwtBearerGrant)
	data.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.account.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Token{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, &TokenExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var raw struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if raw.AccessToken == "" {
		return Token{}, &TokenExchangeError{Status: resp.StatusCode, Body: "response has no access_token"}
	}
	return Token{AccessToken: raw.AccessToken, TokenType: raw.TokenType, ExpiresIn: raw.ExpiresIn}, nil
}
