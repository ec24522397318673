package sheets

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
)

const (
	// Scope grants read and write access to spreadsheets
	Scope = "https://www.googleapis.com/auth/spreadsheets"

	// DefaultTokenURL is Google's OAuth2 token endpoint
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime  = time.Hour
	refreshMargin      = time.Minute
)

// TokenSource provides bearer tokens for the Sheets API
//
//go:generate mockgen -source=token.go -destination=../mocks/token_source.go -package=mocks -mock_names=TokenSource=MockTokenSource
type TokenSource interface {
	// Token returns a valid access token or a *domain.AuthError
	Token(ctx context.Context) (string, error)
}

// ServiceAccount holds the fields of a Google service account key file used for signing
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
}

// ParseServiceAccount decodes a service account key file
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("failed to decode service account: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, errors.New("service account is missing client_email or private_key")
	}
	return &sa, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenProvider exchanges a signed service account assertion for an access token
type TokenProvider struct {
	account  *ServiceAccount
	key      *rsa.PrivateKey
	tokenURL string
	http     adapter.HTTPClient
	clock    adapter.Clock

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewTokenProvider creates a token provider from service account credentials.
// Unusable credentials are reported as *domain.AuthError.
func NewTokenProvider(credentials []byte, tokenURL string, httpClient adapter.HTTPClient, clock adapter.Clock) (*TokenProvider, error) {
	account, err := ParseServiceAccount(credentials)
	if err != nil {
		return nil, &domain.AuthError{Err: err}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, &domain.AuthError{Err: fmt.Errorf("failed to parse private key: %w", err)}
	}

	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &TokenProvider{
		account:  account,
		key:      key,
		tokenURL: tokenURL,
		http:     httpClient,
		clock:    clock,
	}, nil
}

// Token returns the cached access token, authenticating again shortly before it expires
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if p.accessToken != "" && now.Before(p.expiresAt.Add(-refreshMargin)) {
		return p.accessToken, nil
	}

	assertion, err := p.signAssertion(now)
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := p.http.Do(ctx, http.MethodPost, p.tokenURL, header, []byte(form.Encode()))
	if err != nil {
		return "", &domain.AuthError{Err: fmt.Errorf("token exchange failed: %w", err)}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &domain.AuthError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if resp.AccessToken == "" {
		return "", &domain.AuthError{Err: errors.New("token response has no access_token")}
	}
	if resp.TokenType != "" && !strings.EqualFold(resp.TokenType, "bearer") {
		return "", &domain.AuthError{Err: fmt.Errorf("unsupported token type %q", resp.TokenType)}
	}

	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = assertionLifetime
	}
	p.accessToken = resp.AccessToken
	p.expiresAt = now.Add(lifetime)

	logger.DebugCtx(ctx, "obtained sheets access token",
		zap.String("client_email", p.account.ClientEmail),
		zap.Time("expires_at", p.expiresAt))

	return p.accessToken, nil
}

// signAssertion builds the RS256 JWT bearer assertion
func (p *TokenProvider) signAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   p.account.ClientEmail,
		"scope": Scope,
		"aud":   p.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if p.account.PrivateKeyID != "" {
		token.Header["kid"] = p.account.PrivateKeyID
	}

	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
