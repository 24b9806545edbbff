// Package auth manages the bearer credential for the Flow LLM gateway:
// fetch, cache to disk, validate expiry, refresh.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer is the safety margin before the exp claim at which a token is
// already treated as expired.
const ExpiryBuffer = 300 * time.Second

const appToAccess = "llm-api"

// ErrNoToken is returned when no valid token can be obtained and nothing is
// cached on disk.
var ErrNoToken = errors.New("auth: could not obtain a valid token")

// TokenProvider yields a bearer token for outbound gateway calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// tokenRecord is the provider response persisted verbatim to the cache file.
// Fields beyond access_token are kept so the file round-trips whatever the
// provider sent.
type tokenRecord map[string]any

func (r tokenRecord) accessToken() (string, bool) {
	v, ok := r["access_token"].(string)
	return v, ok && v != ""
}

// TokenManager caches the gateway credential on disk and refreshes it before
// expiry. If a refresh fails it falls back to the cached token even when that
// token is already expired; availability is preferred over strict freshness.
type TokenManager struct {
	CachePath    string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Tenant       string

	HTTPClient *http.Client
	Now        func() time.Time // test hook
}

func NewTokenManager(cachePath, tokenURL, clientID, clientSecret, tenant string) *TokenManager {
	return &TokenManager{
		CachePath:    cachePath,
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Tenant:       tenant,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Now:          time.Now,
	}
}

// Token returns a valid access token, refreshing it when necessary.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	rec := m.readCache()

	if !m.valid(rec) {
		log.Printf("[token] cached token missing or expiring, fetching new one")
		fresh, err := m.fetch(ctx)
		if err != nil {
			log.Printf("[token] refresh failed: %v", err)
			if tok, ok := rec.accessToken(); ok {
				log.Printf("[token] reusing cached token even though it may be expired")
				return tok, nil
			}
			return "", fmt.Errorf("%w: %v", ErrNoToken, err)
		}
		if err := m.writeCache(fresh); err != nil {
			log.Printf("[token] could not persist token cache: %v", err)
		}
		rec = fresh
	}

	tok, ok := rec.accessToken()
	if !ok {
		return "", ErrNoToken
	}
	return tok, nil
}

// valid reports whether the record holds a token whose exp claim is more than
// ExpiryBuffer in the future. The signature is never verified; the issuer is
// trusted out-of-band.
func (m *TokenManager) valid(rec tokenRecord) bool {
	tok, ok := rec.accessToken()
	if !ok {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.After(m.now().Add(ExpiryBuffer))
}

func (m *TokenManager) fetch(ctx context.Context) (tokenRecord, error) {
	payload, _ := json.Marshal(map[string]string{
		"clientId":     m.ClientID,
		"clientSecret": m.ClientSecret,
		"appToAccess":  appToAccess,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("FlowTenant", m.Tenant)

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var rec tokenRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if _, ok := rec.accessToken(); !ok {
		return nil, errors.New("token response missing access_token")
	}
	return rec, nil
}

// readCache tolerates a missing or corrupt cache file by treating it as absent.
func (m *TokenManager) readCache() tokenRecord {
	data, err := os.ReadFile(m.CachePath)
	if err != nil {
		return nil
	}
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	return rec
}

func (m *TokenManager) writeCache(rec tokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(m.CachePath, data, 0o600)
}

func (m *TokenManager) httpClient() *http.Client {
	if m.HTTPClient != nil {
		return m.HTTPClient
	}
	return http.DefaultClient
}

func (m *TokenManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
