package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/config"
	"github.com/patrickmn/go-cache"
)

const tokenCacheKey = "access_token"

// TokenManager caches the provider OAuth token so each refund call does
// not pay for a token exchange. The cached entry expires slightly
// before the provider-side expiry.
type TokenManager struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokens       *cache.Cache
	maxTTL       time.Duration
}

func NewTokenManager(cfg config.ProviderConfig) *TokenManager {
	maxTTL := cfg.TokenTTL
	if maxTTL == 0 {
		maxTTL = 30 * time.Minute
	}
	return &TokenManager{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
		tokens: cache.New(maxTTL, 5*time.Minute),
		maxTTL: maxTTL,
	}
}

// GetToken returns the cached token or fetches a fresh one.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	if token, found := m.tokens.Get(tokenCacheKey); found {
		return token.(string), nil
	}

	body, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling token request: %w", err)
	}

	url := fmt.Sprintf("%s/oauth/token", m.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &application.ProviderError{
			Code:       "token_exchange_failed",
			Message:    fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}

	ttl := m.maxTTL
	if expiry := time.Duration(tokenResp.ExpiresIn) * time.Second; expiry > 0 && expiry < ttl {
		// Renew a minute early so an in-flight call never carries a
		// token that expires mid-request.
		ttl = expiry - time.Minute
		if ttl <= 0 {
			ttl = expiry / 2
		}
	}
	m.tokens.Set(tokenCacheKey, tokenResp.AccessToken, ttl)

	return tokenResp.AccessToken, nil
}

// Invalidate drops the cached token, forcing a refresh on the next call.
func (m *TokenManager) Invalidate() {
	m.tokens.Delete(tokenCacheKey)
}
