package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Credentials are the server-to-server OAuth credentials for the account.
type Credentials struct {
	AccountID    string
	ClientID     string
	ClientSecret string
}

// TokenConfig controls token refresh behavior.
type TokenConfig struct {
	// TokenURL is the OAuth token endpoint.
	TokenURL string
	// RefreshBuffer refreshes the token this long before its actual expiry,
	// so a token never goes stale mid-request.
	RefreshBuffer time.Duration
	// Retries bounds refresh attempts before giving up with ErrAuth.
	Retries int
	// RetrySleep is the fixed sleep between failed refresh attempts.
	RetrySleep time.Duration
	// Timeout for the token endpoint call.
	Timeout time.Duration
}

// TokenManager caches a bearer token and refreshes it proactively. Access is
// serialized so concurrent callers never race a refresh.
type TokenManager struct {
	creds  Credentials
	cfg    TokenConfig
	client *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

// NewTokenManager creates a TokenManager. The first Token call performs the
// initial fetch.
func NewTokenManager(creds Credentials, cfg TokenConfig, logger *slog.Logger) *TokenManager {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		creds:  creds,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a valid bearer token, refreshing when the cached token's
// remaining lifetime is inside the refresh buffer.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}
	return m.refreshLocked(ctx)
}

// ForceRefresh discards the cached token and fetches a fresh one. Used by the
// request executor after a 401.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (m *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	m.logger.Info("refreshing access token")

	var lastErr error
	for attempt := 0; attempt < m.cfg.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, m.cfg.RetrySleep); err != nil {
				return "", err
			}
		}

		tok, err := m.fetch(ctx)
		if err != nil {
			lastErr = err
			m.logger.Warn("token refresh attempt failed",
				"attempt", attempt+1, "retries", m.cfg.Retries, "error", err)
			continue
		}

		m.token = tok.AccessToken
		expiresIn := time.Duration(tok.ExpiresIn) * time.Second
		if expiresIn == 0 {
			expiresIn = time.Hour
		}
		m.expiresAt = m.now().Add(expiresIn - m.cfg.RefreshBuffer)
		m.logger.Info("access token refreshed", "expires_at", m.expiresAt)
		return m.token, nil
	}

	return "", fmt.Errorf("%w: %v", ErrAuth, lastErr)
}

func (m *TokenManager) fetch(ctx context.Context) (*tokenResponse, error) {
	q := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {m.creds.AccountID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(m.creds.ClientID, m.creds.ClientSecret)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned empty access token")
	}
	return &tok, nil
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
