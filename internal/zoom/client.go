package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Policy controls pacing and retry behavior for remote calls. It is passed in
// explicitly so tests can inject zero sleeps.
type Policy struct {
	// RateLimitDelay is slept before every remote call to stay under the
	// account's rate limit.
	RateLimitDelay time.Duration
	// RateLimitCooldown is slept after a 429 before retrying the same
	// request. Rate-limit retries never consume a retry slot.
	RateLimitCooldown time.Duration
	// Retries bounds attempts for transient failures (5xx, connection
	// errors).
	Retries int
	// RetrySleep is the fixed sleep between transient-failure attempts.
	RetrySleep time.Duration
	// TokenRefreshSleep is slept after a forced token refresh before the
	// single post-refresh retry.
	TokenRefreshSleep time.Duration
	// Timeout applies per request.
	Timeout time.Duration
}

// Client executes remote API calls through the rate-limited, retrying
// request policy. All listing and download traffic goes through it.
type Client struct {
	baseURL string
	policy  Policy
	tokens  *TokenManager
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates an API client rooted at baseURL.
func NewClient(baseURL string, tokens *TokenManager, policy Policy, logger *slog.Logger) *Client {
	if policy.Retries < 1 {
		policy.Retries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		policy:  policy,
		tokens:  tokens,
		client:  &http.Client{Timeout: policy.Timeout},
		logger:  logger,
	}
}

// getJSON executes a GET against path and decodes the response into out.
//
// Recovery policy, in order: 429 sleeps the cooldown and retries without
// consuming a retry slot; 401 forces one token refresh and retries exactly
// once more; 5xx and connection errors consume retry slots with a fixed
// sleep between attempts; other non-2xx statuses fail immediately with
// their sentinel error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	refreshed := false
	for attempt := 0; attempt < c.policy.Retries; {
		if err := sleepCtx(ctx, c.policy.RateLimitDelay); err != nil {
			return err
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		c.logger.Debug("api request", "url", u)
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			attempt++
			if attempt < c.policy.Retries {
				if err := sleepCtx(ctx, c.policy.RetrySleep); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			c.logger.Warn("rate limited, cooling down", "url", u, "cooldown", c.policy.RateLimitCooldown)
			if err := sleepCtx(ctx, c.policy.RateLimitCooldown); err != nil {
				return err
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			if refreshed {
				return &RequestError{Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
			}
			refreshed = true
			c.logger.Warn("401 response, forcing token refresh", "url", u)
			if _, err := c.tokens.ForceRefresh(ctx); err != nil {
				return err
			}
			if err := sleepCtx(ctx, c.policy.TokenRefreshSleep); err != nil {
				return err
			}
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
			attempt++
			if attempt < c.policy.Retries {
				if err := sleepCtx(ctx, c.policy.RetrySleep); err != nil {
					return err
				}
			}
			continue
		}

		if err := checkStatus(resp.StatusCode); err != nil {
			resp.Body.Close()
			return &RequestError{Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode, Err: err}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return &RequestError{Method: http.MethodGet, URL: u, Err: lastErr}
}
