package zoom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// DownloadFile streams the file at rawURL to destPath and returns the number
// of bytes written. It applies the rate-limit delay, the 429 cooldown loop,
// and the single 401 refresh-and-retry, but deliberately performs no
// transient retries of its own: the download engine owns the per-item
// attempt budget and records it on the inventory row.
func (c *Client) DownloadFile(ctx context.Context, rawURL, destPath string) (int64, error) {
	refreshed := false
	for {
		if err := sleepCtx(ctx, c.policy.RateLimitDelay); err != nil {
			return 0, err
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return 0, &RequestError{Method: http.MethodGet, URL: rawURL, Err: err}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			c.logger.Warn("rate limited during download, cooling down", "cooldown", c.policy.RateLimitCooldown)
			if err := sleepCtx(ctx, c.policy.RateLimitCooldown); err != nil {
				return 0, err
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			if refreshed {
				return 0, &RequestError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
			}
			refreshed = true
			c.logger.Warn("401 during download, forcing token refresh")
			if _, err := c.tokens.ForceRefresh(ctx); err != nil {
				return 0, err
			}
			if err := sleepCtx(ctx, c.policy.TokenRefreshSleep); err != nil {
				return 0, err
			}
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			return 0, &RequestError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)}
		}

		if err := checkStatus(resp.StatusCode); err != nil {
			resp.Body.Close()
			return 0, &RequestError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		}

		n, err := writeFile(destPath, resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// writeFile writes body to path, creating parent directories as needed. A
// partial file from an interrupted transfer is removed so a later attempt
// starts clean.
func writeFile(path string, body io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write file: %w", err)
	}
	return n, nil
}

// AddPasscode appends the recording play passcode as a pwd query parameter.
// Passcode-protected recordings reject the bare download URL.
func AddPasscode(rawURL, passcode string) string {
	if passcode == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("pwd", passcode)
	u.RawQuery = q.Encode()
	return u.String()
}
