package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenServer(t *testing.T, hits *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token request must carry basic auth")
		assert.Equal(t, "client-1", user)
		assert.Equal(t, "secret-1", pass)
		assert.Equal(t, "account_credentials", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "acct-1", r.URL.Query().Get("account_id"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"expires_in":   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testCreds() Credentials {
	return Credentials{AccountID: "acct-1", ClientID: "client-1", ClientSecret: "secret-1"}
}

func TestTokenManagerCachesToken(t *testing.T) {
	var hits atomic.Int32
	srv := testTokenServer(t, &hits, 3600)

	m := NewTokenManager(testCreds(), TokenConfig{
		TokenURL:      srv.URL,
		RefreshBuffer: 5 * time.Minute,
		Retries:       3,
	}, nil)

	ctx := context.Background()
	first, err := m.Token(ctx)
	require.NoError(t, err)
	second, err := m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "cached token must not hit the endpoint again")
}

func TestTokenManagerRefreshesInsideBuffer(t *testing.T) {
	var hits atomic.Int32
	// Expiry of 360s with a 300s buffer leaves only 60s of usable lifetime.
	srv := testTokenServer(t, &hits, 360)

	m := NewTokenManager(testCreds(), TokenConfig{
		TokenURL:      srv.URL,
		RefreshBuffer: 5 * time.Minute,
		Retries:       3,
	}, nil)

	now := time.Now()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := m.Token(ctx)
	require.NoError(t, err)

	// Advance past the buffered expiry.
	now = now.Add(2 * time.Minute)
	_, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestTokenManagerForceRefresh(t *testing.T) {
	var hits atomic.Int32
	srv := testTokenServer(t, &hits, 3600)

	m := NewTokenManager(testCreds(), TokenConfig{
		TokenURL:      srv.URL,
		RefreshBuffer: 5 * time.Minute,
		Retries:       3,
	}, nil)

	ctx := context.Background()
	first, err := m.Token(ctx)
	require.NoError(t, err)
	second, err := m.ForceRefresh(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, int32(2), hits.Load())
}

func TestTokenManagerExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewTokenManager(testCreds(), TokenConfig{
		TokenURL: srv.URL,
		Retries:  3,
	}, nil)

	_, err := m.Token(context.Background())
	require.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(3), hits.Load())
}
