package cookies

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			BaseURL:    "https://id.example.com",
			CookieName: "sb-test-auth-token",
		},
		Origins: []config.OriginConfig{
			{Name: "local", URL: "http://localhost:3000"},
			{Name: "app", URL: "https://app.squareft.ai"},
			{Name: "apex", URL: "https://squareft.ai"},
		},
	}
}

// faultyJar rejects operations on a single origin and records every attempt.
type faultyJar struct {
	inner      *MemoryJar
	failOrigin string

	mu       sync.Mutex
	attempts []string
}

func (j *faultyJar) Set(ctx context.Context, c Cookie) error {
	j.mu.Lock()
	j.attempts = append(j.attempts, c.URL)
	j.mu.Unlock()
	if c.URL == j.failOrigin {
		return errors.New("origin unreachable")
	}
	return j.inner.Set(ctx, c)
}

func (j *faultyJar) Get(ctx context.Context, originURL, name string) (*Cookie, error) {
	if originURL == j.failOrigin {
		return nil, errors.New("origin unreachable")
	}
	return j.inner.Get(ctx, originURL, name)
}

func (j *faultyJar) Remove(ctx context.Context, originURL, name string) error {
	if originURL == j.failOrigin {
		return errors.New("origin unreachable")
	}
	return j.inner.Remove(ctx, originURL, name)
}

func (j *faultyJar) attempted() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.attempts...)
}

func TestWriteSetsCookieOnAllOrigins(t *testing.T) {
	cfg := testConfig()
	jar := NewMemoryJar()
	store := NewStore(cfg, jar)

	sess := session.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	store.Write(context.Background(), sess)

	for _, origin := range cfg.Origins {
		c, err := jar.Get(context.Background(), origin.URL, cfg.Provider.CookieName)
		require.NoError(t, err)
		require.NotNil(t, c, "cookie missing on %s", origin.Name)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, "lax", c.SameSite)
		assert.Equal(t, origin.Secure(), c.Secure)
		assert.Equal(t, sess.ExpiresAt.Unix(), c.ExpirationDate)

		decoded, ok := session.Decode(c.Value)
		require.True(t, ok)
		assert.Equal(t, "at", decoded.AccessToken)
	}
}

func TestWriteIsolation(t *testing.T) {
	cfg := testConfig()
	jar := &faultyJar{inner: NewMemoryJar(), failOrigin: "https://app.squareft.ai"}
	store := NewStore(cfg, jar)

	store.Write(context.Background(), session.Session{AccessToken: "at", RefreshToken: "rt"})

	// Every origin was attempted despite the middle one failing.
	assert.ElementsMatch(t, []string{
		"http://localhost:3000",
		"https://app.squareft.ai",
		"https://squareft.ai",
	}, jar.attempted())

	// And the healthy origins actually got the cookie.
	assert.Equal(t, 2, jar.inner.Len())
}

func TestReadFirstOriginPriority(t *testing.T) {
	cfg := testConfig()
	jar := NewMemoryJar()
	store := NewStore(cfg, jar)

	local := session.Encode(session.Session{AccessToken: "local-at", RefreshToken: "local-rt"})
	prod := session.Encode(session.Session{AccessToken: "prod-at", RefreshToken: "prod-rt"})

	require.NoError(t, jar.Set(context.Background(), Cookie{
		URL: "https://app.squareft.ai", Name: cfg.Provider.CookieName, Value: prod,
	}))
	require.NoError(t, jar.Set(context.Background(), Cookie{
		URL: "http://localhost:3000", Name: cfg.Provider.CookieName, Value: local,
	}))

	res, ok := store.ReadFirst(context.Background())
	require.True(t, ok)
	assert.Equal(t, "local", res.Origin.Name)
	assert.Equal(t, "local-at", res.Session.AccessToken)
}

func TestReadFirstSkipsUndecodableAndFailedOrigins(t *testing.T) {
	cfg := testConfig()
	jar := &faultyJar{inner: NewMemoryJar(), failOrigin: "http://localhost:3000"}
	store := NewStore(cfg, jar)

	require.NoError(t, jar.inner.Set(context.Background(), Cookie{
		URL: "https://app.squareft.ai", Name: cfg.Provider.CookieName, Value: "@@garbage@@",
	}))
	require.NoError(t, jar.inner.Set(context.Background(), Cookie{
		URL:            "https://squareft.ai",
		Name:           cfg.Provider.CookieName,
		Value:          session.Encode(session.Session{AccessToken: "apex-at", RefreshToken: "apex-rt"}),
		ExpirationDate: 1757000000,
	}))

	res, ok := store.ReadFirst(context.Background())
	require.True(t, ok)
	assert.Equal(t, "apex", res.Origin.Name)
	assert.Equal(t, time.Unix(1757000000, 0), res.Session.ExpiresAt)
}

func TestReadFirstAbsent(t *testing.T) {
	store := NewStore(testConfig(), NewMemoryJar())
	_, ok := store.ReadFirst(context.Background())
	assert.False(t, ok)
}

func TestClearRemovesEverywhereAndSwallowsErrors(t *testing.T) {
	cfg := testConfig()
	jar := &faultyJar{inner: NewMemoryJar(), failOrigin: "https://squareft.ai"}
	store := NewStore(cfg, jar)

	for _, origin := range cfg.Origins {
		require.NoError(t, jar.inner.Set(context.Background(), Cookie{
			URL: origin.URL, Name: cfg.Provider.CookieName, Value: "v",
		}))
	}

	store.Clear(context.Background()) // must not panic on the failing origin

	c, err := jar.inner.Get(context.Background(), "http://localhost:3000", cfg.Provider.CookieName)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = jar.inner.Get(context.Background(), "https://app.squareft.ai", cfg.Provider.CookieName)
	require.NoError(t, err)
	assert.Nil(t, c)
}
