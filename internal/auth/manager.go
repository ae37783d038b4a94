// Package auth manages the shared downstream credential: acquisition from the
// BSS credential authority, in-memory caching, and proactive refresh.
package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
)

const (
	// tokenLifetime is the assumed validity of an issued token. The authority
	// does not report an expiry, so a conservative fixed lifetime is used.
	tokenLifetime = 24 * time.Hour

	// tokenExpiryBuffer is how long before expiry a token is treated as stale.
	tokenExpiryBuffer = 5 * time.Minute

	// refreshInterval is how often the background loop checks the cached token.
	refreshInterval = time.Hour

	// acquireTimeout bounds a single acquisition call to the authority.
	acquireTimeout = 10 * time.Second
)

// tokenRecord is the cached credential. Replaced as a unit on every
// successful acquisition; never mutated in place.
type tokenRecord struct {
	token     string
	expiresAt time.Time
}

// TokenStatus is the read-only introspection result used by health reporting.
type TokenStatus struct {
	HasToken  bool   `json:"hasToken"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	TTL       int64  `json:"ttl,omitempty"`
}

// authResponse is the credential authority's login response.
// Sucesso 0 means success; any other value is a rejected login.
type authResponse struct {
	Sucesso   int    `json:"sucesso"`
	Transacao string `json:"transacao"`
	Resultado string `json:"resultado"`
	Token     string `json:"token"`
}

// Manager owns the token lifecycle for the single shared BSS credential.
// Concurrent callers requesting a token while none is cached attach to one
// in-flight acquisition; the cache and the flight handle are the only shared
// mutable state and both are owned exclusively by the Manager.
type Manager struct {
	authURL    string
	email      string
	password   string
	httpClient *http.Client

	// now is replaceable in tests to control expiry evaluation.
	now func() time.Time

	// refreshEvery is refreshInterval in production; shortened in tests.
	refreshEvery time.Duration

	mu    sync.RWMutex
	cache *tokenRecord

	group singleflight.Group

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a token manager for the given credential authority.
func NewManager(authURL, email, password string) *Manager {
	return &Manager{
		authURL:  authURL,
		email:    email,
		password: password,
		httpClient: &http.Client{
			Timeout: acquireTimeout,
		},
		now:          time.Now,
		refreshEvery: refreshInterval,
		stopCh:       make(chan struct{}),
	}
}

// Start performs a best-effort initial acquisition and launches the periodic
// refresh loop. An initial failure is logged, not fatal: the next caller
// triggers a fresh attempt on demand.
func (m *Manager) Start() {
	if _, err := m.GetValidToken(); err != nil {
		logger.Warnw("Initial token acquisition failed, will retry on demand", "error", err.Error())
	} else {
		logger.Infow("Initial token acquired")
	}

	m.wg.Add(1)
	go m.refreshLoop()
}

// Stop terminates the refresh loop. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()
}

// GetValidToken returns a token valid for at least the expiry buffer,
// acquiring a new one when needed. Concurrent callers share a single
// acquisition and observe the same token or the same failure.
func (m *Manager) GetValidToken() (string, error) {
	if token, ok := m.cachedToken(); ok {
		return token, nil
	}

	v, err, _ := m.group.Do("bss-token", func() (any, error) {
		// Double-check after winning the flight: another caller may have
		// refreshed the cache while we waited for the slot.
		if token, ok := m.cachedToken(); ok {
			return token, nil
		}
		return m.acquire()
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// ForceRefresh discards the cached token and any in-flight acquisition, then
// acquires a fresh token synchronously for the caller.
func (m *Manager) ForceRefresh() error {
	logger.Infow("Forcing token refresh")

	m.clearCache()
	m.group.Forget("bss-token")

	_, err := m.GetValidToken()
	return err
}

// Status reports the cached token's state. It never triggers acquisition and
// is safe to call at any frequency.
func (m *Manager) Status() TokenStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cache == nil {
		return TokenStatus{}
	}

	return TokenStatus{
		HasToken:  true,
		ExpiresAt: m.cache.expiresAt.UTC().Format(time.RFC3339),
		TTL:       int64(m.cache.expiresAt.Sub(m.now()) / time.Second),
	}
}

// cachedToken returns the cached token if it is still outside the expiry
// buffer.
func (m *Manager) cachedToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cache == nil {
		return "", false
	}
	if !m.now().Before(m.cache.expiresAt.Add(-tokenExpiryBuffer)) {
		return "", false
	}

	return m.cache.token, true
}

func (m *Manager) clearCache() {
	m.mu.Lock()
	m.cache = nil
	m.mu.Unlock()
}

// acquire performs the login call to the credential authority. Any failure
// clears the cache so the next attempt starts clean.
func (m *Manager) acquire() (string, error) {
	logger.Infow("Requesting token from credential authority")

	form := url.Values{}
	form.Set("email", m.email)
	form.Set("senha", m.password)

	req, err := http.NewRequest(http.MethodPost, m.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		m.clearCache()
		return "", bfferrors.Internal("failed to build credential request", nil).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.clearCache()
		return "", bfferrors.Integration(
			"cannot connect to credential authority",
			map[string]any{"error": err.Error()},
		).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.clearCache()
		return "", bfferrors.Unauthenticated(
			"credential authority rejected login",
			map[string]any{"status": resp.StatusCode},
		)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		m.clearCache()
		return "", bfferrors.Unauthenticated("invalid credential authority response", nil).WithCause(err)
	}

	if auth.Sucesso != 0 || auth.Token == "" {
		m.clearCache()
		logger.Errorw("Authentication failed",
			"sucesso", auth.Sucesso,
			"resultado", auth.Resultado)

		message := auth.Resultado
		if message == "" {
			message = "invalid credential authority response"
		}
		return "", bfferrors.Unauthenticated(
			"authentication failed: "+message,
			map[string]any{"sucesso": auth.Sucesso},
		)
	}

	expiresAt := m.now().Add(tokenLifetime)

	m.mu.Lock()
	m.cache = &tokenRecord{token: auth.Token, expiresAt: expiresAt}
	m.mu.Unlock()

	logger.Infow("Token acquired",
		"transacao", auth.Transacao,
		"expiresAt", expiresAt.UTC().Format(time.RFC3339))

	return auth.Token, nil
}

// refreshLoop proactively refreshes the token when it enters the expiry
// buffer so foreground requests don't pay the acquisition latency. Failures
// are logged and swallowed; the loop itself never stops on error.
func (m *Manager) refreshLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if _, ok := m.cachedToken(); ok {
				continue
			}
			if _, err := m.GetValidToken(); err != nil {
				logger.Errorw("Scheduled token refresh failed", "error", err.Error())
			}
		}
	}
}
