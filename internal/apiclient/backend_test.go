package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agencydesk/console/internal/models"
	"github.com/agencydesk/console/internal/sessionstore"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// fakeBackend accepts only validToken on /api/agencies and rotates tokens on /auth/refresh.
type fakeBackend struct {
	server *httptest.Server
	lock   *sync.Mutex
	// refreshGate blocks the refresh endpoint until it is closed
	refreshGate   chan struct{}
	refreshFails  bool
	rejectAll     bool
	validToken    string
	refreshCalls  int
	refreshBodies []string
	refreshAuth   []string
	seenTokens    []string
	requestIDs    []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{lock: &sync.Mutex{}, validToken: "T2"}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", b.refresh)
	mux.HandleFunc("/api/agencies", b.agencies)
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func writeEnvelope(w http.ResponseWriter, status int, envelope models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func testPair(access, refresh string) models.TokenPair {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.TokenPair{
		Access:  models.AuthToken{Value: access, ExpiresAt: now.Add(15 * time.Minute)},
		Refresh: models.AuthToken{Value: refresh, ExpiresAt: now.Add(24 * time.Hour)},
	}
}

func (b *fakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.lock.Lock()
	b.refreshCalls++
	b.refreshBodies = append(b.refreshBodies, string(body))
	b.refreshAuth = append(b.refreshAuth, r.Header.Get("Authorization"))
	gate := b.refreshGate
	b.lock.Unlock()
	if gate != nil {
		<-gate
	}
	b.lock.Lock()
	fails := b.refreshFails
	b.lock.Unlock()
	if fails {
		writeEnvelope(w, http.StatusUnauthorized, models.NewFailEnvelope(401, "Invalid refresh token", nil))
		return
	}
	envelope, _ := models.NewSuccessEnvelope(map[string]any{"tokens": testPair("T2", "R2")})
	writeEnvelope(w, http.StatusOK, envelope)
}

func (b *fakeBackend) agencies(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	b.lock.Lock()
	b.seenTokens = append(b.seenTokens, auth)
	b.requestIDs = append(b.requestIDs, r.Header.Get(RequestIDHeader))
	accepted := !b.rejectAll && auth == "Bearer "+b.validToken
	b.lock.Unlock()
	if !accepted {
		writeEnvelope(w, http.StatusUnauthorized, models.NewFailEnvelope(401, "Token expired", nil))
		return
	}
	envelope, _ := models.NewSuccessEnvelope(map[string]any{"id": 1, "companyName": "Acme Staffing"})
	envelope.Metadata = models.NewSerializableOrderedMap(
		orderedmap.Pair[string, any]{Key: "page", Value: 1},
		orderedmap.Pair[string, any]{Key: "total", Value: 1},
	)
	writeEnvelope(w, http.StatusOK, envelope)
}

func (b *fakeBackend) refreshCount() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.refreshCalls
}

func (b *fakeBackend) tokens() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string{}, b.seenTokens...)
}

func (b *fakeBackend) setRefreshFails(fails bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshFails = fails
}

func newTestStore(t *testing.T, tokens *models.TokenPair) *sessionstore.Store {
	store, err := sessionstore.NewStore(sessionstore.WithRepository(sessionstore.NewInMemoryRepository()))
	require.NoError(t, err)
	if tokens != nil {
		require.NoError(t, store.SetTokens(context.Background(), *tokens))
	}
	return store
}
