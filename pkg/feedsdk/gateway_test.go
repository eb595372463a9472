package feedsdk

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flocknet/flock/pkg/authstate"
)

type testEnv struct {
	server  *httptest.Server
	tokens  *MemoryTokenStore
	state   *authstate.Store
	client  *Client
	session *SessionController
	gateway *Gateway
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := NewMemoryTokenStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := NewClient(server.URL, tokens, logger)
	state := authstate.NewStore()
	session := NewSessionController(client, state)

	gateway := session.Gateway()
	gateway.Limiter = nil // don't pace tests

	return &testEnv{
		server:  server,
		tokens:  tokens,
		state:   state,
		client:  client,
		session: session,
		gateway: gateway,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDispatchRetriesOnceAfterRefresh(t *testing.T) {
	t.Parallel()

	var apiCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{Access: "fresh-token"})
	})
	mux.HandleFunc("/newpost", func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		require.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, Post{ID: 7, Content: "hello"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("stale-token"))

	post, err := env.gateway.NewPost(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, int64(7), post.ID)

	require.Equal(t, int32(2), apiCalls.Load())
	require.Equal(t, int32(1), refreshCalls.Load())

	stored, ok := env.tokens.Load()
	require.True(t, ok)
	require.Equal(t, "fresh-token", stored)
}

func TestDispatchSurfacesSecondUnauthorized(t *testing.T) {
	t.Parallel()

	var apiCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{Access: "fresh-token"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "nope"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("stale-token"))

	_, err := env.gateway.CurrentUser(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
	require.Equal(t, "nope", apiErr.Message)

	// Original attempt plus exactly one retry, one refresh, no loop.
	require.Equal(t, int32(2), apiCalls.Load())
	require.Equal(t, int32(1), refreshCalls.Load())
}

func TestRefreshEndpointNeverRetried(t *testing.T) {
	t.Parallel()

	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh dead"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("stale-token"))

	// Even dispatched through the gateway, the refresh endpoint must not
	// trigger retry logic against itself.
	resp, err := env.gateway.Do(context.Background(), http.MethodPost, RefreshPath, nil)
	require.Nil(t, resp)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, int32(1), refreshCalls.Load())
}

func TestRefreshFailureLogsOutAndSurfacesOriginalError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh credential revoked"})
	})
	mux.HandleFunc("/get_posts/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("stale-token"))

	_, err := env.gateway.Posts(context.Background(), FeedAll, 1)

	// The caller sees the original authorization failure, not the refresh
	// error.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "token expired", apiErr.Message)

	// And the session is torn down: Anonymous, token gone.
	require.Equal(t, authstate.StatusAnonymous, env.state.Get().Status)
	_, ok := env.tokens.Load()
	require.False(t, ok)
}

func TestDispatchWithoutTokenStillFlows(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/get_posts/all", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, PostPage{Count: 0, Results: []Post{}})
	})

	env := newTestEnv(t, mux)

	page, err := env.gateway.Posts(context.Background(), FeedAll, 1)
	require.NoError(t, err)
	require.Zero(t, page.Count)
}

func TestDispatchNonAuthErrorsPassThrough(t *testing.T) {
	t.Parallel()

	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{Access: "fresh-token"})
	})
	mux.HandleFunc("/newpost", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Content cannot be empty."})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("good-token"))

	_, err := env.gateway.NewPost(context.Background(), "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Content cannot be empty.", apiErr.Message)

	// 400 is the caller's problem, not a token problem.
	require.Zero(t, refreshCalls.Load())
}

func TestConcurrentUnauthorizedCollapsesToOneRefresh(t *testing.T) {
	t.Parallel()

	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, TokenResponse{Access: "fresh-token"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, authstate.Identity{Username: "alice", IsAuthenticated: true})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("stale-token"))

	const callers = 5
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.gateway.CurrentUser(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every loser of the refresh race reuses the winner's token instead of
	// issuing its own round-trip.
	require.Equal(t, int32(1), refreshCalls.Load())
}
