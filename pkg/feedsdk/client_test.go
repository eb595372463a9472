package feedsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func readBody(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

func TestLoginSavesTokenAndRefreshCookieTravels(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, readBody(r, &creds))
		require.Equal(t, "alice", creds["username"])
		require.Equal(t, "hunter2", creds["password"])

		http.SetCookie(w, &http.Cookie{
			Name:     "refresh",
			Value:    "opaque-refresh-credential",
			Path:     "/",
			HttpOnly: true,
		})
		writeJSON(w, http.StatusOK, LoginResponse{
			Access:   "access-1",
			Username: "alice",
			Message:  "Login successful",
		})
	})
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		// The jar must replay the cookie from login; the client itself
		// never touches it.
		cookie, err := r.Cookie("refresh")
		require.NoError(t, err)
		require.Equal(t, "opaque-refresh-credential", cookie.Value)
		writeJSON(w, http.StatusOK, TokenResponse{Access: "access-2"})
	})

	env := newTestEnv(t, mux)

	resp, err := env.client.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "alice", resp.Username)

	stored, ok := env.tokens.Load()
	require.True(t, ok)
	require.Equal(t, "access-1", stored)

	token, err := env.client.Refresh(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	})

	env := newTestEnv(t, mux)

	_, err := env.client.Login(context.Background(), "alice", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid credentials", apiErr.Message)

	_, ok := env.tokens.Load()
	require.False(t, ok, "failed login must not store a token")
}

func TestRefreshReusesNewerToken(t *testing.T) {
	t.Parallel()

	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeJSON(w, http.StatusOK, TokenResponse{Access: "from-network"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("already-rotated"))

	// A caller that observed an older token gets the stored one back
	// without a round trip.
	token, err := env.client.Refresh(context.Background(), "stale")
	require.NoError(t, err)
	require.Equal(t, "already-rotated", token)
	require.Zero(t, refreshCalls)

	// A caller holding the current token forces the real refresh.
	token, err = env.client.Refresh(context.Background(), "already-rotated")
	require.NoError(t, err)
	require.Equal(t, "from-network", token)
	require.Equal(t, 1, refreshCalls)
}

func TestRefreshFailureWrapsSentinel(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired"})
	})

	env := newTestEnv(t, mux)
	require.NoError(t, env.tokens.Save("current"))

	_, err := env.client.Refresh(context.Background(), "current")
	require.ErrorIs(t, err, ErrRefreshFailed)
}

func TestCheckUsername(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/check_username", func(w http.ResponseWriter, r *http.Request) {
		available := r.URL.Query().Get("username") != "alice"
		writeJSON(w, http.StatusOK, map[string]bool{"available": available})
	})

	env := newTestEnv(t, mux)

	available, err := env.client.CheckUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, available)

	available, err = env.client.CheckUsername(context.Background(), "newcomer")
	require.NoError(t, err)
	require.True(t, available)
}

func TestRegisterFlow(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/send_verification", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, readBody(r, &req))
		require.Equal(t, "alice@example.com", req["email"])
		require.Equal(t, "register", req["type"])
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Verification email sent"})
	})
	mux.HandleFunc("/verify_email", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, readBody(r, &req))
		require.Equal(t, "123456", req["code"])
		writeJSON(w, http.StatusOK, VerifyEmailResponse{
			Message:  "Email verified",
			Verified: true,
			Token:    "signup-grant",
		})
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		require.NoError(t, readBody(r, &req))
		require.Equal(t, "signup-grant", req.Token)
		require.Equal(t, req.Password, req.ConfirmPassword)
		writeJSON(w, http.StatusCreated, MessageResponse{Message: "Account created"})
	})

	env := newTestEnv(t, mux)
	ctx := context.Background()

	require.NoError(t, env.client.SendVerification(ctx, "alice@example.com", FlowRegister))

	verification, err := env.client.VerifyEmail(ctx, "alice@example.com", "123456", FlowRegister)
	require.NoError(t, err)
	require.True(t, verification.Verified)

	msg, err := env.client.Register(ctx, RegisterRequest{
		Username:        "alice",
		Password:        "hunter2hunter2",
		ConfirmPassword: "hunter2hunter2",
		Token:           verification.Token,
	})
	require.NoError(t, err)
	require.Equal(t, "Account created", msg)
}

func TestResetPasswordValidationError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/reset_password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Password too short",
			"field": "password",
		})
	})

	env := newTestEnv(t, mux)

	err := env.client.ResetPassword(context.Background(), "reset-grant", "short", "short")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "password", apiErr.Field)
	require.False(t, apiErr.Unauthorized())
	require.False(t, errors.Is(err, ErrRefreshFailed))
}
