package feedsdk

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/flocknet/flock/pkg/authstate"
	"github.com/flocknet/flock/pkg/jwtx"
)

// SessionController orchestrates the session lifecycle: startup recovery,
// login, and logout. It is the only writer of the AuthState store and the
// only component allowed to clear the token store.
type SessionController struct {
	mu sync.Mutex

	client  *Client
	gateway *Gateway
	state   *authstate.Store
	logger  *slog.Logger
}

// NewSessionController builds a controller plus the request gateway feature
// code should use. The gateway reports unrecoverable authorization failures
// back here so a dead session always resolves into Anonymous.
func NewSessionController(client *Client, state *authstate.Store) *SessionController {
	sc := &SessionController{
		client:  client,
		gateway: NewGateway(client),
		state:   state,
		logger:  client.logger,
	}
	sc.gateway.onAuthFailure = sc.expire
	return sc
}

// Gateway returns the request gateway wired to this controller.
func (sc *SessionController) Gateway() *Gateway { return sc.gateway }

// State returns the AuthState store guards subscribe to.
func (sc *SessionController) State() *authstate.Store { return sc.state }

// Recover rebuilds the session from the persisted token. Run once at
// startup: AuthState stays Pending for the whole routine and flips exactly
// once to Authenticated or Anonymous.
//
// No stored token resolves to Anonymous without any network traffic. A
// malformed token is treated the same as an expired one that fails to
// refresh: discard and resolve Anonymous.
func (sc *SessionController) Recover(ctx context.Context) {
	token, ok := sc.client.Tokens.Load()
	if !ok {
		sc.state.Set(authstate.Anonymous())
		return
	}

	claims, err := jwtx.Decode(token)
	if err != nil {
		sc.logger.Warn("stored token is malformed, discarding", "error", err)
		sc.expire(ctx)
		return
	}

	if claims.Expired(time.Now()) {
		if _, err := sc.client.Refresh(ctx, token); err != nil {
			sc.logger.Warn("session refresh failed", "error", err)
			sc.expire(ctx)
			return
		}
	}

	identity, err := sc.gateway.CurrentUser(ctx)
	if err != nil {
		sc.logger.Warn("identity fetch failed", "error", err)
		sc.expire(ctx)
		return
	}

	sc.state.Set(authstate.Authenticated(*identity))
	sc.logger.Info("session recovered", "username", identity.Username)
}

// Login publishes an authenticated session from a successful login
// response. The identity comes from the login payload; the token has
// already been persisted by Client.Login, saving again here keeps the
// controller correct for embedders that obtained the token elsewhere.
func (sc *SessionController) Login(identity authstate.Identity, token string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.client.Tokens.Save(token); err != nil {
		return err
	}

	sc.state.Set(authstate.Authenticated(identity))
	return nil
}

// Logout ends the session. Idempotent: when the state is already Anonymous
// this is a no-op with no network traffic.
//
// The server-side logout is best-effort; a failure is logged and never
// blocks local teardown, otherwise a client with a dead token could be
// stuck "authenticated" forever. Local state is always torn down.
func (sc *SessionController) Logout(ctx context.Context) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	st := sc.state.Get()
	if st.Status == authstate.StatusAnonymous {
		return
	}

	if st.Status == authstate.StatusAuthenticated {
		if err := sc.serverLogout(ctx); err != nil {
			sc.logger.Warn("logout request failed", "error", err)
		}
	}

	sc.expireLocked()
}

// serverLogout posts the logout endpoint once, bearer attached, bypassing
// the gateway's retry logic: refreshing a session we're about to destroy
// makes no sense.
func (sc *SessionController) serverLogout(ctx context.Context) error {
	token, _ := sc.client.Tokens.Load()

	resp, err := sc.gateway.send(ctx, &pendingRequest{
		method:  http.MethodPost,
		path:    LogoutPath,
		retried: true,
	}, token)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// expire tears the session down locally: used for logout and for any
// unrecoverable auth failure reported by the gateway.
func (sc *SessionController) expire(ctx context.Context) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.expireLocked()
}

// expireLocked publishes Anonymous before clearing the token slot, so no
// observer can ever see an Authenticated state with an empty store. A
// most-recent-write-wins store makes the duplicate publish on racing
// callers harmless.
func (sc *SessionController) expireLocked() {
	if sc.state.Get().Status == authstate.StatusAnonymous {
		return
	}

	sc.state.Set(authstate.Anonymous())
	if err := sc.client.Tokens.Clear(); err != nil {
		sc.logger.Error("failed to clear token store", "error", err)
	}
}
