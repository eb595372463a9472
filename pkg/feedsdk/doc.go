/*
Package feedsdk is the client SDK for the Flock feed service.

# Overview

The package is organized around three types:

  - Client: unauthenticated operations (login, registration, email
    verification) and the token refresh call. It owns the HTTP transport,
    including the cookie jar that carries the refresh credential.
  - Gateway: every authenticated operation. Attaches the current access
    token and transparently retries a call exactly once after a refresh
    when the server answers 401.
  - SessionController: startup session recovery, login, logout, and the
    published AuthState that route guards consume.

Typical wiring:

	tokens := feedsdk.NewMemoryTokenStore()
	client := feedsdk.NewClient("https://feed.example.com", tokens, logger)
	session := feedsdk.NewSessionController(client, authstate.NewStore())

	session.Recover(ctx) // resolves Pending into Authenticated/Anonymous

	gw := session.Gateway()
	page, err := gw.Posts(ctx, feedsdk.FeedAll, 1)

# Token lifecycle

The access token is a short-lived bearer credential persisted in a
TokenStore. The refresh credential is an HTTP-only cookie: the client never
reads or stores its value, only its effect (a new access token) is visible.

Expiry is detected client-side by decoding the token's claims without
signature verification; that is a UX optimization to skip doomed calls, not
a security boundary. The server remains authoritative.

# Retry policy

Each logical request may be auto-retried at most once. On 401 the gateway
refreshes, resends the original request with the new token, and surfaces any
second failure to the caller as *APIError. The refresh endpoint itself is
never retried, and a failed refresh tears the session down to Anonymous so
the UI can redirect to sign-in instead of hanging.

# Concurrency

All three types are safe for concurrent use. Concurrent 401s are collapsed
by serializing refreshes: a caller that lost the race reuses the token its
rival just stored.
*/
package feedsdk
