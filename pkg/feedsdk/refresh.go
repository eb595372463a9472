package feedsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Refresh exchanges the ambient refresh credential for a new access token.
//
// stale is the token the caller last observed. Refreshes are serialized; if
// another caller already replaced the stored token while we waited for the
// lock, that token is returned without a network round-trip. This keeps a
// burst of concurrent 401s down to a single refresh call in practice, while
// each request's own retry-once flag bounds the worst case.
//
// On success the new token is saved to the token store and returned. On any
// failure the error wraps ErrRefreshFailed and the store is left untouched:
// clearing it is the session controller's decision, not ours.
func (c *Client) Refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, ok := c.Tokens.Load(); ok && current != stale {
		return current, nil
	}

	// Empty body; the cookie jar supplies the refresh credential.
	resp, err := c.doJSON(ctx, http.MethodPost, RefreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if tokenResp.Access == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrRefreshFailed)
	}

	if err := c.Tokens.Save(tokenResp.Access); err != nil {
		return "", fmt.Errorf("%w: failed to persist token: %w", ErrRefreshFailed, err)
	}

	c.logger.Debug("access token refreshed")
	return tokenResp.Access, nil
}
