package feedsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/flocknet/flock/pkg/slogx"
)

// Gateway wraps every authenticated outbound call. It attaches the current
// access token as a bearer credential and, on an authorization failure,
// performs exactly one refresh-and-retry per originating call.
//
// Feature code (feed, profile, posts) talks to the service only through
// here; it never touches the token store or the refresh client directly.
type Gateway struct {
	client *Client
	logger *slog.Logger

	// Limiter paces outbound calls so a misbehaving loop in feature code
	// can't hammer the service. Nil disables pacing.
	Limiter *rate.Limiter

	// onAuthFailure is invoked when a 401-triggered refresh fails, i.e. the
	// session is unrecoverable. Wired to the session controller's expiry
	// handling.
	onAuthFailure func(context.Context)
}

// NewGateway builds a Gateway over the client with a default politeness
// limit on outbound calls.
func NewGateway(client *Client) *Gateway {
	return &Gateway{
		client:  client,
		logger:  client.logger,
		Limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// pendingRequest is one logical outbound call. The request is rebuilt from
// these parts for each attempt, and the one-shot retried flag guarantees a
// second authorization failure surfaces to the caller instead of looping.
type pendingRequest struct {
	method  string
	path    string
	body    []byte
	retried bool
}

// Do dispatches an authenticated request with an optional JSON payload.
//
// A missing token is not an error here: endpoints that allow anonymous
// reads still flow through, and the server decides. The refresh endpoint is
// never retried, which keeps the recovery path from recursing into itself.
//
// The returned response may carry any status except 401; authorization
// failures that survive the single retry come back as *APIError.
func (g *Gateway) Do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = data
	}

	return g.dispatch(ctx, &pendingRequest{method: method, path: path, body: body})
}

func (g *Gateway) dispatch(ctx context.Context, pr *pendingRequest) (*http.Response, error) {
	ctx = slogx.WithContext(ctx, g.logger)

	token, _ := g.client.Tokens.Load()

	resp, err := g.send(ctx, pr, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Never retry the refresh endpoint, and never retry twice.
	if pr.path == RefreshPath || pr.retried {
		return nil, unauthorizedError(resp)
	}

	// Flag before the retry is issued so a concurrent path can't re-enter.
	pr.retried = true

	newToken, refreshErr := g.client.Refresh(ctx, token)
	if refreshErr != nil {
		g.logger.Warn("refresh after unauthorized response failed",
			"path", pr.path, "error", refreshErr)
		if g.onAuthFailure != nil {
			g.onAuthFailure(ctx)
		}
		// Surface the original authorization failure, not the refresh
		// error: the caller issued an API request, not a refresh.
		return nil, unauthorizedError(resp)
	}

	drain(resp)

	g.logger.Debug("retrying request with refreshed token", "path", pr.path)

	retryResp, err := g.send(ctx, pr, newToken)
	if err != nil {
		return nil, err
	}
	if retryResp.StatusCode == http.StatusUnauthorized {
		return nil, unauthorizedError(retryResp)
	}

	return retryResp, nil
}

// send performs a single attempt, building a fresh request so the body and
// headers are clean on retry.
func (g *Gateway) send(ctx context.Context, pr *pendingRequest, token string) (*http.Response, error) {
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, pr.method, g.client.url(pr.path), bytes.NewReader(pr.body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if pr.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// unauthorizedError consumes the response and converts it into the
// *APIError surfaced for authorization failures.
func unauthorizedError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return newAPIError(resp.StatusCode, body)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
