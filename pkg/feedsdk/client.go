package feedsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/flocknet/flock/pkg/slogx"
)

// Fixed endpoint paths of the feed service.
const (
	RefreshPath = "/token/refresh"
	LoginPath   = "/login"
	LogoutPath  = "/logout"
	UserPath    = "/user"
)

// Client talks to the feed service. It owns the unauthenticated operations
// (login, registration, the refresh call) and the shared HTTP transport;
// authenticated traffic goes through the Gateway built on top of it.
//
// The HTTP client always carries a cookie jar: the refresh credential is an
// HTTP-only cookie that the server sets on login and reads on refresh and
// logout. The client observes only its effect (a new access token), never
// its value. Don't parse or persist the jar's contents.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore

	logger *slog.Logger

	// refreshMu serializes refresh round-trips so concurrent 401s collapse
	// into (at most) one extra call instead of a stampede.
	refreshMu sync.Mutex
}

// NewClient creates a client for the feed service at baseURL. A nil tokens
// store defaults to an in-memory one; a nil logger defaults to slog.Default.
func NewClient(baseURL string, tokens TokenStore, logger *slog.Logger) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	if logger == nil {
		logger = slog.Default()
	}

	// cookiejar.New only errors on bad options; none are passed.
	jar, _ := cookiejar.New(nil)

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:       jar,
			Timeout:   10 * time.Second,
			Transport: &slogx.Transport{Logger: logger},
		},
		Tokens: tokens,
		logger: logger,
	}
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doJSON performs a request with an optional JSON body and no Authorization
// header. Authenticated calls belong to the Gateway.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// Login authenticates with username and password. On success the access
// token is saved to the token store and the refresh cookie lands in the jar.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.doJSON(ctx, http.MethodPost, LoginPath, payload)
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := decodeJSON(resp, &loginResp, http.StatusOK); err != nil {
		return nil, err
	}

	if err := c.Tokens.Save(loginResp.Access); err != nil {
		return nil, fmt.Errorf("failed to persist access token: %w", err)
	}

	return &loginResp, nil
}
