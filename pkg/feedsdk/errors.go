package feedsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrRefreshFailed marks a failed token refresh: network error or any
// non-success response from the refresh endpoint. The refresh client never
// clears the token itself; the session controller decides what to do.
var ErrRefreshFailed = errors.New("feedsdk: token refresh failed")

// APIError is any non-success response surfaced to feature code. After the
// gateway's single retry attempt, whatever the server said comes through
// here unchanged.
type APIError struct {
	// StatusCode is the HTTP status of the failing response.
	StatusCode int

	// Message is the server's human-readable error when the body carried
	// one ({"error": ...} or {"detail": ...}), empty otherwise.
	Message string

	// Field names the offending input field for validation failures
	// ({"field": ..., "error": ...}), empty otherwise.
	Field string

	// Body is the raw response body, kept for callers that need more than
	// the parsed message.
	Body []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unauthorized reports whether the error is an authorization failure.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// newAPIError builds an APIError from a response body, parsing the error
// shapes the server actually produces.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}

	var parsed struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error != "":
			apiErr.Message = parsed.Error
		case parsed.Detail != "":
			apiErr.Message = parsed.Detail
		case parsed.Message != "":
			apiErr.Message = parsed.Message
		}
		apiErr.Field = parsed.Field
	}

	return apiErr
}

// decodeJSON decodes a JSON response into target, or returns an *APIError
// when the status isn't the expected one. A nil target discards the body.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return newAPIError(resp.StatusCode, body)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
