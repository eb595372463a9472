package feedsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Account creation and password reset. These run unauthenticated, before a
// session exists, so they live on the Client rather than the Gateway.

// CheckUsername reports whether a username is still available.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	path := "/check_username?" + url.Values{"username": {username}}.Encode()

	resp, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}

	var result struct {
		Available bool `json:"available"`
	}
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return false, err
	}

	return result.Available, nil
}

// SendVerification asks the server to email a verification code for the
// given flow. The server refuses a resend until the previous code expires,
// surfacing that as an *APIError.
func (c *Client) SendVerification(ctx context.Context, email string, flow Flow) error {
	payload := map[string]string{
		"email": email,
		"type":  string(flow),
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/send_verification", payload)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// VerifyEmail submits the code the user received. On success the returned
// token is single-use proof of the verified address, consumed by Register
// or ResetPassword.
func (c *Client) VerifyEmail(ctx context.Context, email, code string, flow Flow) (*VerifyEmailResponse, error) {
	payload := map[string]string{
		"email": email,
		"code":  code,
		"type":  string(flow),
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/verify_email", payload)
	if err != nil {
		return nil, err
	}

	var result VerifyEmailResponse
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return nil, err
	}

	return &result, nil
}

// Register creates an account. Validation failures carry the offending
// field name in the *APIError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/register", req)
	if err != nil {
		return "", err
	}

	var result MessageResponse
	if err := decodeJSON(resp, &result, http.StatusCreated); err != nil {
		return "", err
	}

	return result.Message, nil
}

// ResetPassword sets a new password using a verified-email token from the
// reset flow. The server revokes every outstanding session on success.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	payload := map[string]string{
		"token":                token,
		"new_password":         newPassword,
		"confirm_new_password": confirmPassword,
		"type":                 string(FlowReset),
	}

	resp, err := c.doJSON(ctx, http.MethodPatch, "/reset_password", payload)
	if err != nil {
		return err
	}

	if err := decodeJSON(resp, nil, http.StatusOK); err != nil {
		return fmt.Errorf("password reset rejected: %w", err)
	}

	return nil
}
