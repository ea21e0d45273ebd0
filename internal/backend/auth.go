package backend

import (
	"context"
	"errors"
	"fmt"
)

// AuthFailed is shown when the backend gives no reason for a rejected login
const AuthFailed = "Authentication failed"

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignupResponse is returned by a successful signup
type SignupResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.postJSON(ctx, "/auth/login", req, &resp); err != nil {
		return nil, authError(err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response has no access token")
	}
	return &resp, nil
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	var resp SignupResponse
	if err := c.postJSON(ctx, "/auth/signup", req, &resp); err != nil {
		return nil, authError(err)
	}
	return &resp, nil
}

// authError replaces a missing or non-JSON detail with the generic message
func authError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Detail == "" || !apiErr.fromDetail {
		return &APIError{StatusCode: apiErr.StatusCode, Detail: AuthFailed}
	}
	return apiErr
}
