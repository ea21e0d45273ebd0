package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrMissingFields is returned when a form is submitted with empty fields
var ErrMissingFields = errors.New("all fields are required")

// Client is the part of the backend client used for authentication
type Client interface {
	Login(ctx context.Context, req *backend.LoginRequest) (*backend.TokenResponse, error)
	Signup(ctx context.Context, req *backend.SignupRequest) (*backend.SignupResponse, error)
	SetToken(token string)
}

// SignupForm holds the signup fields
type SignupForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service keeps the bearer token in local storage and hands it to the client
type Service struct {
	client Client
	kv     storage.KV
}

// NewService creates a new auth service
func NewService(client Client, kv storage.KV) *Service {
	return &Service{client: client, kv: kv}
}

// Restore loads a stored token into the client and reports whether one exists
func (s *Service) Restore(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	s.client.SetToken(token)
	return token != "", nil
}

// Login authenticates and persists the returned token
func (s *Service) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}

	resp, err := s.client.Login(ctx, &backend.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := s.kv.Put(ctx, storage.KeyToken, []byte(resp.AccessToken)); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.client.SetToken(resp.AccessToken)

	log.Info().Str("email", email).Msg("logged in")
	return nil
}

// Signup registers an account. Nothing is stored; the user logs in next.
func (s *Service) Signup(ctx context.Context, form SignupForm) (string, error) {
	if strings.TrimSpace(form.Username) == "" || strings.TrimSpace(form.Email) == "" ||
		form.Password == "" || form.ConfirmPassword == "" {
		return "", ErrMissingFields
	}

	resp, err := s.client.Signup(ctx, &backend.SignupRequest{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("username", form.Username).Msg("signed up")
	return resp.Message, nil
}

// Logout forgets the stored token
func (s *Service) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.KeyToken); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	s.client.SetToken("")
	return nil
}

// Token returns the stored token or an empty string
func (s *Service) Token(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return string(data), nil
}

// Identity is what the token says about the signed-in user
type Identity struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry has passed
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// ParseIdentity reads the claims of a JWT without verifying its signature.
// The backend is the only party that checks tokens.
func ParseIdentity(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	var id Identity
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// ErrorMessage turns an auth failure into the inline form text
func ErrorMessage(err error) string {
	var apiErr *backend.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFields):
		return "All fields are required"
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	default:
		return backend.AuthFailed
	}
}
