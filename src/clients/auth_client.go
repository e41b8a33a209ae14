package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

// AuthClient handles communication with the remote auth/registration service.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// LoginRequest carries the credentials sent to the auth service.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries credentials plus the optional profile fields.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Country  string `json:"country,omitempty"`
}

// AuthResult is the normalized successful response of login and register.
type AuthResult struct {
	Token   string `json:"token"`
	Sponsor bool   `json:"sponsor"`
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	Country string `json:"country"`
}

// NewAuthClient creates a new auth service client.
func NewAuthClient(cfg *config.Configuration) *AuthClient {
	return &AuthClient{
		baseURL: cfg.ExternalServices.AuthService.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.ExternalServices.AuthService.Timeout) * time.Second,
		},
	}
}

// Configured reports whether a base address for the auth service is set.
func (c *AuthClient) Configured() bool {
	return c.baseURL != ""
}

// Login exchanges credentials for a token and optional sponsor/profile data.
func (c *AuthClient) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	return c.post(ctx, "/login", req)
}

// Register creates an account and returns the same shape as Login.
func (c *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	return c.post(ctx, "/register", req)
}

func (c *AuthClient) post(ctx context.Context, path string, payload interface{}) (*AuthResult, error) {
	if !c.Configured() {
		return nil, models.ErrAuthUnavailable
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("url", url).Error("Failed to call auth service")
		return nil, models.ErrAuthUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(resp)
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	if result.Token == "" {
		return nil, models.ErrTokenInvalid
	}

	return &result, nil
}

// errorFromResponse maps a 4xx/5xx auth response to a human-readable error.
func (c *AuthClient) errorFromResponse(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			return fmt.Errorf("%w: %s", models.ErrAuthRequest, body.Message)
		}
		if body.Error != "" {
			return fmt.Errorf("%w: %s", models.ErrAuthRequest, body.Error)
		}
	}
	return fmt.Errorf("%w: auth service returned status %d", models.ErrAuthRequest, resp.StatusCode)
}
