package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidToken indicates the provider rejected the session token
var ErrInvalidToken = errors.New("invalid session token")

// Roles the provider assigns within an organization
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Identity is the verified caller of a request
type Identity struct {
	UserID string `json:"user_id"`
	// OrganizationID is the caller's active organization, empty for job seekers
	OrganizationID string `json:"organization_id,omitempty"`
	Role           string `json:"role,omitempty"`
}

// IsOrgAdmin reports whether the caller administers their active organization
func (i *Identity) IsOrgAdmin() bool {
	return i.OrganizationID != "" && i.Role == RoleAdmin
}

// Client calls the identity provider's backend API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient constructs a Client
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, HTTPClient: httpClient}
}

// VerifyToken asks the provider to verify a session token and returns the
// caller's identity. A token the provider rejects yields ErrInvalidToken.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}

	url := c.BaseURL + "/v1/sessions/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return nil, ErrInvalidToken
	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identity provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if identity.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &identity, nil
}
