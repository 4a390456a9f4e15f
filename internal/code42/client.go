// Package code42 is a client for the subset of the Code42 REST API used by
// the connector: users, departing-employee detection lists, and alerts.
package code42

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tombee/code42-connector/internal/transport"
)

// Authentication modes.
const (
	// AuthLocalAccount exchanges a username/password for a v3 user token.
	AuthLocalAccount = "local_account"

	// AuthAPIClient uses OAuth2 client credentials (client id/secret).
	AuthAPIClient = "api_client"
)

// Config holds configuration for a Client.
type Config struct {
	// Transport executes HTTP requests (required)
	Transport transport.Transport

	// CloudInstance is the Code42 console host, e.g. "console.us.code42.com".
	// A scheme may be included; https is assumed otherwise.
	CloudInstance string

	// Username is the local account username or API client id
	Username string

	// Password is the local account password or API client secret
	Password string

	// AuthType selects AuthLocalAccount (default) or AuthAPIClient
	AuthType string
}

// Client talks to the Code42 API.
type Client struct {
	transport transport.Transport
	baseURL   string
	auth      authenticator

	mu       sync.Mutex
	tenantID string

	Users             *UsersService
	DetectionLists    *DetectionListsService
	DepartingEmployee *DepartingEmployeeService
	Alerts            *AlertsService
}

// NewClient creates a Code42 client. No network calls are made until the
// first API method is invoked.
func NewClient(config *Config) (*Client, error) {
	if config.Transport == nil {
		return nil, fmt.Errorf("transport is required for Code42 client")
	}
	if config.CloudInstance == "" {
		return nil, fmt.Errorf("cloud instance is required for Code42 client")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("username is required for Code42 client")
	}
	if config.Password == "" {
		return nil, fmt.Errorf("password is required for Code42 client")
	}

	c := &Client{
		transport: config.Transport,
		baseURL:   BaseURL(config.CloudInstance),
	}

	switch config.AuthType {
	case "", AuthLocalAccount:
		c.auth = newLocalAccountAuth(c, config.Username, config.Password)
	case AuthAPIClient:
		c.auth = newAPIClientAuth(c, config.Username, config.Password)
	default:
		return nil, fmt.Errorf("unsupported auth type %q (must be %s or %s)", config.AuthType, AuthLocalAccount, AuthAPIClient)
	}

	c.Users = &UsersService{client: c}
	c.DetectionLists = &DetectionListsService{client: c}
	c.DepartingEmployee = &DepartingEmployeeService{client: c}
	c.Alerts = &AlertsService{client: c}

	return c, nil
}

// BaseURL normalizes a cloud instance host into an https base URL.
func BaseURL(cloudInstance string) string {
	host := strings.TrimRight(strings.TrimSpace(cloudInstance), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

// TenantID returns the tenant UID of the authenticated account.
// The value is fetched once and cached for the lifetime of the client.
func (c *Client) TenantID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tenantID != "" {
		return c.tenantID, nil
	}

	var resp struct {
		Data struct {
			TenantUID string `json:"tenantUid"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/c42api/v3/customer/my", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get tenant id: %w", err)
	}
	if resp.Data.TenantUID == "" {
		return "", fmt.Errorf("failed to get tenant id: response had no tenantUid")
	}

	c.tenantID = resp.Data.TenantUID
	return c.tenantID, nil
}

// do sends an authenticated request and decodes the JSON response into out.
// out may be nil when the body is not needed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	authorization, err := c.auth.authorization(ctx)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"Authorization": authorization,
		"Accept":        "application/json",
	}
	return c.send(ctx, method, path, query, headers, body, out)
}

// send issues a request with the given headers; authentication is the caller's concern.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, headers map[string]string, body interface{}, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, err := c.transport.Execute(ctx, &transport.Request{
		Method:  method,
		URL:     fullURL,
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		return ParseError(err)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
