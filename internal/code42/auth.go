package code42

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// tokenRefreshSkew renews tokens this long before they expire.
	tokenRefreshSkew = time.Minute

	// defaultTokenLifetime is assumed when a token carries no readable exp claim.
	defaultTokenLifetime = 15 * time.Minute
)

// authenticator produces the Authorization header value for API requests.
type authenticator interface {
	authorization(ctx context.Context) (string, error)
}

// localAccountAuth exchanges basic credentials for a v3 user token and
// caches it until shortly before it expires.
type localAccountAuth struct {
	client   *Client
	username string
	password string
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newLocalAccountAuth(client *Client, username, password string) *localAccountAuth {
	return &localAccountAuth{
		client:   client,
		username: username,
		password: password,
		now:      time.Now,
	}
}

func (a *localAccountAuth) authorization(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Add(tokenRefreshSkew).Before(a.expires) {
		return "v3_user_token " + a.token, nil
	}

	token, err := a.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	a.token = token
	a.expires = a.tokenExpiry(token)
	return "v3_user_token " + a.token, nil
}

func (a *localAccountAuth) fetchToken(ctx context.Context) (string, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(a.username + ":" + a.password))
	headers := map[string]string{
		"Authorization": "Basic " + basic,
		"Accept":        "application/json",
	}

	var resp struct {
		Data struct {
			Token string `json:"v3_user_token"`
		} `json:"data"`
	}
	query := url.Values{"useBody": []string{"true"}}
	if err := a.client.send(ctx, http.MethodGet, "/c42api/v3/auth/jwt", query, headers, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to authenticate %s: %w", a.username, err)
	}
	if resp.Data.Token == "" {
		return "", fmt.Errorf("failed to authenticate %s: response had no v3_user_token", a.username)
	}

	return resp.Data.Token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// token is only ever sent back to the server that issued it.
func (a *localAccountAuth) tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return a.now().Add(defaultTokenLifetime)
}

// httpClientProvider is implemented by transports that can lend their
// *http.Client to libraries issuing their own requests.
type httpClientProvider interface {
	HTTPClient() *http.Client
}

// apiClientAuth authenticates with OAuth2 client credentials. Tokens are
// fetched with the caller's context and cached until shortly before expiry.
type apiClientAuth struct {
	cfg        *clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

func newAPIClientAuth(client *Client, clientID, clientSecret string) *apiClientAuth {
	a := &apiClientAuth{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     client.baseURL + "/api/v3/oauth/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		now: time.Now,
	}
	if p, ok := client.transport.(httpClientProvider); ok {
		a.httpClient = p.HTTPClient()
	}
	return a
}

func (a *apiClientAuth) authorization(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != nil && a.fresh(a.token) {
		return "Bearer " + a.token.AccessToken, nil
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to obtain API client token: %w", err)
	}

	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	token, err := a.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain API client token: %w", err)
	}

	a.token = token
	return "Bearer " + token.AccessToken, nil
}

func (a *apiClientAuth) fresh(token *oauth2.Token) bool {
	if token.AccessToken == "" {
		return false
	}
	if token.Expiry.IsZero() {
		return true
	}
	return a.now().Add(tokenRefreshSkew).Before(token.Expiry)
}
