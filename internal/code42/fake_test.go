package code42

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tombee/code42-connector/internal/transport"
)

// fakeCode42 is a minimal in-process Code42 API.
type fakeCode42 struct {
	t *testing.T

	mu         sync.Mutex
	authCalls  int
	oauthCalls int
	tenantHits int
	bodies     map[string]map[string]interface{}
	users      map[string]User
	alerts     map[string]Alert
	tokenTTL   time.Duration
}

func newFakeCode42(t *testing.T) *fakeCode42 {
	return &fakeCode42{
		t:        t,
		bodies:   make(map[string]map[string]interface{}),
		tokenTTL: time.Hour,
		users: map[string]User{
			"alice@example.com": {UserID: 1, UserUID: "uid-alice", Username: "alice@example.com", Active: true},
		},
		alerts: map[string]Alert{
			"alert-1": {"id": "alert-1", "actor": "alice@example.com", "actorId": "uid-alice", "state": "OPEN"},
		},
	}
}

func (f *fakeCode42) token() string {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(f.tokenTTL))}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(f.t, err)
	return signed
}

func (f *fakeCode42) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/c42api/v3/auth/jwt" {
		f.authCalls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin@example.com" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`[{"name":"TOKEN_AUTH_BAD_CREDENTIALS","description":"Invalid credentials."}]`))
			return
		}
		writeJSON(w, map[string]interface{}{"data": map[string]string{"v3_user_token": f.token()}})
		return
	}

	if r.URL.Path == "/api/v3/oauth/token" {
		f.oauthCalls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key-123" || pass != "secret-456" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{"access_token": "oauth-token", "token_type": "bearer", "expires_in": 900})
		return
	}

	auth := r.Header.Get("Authorization")
	if auth != "Bearer oauth-token" && (len(auth) < len("v3_user_token ") || auth[:len("v3_user_token ")] != "v3_user_token ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodPost {
		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			require.NoError(f.t, json.Unmarshal(raw, &body))
		}
		f.bodies[r.URL.Path] = body
	}

	switch r.URL.Path {
	case "/c42api/v3/customer/my":
		f.tenantHits++
		writeJSON(w, map[string]interface{}{"data": map[string]string{"tenantUid": "tenant-1"}})
	case "/api/User/my":
		writeJSON(w, map[string]interface{}{"data": User{UserUID: "uid-admin", Username: "admin@example.com"}})
	case "/api/User":
		users := []User{}
		if u, ok := f.users[r.URL.Query().Get("username")]; ok {
			users = append(users, u)
		}
		writeJSON(w, map[string]interface{}{"data": UserList{TotalCount: len(users), Users: users}})
	case "/svc/api/v2/departingemployee/add":
		writeJSON(w, map[string]interface{}{"type$": "DEPARTING_EMPLOYEE_V2", "userId": f.bodies[r.URL.Path]["userId"]})
	case "/svc/api/v2/departingemployee/remove", "/svc/api/v2/user/updatenotes":
		w.WriteHeader(http.StatusOK)
	case "/svc/api/v1/query-details":
		alerts := []Alert{}
		for _, id := range f.bodies[r.URL.Path]["alertIds"].([]interface{}) {
			if a, ok := f.alerts[id.(string)]; ok {
				alerts = append(alerts, a)
			}
		}
		writeJSON(w, map[string]interface{}{"alerts": alerts})
	case "/svc/api/v1/query-alerts":
		alerts := []Alert{}
		for _, a := range f.alerts {
			alerts = append(alerts, a)
		}
		writeJSON(w, map[string]interface{}{"type$": "ALERT_QUERY_RESPONSE", "alerts": alerts, "totalCount": len(alerts)})
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"name":"NOT_FOUND","description":"No such endpoint"}]`))
	}
}

func (f *fakeCode42) body(path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[path]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// newTestClient starts fake and returns a client pointed at it.
func newTestClient(t *testing.T, fake *fakeCode42, authType, username, password string) *Client {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{BaseURL: server.URL})
	require.NoError(t, err)

	client, err := NewClient(&Config{
		Transport:     tr,
		CloudInstance: server.URL,
		Username:      username,
		Password:      password,
		AuthType:      authType,
	})
	require.NoError(t, err)
	return client
}
