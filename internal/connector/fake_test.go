package connector

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tombee/code42-connector/internal/config"
	"github.com/tombee/code42-connector/internal/state"
)

const (
	testUsername = "admin@example.com"
	testPassword = "hunter2"
)

// fakeCode42 serves the subset of the Code42 API the actions use.
type fakeCode42 struct {
	t      *testing.T
	server *httptest.Server

	mu             sync.Mutex
	requests       []string
	bodies         map[string]map[string]interface{}
	correlationIDs []string
	userAgents     []string
	failures       map[string]int
}

func newFakeCode42(t *testing.T) *fakeCode42 {
	f := &fakeCode42{
		t:        t,
		bodies:   make(map[string]map[string]interface{}),
		failures: make(map[string]int),
	}
	f.server = httptest.NewServer(f)
	t.Cleanup(f.server.Close)
	return f
}

// failWith makes every request to path answer with status.
func (f *fakeCode42) failWith(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

func (f *fakeCode42) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.correlationIDs = append(f.correlationIDs, r.Header.Get("X-Correlation-ID"))
	f.userAgents = append(f.userAgents, r.Header.Get("User-Agent"))

	if status, ok := f.failures[r.URL.Path]; ok {
		w.WriteHeader(status)
		w.Write([]byte(`[{"name":"SYSTEM","description":"Simulated failure"}]`))
		return
	}

	if r.URL.Path == "/c42api/v3/auth/jwt" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != testUsername || pass != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`[{"name":"TOKEN_AUTH_BAD_CREDENTIALS","description":"Invalid credentials."}]`))
			return
		}
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(f.t, err)
		writeJSON(w, map[string]interface{}{"data": map[string]string{"v3_user_token": token}})
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "v3_user_token ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body map[string]interface{}
	if r.Method == http.MethodPost {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			require.NoError(f.t, json.Unmarshal(raw, &body))
		}
		f.bodies[r.URL.Path] = body
	}

	switch r.URL.Path {
	case "/c42api/v3/customer/my":
		writeJSON(w, map[string]interface{}{"data": map[string]string{"tenantUid": "tenant-1"}})
	case "/api/User/my":
		writeJSON(w, map[string]interface{}{"data": map[string]interface{}{"userUid": "uid-admin", "username": testUsername}})
	case "/api/User":
		users := []map[string]interface{}{}
		if r.URL.Query().Get("username") == "alice@example.com" {
			users = append(users, map[string]interface{}{"userUid": "uid-alice", "username": "alice@example.com", "userId": 42})
		}
		writeJSON(w, map[string]interface{}{"data": map[string]interface{}{"totalCount": len(users), "users": users}})
	case "/svc/api/v2/departingemployee/add":
		writeJSON(w, map[string]interface{}{"type$": "DEPARTING_EMPLOYEE_V2", "userId": body["userId"], "departureDate": body["departureDate"]})
	case "/svc/api/v2/departingemployee/remove", "/svc/api/v2/user/updatenotes":
		w.WriteHeader(http.StatusOK)
	case "/svc/api/v1/query-details":
		alerts := []map[string]interface{}{}
		for _, id := range body["alertIds"].([]interface{}) {
			if id == "alert-1" {
				alerts = append(alerts, map[string]interface{}{
					"id": "alert-1", "actor": "alice@example.com", "actorId": "uid-alice", "state": "OPEN", "severity": "HIGH",
				})
			}
		}
		writeJSON(w, map[string]interface{}{"alerts": alerts})
	case "/svc/api/v1/query-alerts":
		writeJSON(w, map[string]interface{}{
			"type$":      "ALERT_QUERY_RESPONSE",
			"alerts":     []map[string]interface{}{{"id": "alert-1", "actor": "alice@example.com"}},
			"totalCount": 1,
		})
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

func (f *fakeCode42) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasSuffix(r, " "+path) {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// assetConfig is the request config pointing at the fake.
func (f *fakeCode42) assetConfig() map[string]interface{} {
	return map[string]interface{}{
		"cloud_instance": f.server.URL,
		"username":       testUsername,
		"password":       testPassword,
	}
}

// newTestConnector returns a connector with an in-memory store and no
// config file or environment influence.
func newTestConnector(t *testing.T, opts Options) *Connector {
	t.Helper()
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore()
	}
	return New(opts)
}
