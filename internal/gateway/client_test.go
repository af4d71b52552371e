package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartconvert/leadcrm/internal/models"
	"github.com/smartconvert/leadcrm/internal/session"
)

// recordingNavigator remembers every forced navigation
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
	// authenticatedAt records the store state seen at redirect time
	authenticatedAt []bool
	store           *session.Store
}

func (n *recordingNavigator) HardRedirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	if n.store != nil {
		n.authenticatedAt = append(n.authenticatedAt, n.store.IsAuthenticated())
	}
}

// statusBackend answers with status and records the Authorization header of
// every request
type statusBackend struct {
	*httptest.Server
	mu      sync.Mutex
	headers []string
	present []bool
}

func newStatusBackend(t *testing.T, status int, body string) *statusBackend {
	t.Helper()
	b := &statusBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		_, ok := r.Header["Authorization"]
		b.present = append(b.present, ok)
		b.headers = append(b.headers, r.Header.Get("Authorization"))
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(b.Close)
	return b
}

func newTestClient(baseURL string) (*Client, *session.Store, *recordingNavigator) {
	store := session.NewStore(session.NewMemoryKV())
	nav := &recordingNavigator{store: store}
	return New(baseURL, store, nav), store, nav
}

func TestClient_AttachesStoredToken(t *testing.T) {
	backend := newStatusBackend(t, http.StatusOK, `[]`)
	client, store, _ := newTestClient(backend.URL)

	require.NoError(t, store.Save("tok-a", "admin"))
	_, err := client.ListLeads(context.Background(), LeadQuery{})
	require.NoError(t, err)

	// A new login is picked up without rebuilding the client
	require.NoError(t, store.Save("tok-b", "admin"))
	_, err = client.ListLeads(context.Background(), LeadQuery{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer tok-a", "Bearer tok-b"}, backend.headers)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	backend := newStatusBackend(t, http.StatusOK, `[]`)
	client, _, _ := newTestClient(backend.URL)

	_, err := client.ListLeads(context.Background(), LeadQuery{})
	require.NoError(t, err)

	require.Len(t, backend.present, 1)
	assert.False(t, backend.present[0], "anonymous requests must not carry Authorization")
}

func TestClient_NoTokenStripsCallerHeader(t *testing.T) {
	backend := newStatusBackend(t, http.StatusOK, `{}`)
	client, _, _ := newTestClient(backend.URL)

	req, err := client.newRequest(context.Background(), http.MethodGet, "/dashboard/stats", nil, nil, "")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer stale")

	require.NoError(t, client.Do(req, nil))
	assert.False(t, backend.present[0])
}

func TestClient_UnauthorizedTearsDownSession(t *testing.T) {
	backend := newStatusBackend(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	client, store, nav := newTestClient(backend.URL)
	require.NoError(t, store.Save("expired", "admin"))

	_, err := client.GetLead(context.Background(), 7)

	// The caller still gets the failure...
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Could not validate credentials", apiErr.Detail)

	// ...and by then the session is gone and the login view was forced
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, session.Session{}, store.Current())
	assert.Equal(t, []string{"/login"}, nav.paths)
	assert.Equal(t, []bool{false}, nav.authenticatedAt, "store must be cleared before redirecting")
}

func TestClient_UnauthorizedFromAnyEndpoint(t *testing.T) {
	calls := map[string]func(c *Client) error{
		"list leads": func(c *Client) error {
			_, err := c.ListLeads(context.Background(), LeadQuery{})
			return err
		},
		"dashboard": func(c *Client) error {
			_, err := c.DashboardStats(context.Background())
			return err
		},
		"profile": func(c *Client) error {
			_, err := c.GetProfile(context.Background())
			return err
		},
		"login": func(c *Client) error {
			_, err := c.Login(context.Background(), "admin", "wrong")
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			backend := newStatusBackend(t, http.StatusUnauthorized, `{"detail":"nope"}`)
			client, store, nav := newTestClient(backend.URL)
			require.NoError(t, store.Save("tok", "admin"))

			require.ErrorIs(t, call(client), ErrUnauthorized)
			assert.False(t, store.IsAuthenticated())
			assert.Equal(t, []string{"/login"}, nav.paths)
		})
	}
}

func TestClient_OtherStatusesLeaveSessionAlone(t *testing.T) {
	for _, status := range []int{
		http.StatusOK,
		http.StatusBadRequest,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity,
		http.StatusInternalServerError,
		http.StatusBadGateway,
	} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			backend := newStatusBackend(t, status, `{"detail":"x"}`)
			client, store, nav := newTestClient(backend.URL)
			require.NoError(t, store.Save("tok123", "admin"))

			err := client.UpdateProfile(context.Background(), models.ProfileUpdate{Name: "Sales Rep"})
			if status == http.StatusOK {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrUnauthorized)
				assert.Equal(t, status, StatusCode(err))
			}

			assert.Equal(t, session.Session{Token: "tok123", Username: "admin"}, store.Current())
			assert.Empty(t, nav.paths)
		})
	}
}

func TestClient_TransportErrorPropagates(t *testing.T) {
	// Grab a free port and close it so nothing listens there
	li, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := li.Addr().String()
	require.NoError(t, li.Close())

	client, store, nav := newTestClient("http://" + addr + "/api/v1")
	require.NoError(t, store.Save("tok123", "admin"))

	_, err = client.ListLeads(context.Background(), LeadQuery{})
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.True(t, store.IsAuthenticated())
	assert.Empty(t, nav.paths)
}

func TestClient_NilNavigator(t *testing.T) {
	backend := newStatusBackend(t, http.StatusUnauthorized, `{}`)
	store := session.NewStore(session.NewMemoryKV())
	require.NoError(t, store.Save("tok", "u"))

	client := New(backend.URL, store, nil)
	_, err := client.GetProfile(context.Background())

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, store.IsAuthenticated())
}

func TestNew_DefaultBaseURL(t *testing.T) {
	client := New("", session.NewStore(session.NewMemoryKV()), nil)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())

	client = New("http://example.com/api/v1/", session.NewStore(session.NewMemoryKV()), nil)
	assert.Equal(t, "http://example.com/api/v1", client.BaseURL())
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Username already registered"}`, "Username already registered"},
		{"validation detail", `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"error field", `{"error":"invalid credentials"}`, "invalid credentials"},
		{"plain text", "Internal Server Error\n", "Internal Server Error"},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}
