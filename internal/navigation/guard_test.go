package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultGuard(t *testing.T) *Guard {
	t.Helper()
	table, err := DefaultTable()
	require.NoError(t, err)
	return NewGuard(table)
}

func TestGuard_Resolve(t *testing.T) {
	guard := defaultGuard(t)

	tests := []struct {
		name       string
		path       string
		state      State
		wantAction Action
		wantTarget string
		wantRoute  string
	}{
		{"public view when signed in", "/login", Authenticated, Redirect, "/", "login"},
		{"public view when signed out", "/login", Anonymous, Render, "", "login"},
		{"protected view when signed in", "/leads", Authenticated, Render, "", "leads"},
		{"protected view when signed out", "/leads", Anonymous, Redirect, "/login", "leads"},
		{"unknown path when signed in", "/nope", Authenticated, Redirect, "/", ""},
		{"unknown path when signed out", "/nope", Anonymous, Redirect, "/login", ""},
		{"dashboard when signed out", "/", Anonymous, Redirect, "/login", "dashboard"},
		{"register when signed out", "/register", Anonymous, Render, "", "register"},
		{"landing when signed in", "/landing", Authenticated, Redirect, "/", "landing"},
		{"profile when signed in", "/profile", Authenticated, Render, "", "profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Resolve(tt.path, tt.state)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantTarget, d.Target)
			assert.Equal(t, tt.wantRoute, d.Route)
			assert.Equal(t, tt.path, d.Path)
		})
	}
}

func TestGuard_ResolveCleansPath(t *testing.T) {
	guard := defaultGuard(t)

	for _, p := range []string{"/leads/", "leads", "/leads?page=2", "/profile/../leads"} {
		d := guard.Resolve(p, Authenticated)
		assert.Equal(t, Render, d.Action, p)
		assert.Equal(t, "leads", d.Route, p)
		assert.Equal(t, "/leads", d.Path, p)
	}

	d := guard.Resolve("", Anonymous)
	assert.Equal(t, "/", d.Path)
	assert.Equal(t, "/login", d.Target)
}

func TestGuard_LeadDetailVars(t *testing.T) {
	guard := defaultGuard(t)

	d := guard.Resolve("/leads/42", Authenticated)
	require.Equal(t, Render, d.Action)
	assert.Equal(t, "lead-detail", d.Route)
	assert.Equal(t, "42", d.Vars["id"])

	d = guard.Resolve("/leads/abc", Authenticated)
	assert.Equal(t, Redirect, d.Action)
	assert.Empty(t, d.Route)
	assert.Equal(t, "/", d.Target)
}

func TestGuard_LandingPolicy(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	landing, err := table.WithAnonymousLanding("/landing")
	require.NoError(t, err)
	guard := NewGuard(landing)

	assert.Equal(t, "/landing", guard.Resolve("/leads", Anonymous).Target)
	assert.Equal(t, "/landing", guard.Resolve("/missing", Anonymous).Target)
	assert.Equal(t, Render, guard.Resolve("/login", Anonymous).Action)

	// the original table is untouched
	assert.Equal(t, "/login", NewGuard(table).Resolve("/leads", Anonymous).Target)
}

func TestGuard_RedirectTargetsRender(t *testing.T) {
	guard := defaultGuard(t)

	for _, state := range []State{Anonymous, Authenticated} {
		for _, route := range guard.Table().Routes {
			d := guard.Resolve(route.Path, state)
			if d.Action == Render {
				continue
			}
			next := guard.Resolve(d.Target, state)
			assert.Equal(t, Render, next.Action, "%s as %s", route.Path, state)
		}
	}
}

func TestStateAndActionStrings(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, Authenticated, StateOf(true))
	assert.Equal(t, Anonymous, StateOf(false))
}
