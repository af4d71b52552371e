package navigation

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// Access says who may see a view
type Access string

const (
	Public    Access = "public"
	Protected Access = "protected"
)

// Route is one view of the client
type Route struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Access Access `yaml:"access"`
}

// Policy holds the redirect targets
type Policy struct {
	// DefaultView is where signed-in users land
	DefaultView string `yaml:"default_view"`
	// AnonymousLanding is where signed-out users are sent from protected
	// views: the login view or the public landing page
	AnonymousLanding string `yaml:"anonymous_landing"`
}

// Table is the parsed route table
type Table struct {
	Policy Policy  `yaml:"policy"`
	Routes []Route `yaml:"routes"`

	router *mux.Router
	access map[string]Access
}

// Match is the result of looking a path up in the table
type Match struct {
	Route Route
	Vars  map[string]string
}

// DefaultTable returns the built-in route table
func DefaultTable() (*Table, error) {
	return ParseTable(bytes.NewReader(defaultRoutes))
}

// LoadTable reads a route table from a YAML file
func LoadTable(filePath string) (*Table, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open routes file: %w", err)
	}
	defer f.Close()

	return ParseTable(f)
}

// ParseTable decodes and validates a YAML route table
func ParseTable(r io.Reader) (*Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}

	if t.Policy.DefaultView == "" {
		t.Policy.DefaultView = "/"
	}
	if t.Policy.AnonymousLanding == "" {
		t.Policy.AnonymousLanding = "/login"
	}

	if err := t.build(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) build() error {
	if len(t.Routes) == 0 {
		return fmt.Errorf("route table has no routes")
	}

	t.router = mux.NewRouter()
	t.access = make(map[string]Access, len(t.Routes))

	for _, route := range t.Routes {
		if route.Name == "" || !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("invalid route %q: name and an absolute path are required", route.Name)
		}
		if route.Access != Public && route.Access != Protected {
			return fmt.Errorf("invalid access %q for route %s, must be public or protected", route.Access, route.Name)
		}
		if _, exists := t.access[route.Name]; exists {
			return fmt.Errorf("duplicate route name %s", route.Name)
		}

		r := t.router.Path(route.Path).Name(route.Name)
		if err := r.GetError(); err != nil {
			return fmt.Errorf("invalid path for route %s: %w", route.Name, err)
		}
		t.access[route.Name] = route.Access
	}

	// Redirect targets must be known views, otherwise the guard loops
	for _, target := range []string{t.Policy.DefaultView, t.Policy.AnonymousLanding} {
		m, ok := t.Match(target)
		if !ok {
			return fmt.Errorf("policy target %s is not a route", target)
		}
		if target == t.Policy.DefaultView && m.Route.Access != Protected {
			return fmt.Errorf("default view %s must be protected", target)
		}
		if target == t.Policy.AnonymousLanding && m.Route.Access != Public {
			return fmt.Errorf("anonymous landing %s must be public", target)
		}
	}
	return nil
}

// WithAnonymousLanding returns a copy of the table with a different
// anonymous landing view
func (t *Table) WithAnonymousLanding(target string) (*Table, error) {
	out := &Table{
		Policy: t.Policy,
		Routes: append([]Route(nil), t.Routes...),
	}
	out.Policy.AnonymousLanding = target
	if err := out.build(); err != nil {
		return nil, err
	}
	return out, nil
}

// Match finds the route for p. Query strings and trailing slashes are ignored.
func (t *Table) Match(p string) (Match, bool) {
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: CleanPath(p)},
	}

	var rm mux.RouteMatch
	if !t.router.Match(req, &rm) || rm.Route == nil {
		return Match{}, false
	}

	name := rm.Route.GetName()
	for _, route := range t.Routes {
		if route.Name == name {
			return Match{Route: route, Vars: rm.Vars}, true
		}
	}
	return Match{}, false
}

// CleanPath strips the query and normalises p to an absolute path
func CleanPath(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
