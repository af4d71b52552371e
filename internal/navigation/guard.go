// Package navigation decides which view a navigation ends on. The decision
// depends only on the requested path and on whether the session store holds
// a token at the moment of the navigation.
package navigation

// State is the coarse authentication state of the client
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// StateOf maps the session store's answer to a State
func StateOf(authenticated bool) State {
	if authenticated {
		return Authenticated
	}
	return Anonymous
}

// Action is what the client does with a navigation
type Action int

const (
	Render Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "render"
}

// Decision is the outcome of resolving one path
type Decision struct {
	Action Action
	// Path is the cleaned requested path
	Path string
	// Target is the redirect destination, empty when rendering
	Target string
	// Route is the matched route name, empty for unmatched paths
	Route string
	Vars  map[string]string
}

// Guard maps a path and a session state to a Decision
type Guard struct {
	table *Table
}

// NewGuard creates a Guard over table
func NewGuard(table *Table) *Guard {
	return &Guard{table: table}
}

// Table returns the route table
func (g *Guard) Table() *Table {
	return g.table
}

// Resolve decides what happens when p is requested in state.
//
//	public     + authenticated -> redirect to the default view
//	public     + anonymous     -> render
//	protected  + authenticated -> render
//	protected  + anonymous     -> redirect to the anonymous landing
//	unmatched  + authenticated -> redirect to the default view
//	unmatched  + anonymous     -> redirect to the anonymous landing
func (g *Guard) Resolve(p string, state State) Decision {
	clean := CleanPath(p)
	policy := g.table.Policy

	m, ok := g.table.Match(clean)
	if !ok {
		if state == Authenticated {
			return redirect(clean, "", policy.DefaultView)
		}
		return redirect(clean, "", policy.AnonymousLanding)
	}

	switch m.Route.Access {
	case Public:
		if state == Authenticated {
			return redirect(clean, m.Route.Name, policy.DefaultView)
		}
	default:
		if state == Anonymous {
			return redirect(clean, m.Route.Name, policy.AnonymousLanding)
		}
	}

	return Decision{
		Action: Render,
		Path:   clean,
		Route:  m.Route.Name,
		Vars:   m.Vars,
	}
}

func redirect(p, route, target string) Decision {
	return Decision{
		Action: Redirect,
		Path:   p,
		Target: target,
		Route:  route,
	}
}
