package navigation

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartconvert/leadcrm/internal/session"
)

// maxRedirects bounds a redirect chain. A valid table needs at most one hop.
const maxRedirects = 5

// SessionSource is the part of the session store the controller reads
type SessionSource interface {
	IsAuthenticated() bool
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

// Navigation is one recorded hop
type Navigation struct {
	From string
	To   string
	// Hard is set for forced navigations that reload all session state
	Hard bool
	// Reactive is set when the hop was triggered by a session change
	// rather than by the user
	Reactive bool
	State    State
	At       time.Time
}

// Controller keeps the current location and re-evaluates it whenever the
// session changes, so no view keeps rendering with stale authentication.
type Controller struct {
	guard *Guard
	store SessionSource
	log   zerolog.Logger

	mu          sync.Mutex
	started     bool
	location    string
	decision    Decision
	state       State
	history     []Navigation
	listeners   []func(State)
	unsubscribe func()
}

// NewController creates a Controller. Call Start before navigating.
func NewController(guard *Guard, store SessionSource, log zerolog.Logger) *Controller {
	return &Controller{
		guard: guard,
		store: store,
		log:   log,
	}
}

// Start computes the initial state from the store, subscribes to session
// changes and navigates to initial.
func (c *Controller) Start(initial string) Decision {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.state = StateOf(c.store.IsAuthenticated())
		c.unsubscribe = c.store.Subscribe(func(session.Session) {
			c.reevaluate()
		})
	}
	c.mu.Unlock()

	return c.Navigate(initial)
}

// Stop drops the session subscription.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.started = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Navigate goes to p, following redirects, and returns the final decision.
// The session store is consulted on every call.
func (c *Controller) Navigate(p string) Decision {
	return c.navigate(p, false, false)
}

// HardRedirect forces a navigation to p that re-reads all session state, as
// a full page load would. The gateway calls it after a 401.
func (c *Controller) HardRedirect(p string) {
	c.navigate(p, true, false)
}

// OnStateChange registers fn to be called when the state flips between
// Anonymous and Authenticated.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Location returns the path of the view currently rendered.
func (c *Controller) Location() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

// Current returns the decision that rendered the current view.
func (c *Controller) Current() Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decision
}

// State returns the state as of the last evaluation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns a copy of every recorded hop.
func (c *Controller) History() []Navigation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Navigation(nil), c.history...)
}

// reevaluate re-resolves the current location after a session change
func (c *Controller) reevaluate() {
	c.mu.Lock()
	location := c.location
	c.mu.Unlock()

	if location == "" {
		// Nothing rendered yet; only track the state
		c.setState(StateOf(c.store.IsAuthenticated()))
		return
	}
	c.navigate(location, false, true)
}

func (c *Controller) navigate(p string, hard, reactive bool) Decision {
	state := StateOf(c.store.IsAuthenticated())

	c.mu.Lock()
	from := c.location
	target := p
	var decision Decision
	for i := 0; ; i++ {
		decision = c.guard.Resolve(target, state)
		c.history = append(c.history, Navigation{
			From:     from,
			To:       decision.Path,
			Hard:     hard && i == 0,
			Reactive: reactive,
			State:    state,
			At:       time.Now(),
		})
		if decision.Action == Render {
			break
		}
		if i >= maxRedirects {
			c.log.Error().Str("path", p).Msg("Redirect loop, staying on last view")
			break
		}
		from, target = decision.Path, decision.Target
	}
	changedFrom := c.location
	c.location = decision.Path
	c.decision = decision
	c.mu.Unlock()

	c.log.Debug().
		Str("from", changedFrom).
		Str("to", decision.Path).
		Str("requested", p).
		Str("state", state.String()).
		Bool("hard", hard).
		Bool("reactive", reactive).
		Msg("Navigated")

	c.setState(state)
	return decision
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
