package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/rs/zerolog"

	"github.com/smartconvert/leadcrm/internal/config"
	"github.com/smartconvert/leadcrm/internal/gateway"
	"github.com/smartconvert/leadcrm/internal/logger"
	"github.com/smartconvert/leadcrm/internal/navigation"
	"github.com/smartconvert/leadcrm/internal/session"
)

// App wires the session store, the navigation controller and the API client
// for one CLI invocation
type App struct {
	Config     *config.Config
	Store      *session.Store
	Controller *navigation.Controller
	Client     *gateway.Client
	Auth       *gateway.Authenticator
	Log        zerolog.Logger

	// SessionFile is the watched file for the file backend, empty otherwise
	SessionFile string

	Out io.Writer
	In  io.Reader

	table   *navigation.Table
	started bool
}

// AppProvider builds the App when a command runs
type AppProvider func() (*App, error)

// AppOption customises NewApp
type AppOption func(*appOptions)

type appOptions struct {
	kv  session.KV
	out io.Writer
	in  io.Reader
}

// WithKV replaces the configured session backend
func WithKV(kv session.KV) AppOption {
	return func(o *appOptions) { o.kv = kv }
}

// WithOutput sets where command output goes
func WithOutput(out io.Writer) AppOption {
	return func(o *appOptions) { o.out = out }
}

// WithInput sets where interactive input is read from
func WithInput(in io.Reader) AppOption {
	return func(o *appOptions) { o.in = in }
}

// NewApp builds an App from configuration
func NewApp(cfg *config.Config, log zerolog.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{out: os.Stdout, in: os.Stdin}
	for _, opt := range opts {
		opt(&o)
	}

	var sessionFile string
	kv := o.kv
	if kv == nil {
		var err error
		kv, sessionFile, err = openBackend(cfg)
		if err != nil {
			return nil, err
		}
	}
	store := session.NewStore(kv)

	table, err := loadTable(cfg.Navigation)
	if err != nil {
		return nil, err
	}
	controller := navigation.NewController(navigation.NewGuard(table), store, logger.WithComponent(log, "navigation"))

	client := gateway.New(cfg.API.URL, store, controller,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(logger.WithComponent(log, "gateway")),
	)

	return &App{
		Config:      cfg,
		Store:       store,
		Controller:  controller,
		Client:      client,
		Auth:        gateway.NewAuthenticator(client, store),
		Log:         log,
		SessionFile: sessionFile,
		Out:         o.out,
		In:          o.in,
		table:       table,
	}, nil
}

func openBackend(cfg *config.Config) (session.KV, string, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryKV(), "", nil
	case config.BackendKeyring:
		// One keyring entry per backend so sessions for different servers
		// do not overwrite each other
		namespace := cfg.API.URL
		if u, err := url.Parse(cfg.API.URL); err == nil && u.Host != "" {
			namespace = u.Host
		}
		return session.NewKeyringKV(namespace), "", nil
	default:
		path := cfg.Session.File
		if path == "" {
			var err error
			path, err = session.DefaultFilePath()
			if err != nil {
				return nil, "", err
			}
		}
		return session.NewFileKV(path), path, nil
	}
}

func loadTable(cfg config.NavigationConfig) (*navigation.Table, error) {
	var (
		table *navigation.Table
		err   error
	)
	if cfg.RoutesFile != "" {
		table, err = navigation.LoadTable(cfg.RoutesFile)
	} else {
		table, err = navigation.DefaultTable()
	}
	if err != nil {
		return nil, err
	}

	if cfg.AnonymousLanding != "" && cfg.AnonymousLanding != table.Policy.AnonymousLanding {
		table, err = table.WithAnonymousLanding(cfg.AnonymousLanding)
		if err != nil {
			return nil, fmt.Errorf("invalid LEADCRM_ANON_LANDING: %w", err)
		}
	}
	return table, nil
}

// RedirectError is returned when the requested view is not available in the
// current session state
type RedirectError struct {
	From  string
	To    string
	State navigation.State
	// Unknown is set when no view exists at From
	Unknown bool
}

func (e *RedirectError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("no view at %s, redirected to %s", e.From, e.To)
	}
	if e.State == navigation.Anonymous {
		return fmt.Sprintf("%s requires a session, redirected to %s (run 'leadcrm login')", e.From, e.To)
	}
	return fmt.Sprintf("%s is not available while logged in, redirected to %s", e.From, e.To)
}

// visit navigates to p. It fails with a RedirectError unless p itself is
// rendered.
func (a *App) visit(p string) (navigation.Decision, error) {
	var d navigation.Decision
	if !a.started {
		a.started = true
		d = a.Controller.Start(p)
	} else {
		d = a.Controller.Navigate(p)
	}

	if requested := navigation.CleanPath(p); d.Path != requested {
		_, known := a.table.Match(requested)
		return d, &RedirectError{From: requested, To: d.Path, State: a.Controller.State(), Unknown: !known}
	}
	return d, nil
}

// Close releases the navigation subscription
func (a *App) Close() {
	a.Controller.Stop()
}
