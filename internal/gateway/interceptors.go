package gateway

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/smartconvert/leadcrm/internal/session"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"

	// LoginPath is where an unauthorized response sends the user
	LoginPath = "/login"
)

// TokenSource supplies the session at send time.
type TokenSource interface {
	Current() session.Session
}

// SessionStore is the part of the session store the gateway uses.
type SessionStore interface {
	TokenSource
	Save(token, username string) error
	Clear() error
}

// Navigator performs a forced navigation that reloads all session state.
type Navigator interface {
	HardRedirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// HardRedirect calls f(path).
func (f NavigatorFunc) HardRedirect(path string) { f(path) }

// RequestID sets an X-Request-ID header on requests that do not carry one.
func RequestID() Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(requestIDHeader) == "" {
				req = req.Clone(req.Context())
				req.Header.Set(requestIDHeader, ulid.Make().String())
			}
			return next.RoundTrip(req)
		})
	}
}

// Bearer attaches "Authorization: Bearer <token>" when src holds a token and
// strips any Authorization header when it does not. The token is read on
// every request, so a new login applies without rebuilding the client.
func Bearer(src TokenSource) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())

			if token := src.Current().Token; token != "" {
				req.Header.Set("Authorization", bearerPrefix+token)
			} else {
				req.Header.Del("Authorization")
			}
			return next.RoundTrip(req)
		})
	}
}

// Unauthorized tears the session down when the backend answers 401: the
// store is cleared and nav is sent to the login view. The response is
// returned as is so the caller still sees the failure. Any other status
// leaves the store alone.
func Unauthorized(store SessionStore, nav Navigator, log zerolog.Logger) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			log.Warn().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Msg("Session rejected by backend, signing out")

			if err := store.Clear(); err != nil {
				log.Error().Err(err).Msg("Failed to clear session")
			}
			if nav != nil {
				nav.HardRedirect(LoginPath)
			}
			return resp, nil
		})
	}
}

// Logging writes one debug line per request.
func Logging(log zerolog.Logger) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			evt := log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("request_id", req.Header.Get(requestIDHeader)).
				Dur("duration", time.Since(start))
			if err != nil {
				evt.Err(err).Msg("Request failed")
				return resp, err
			}
			evt.Int("status", resp.StatusCode).Msgf("%s %s", req.Method, req.URL.Path)
			return resp, nil
		})
	}
}
