package gateway

import "net/http"

// RoundTripperFunc wraps a function in a RoundTripper interface similar to
// http.HandlerFunc.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// An Interceptor wraps a RoundTripper. It may change the outgoing request
// (on a clone), inspect the response, or both.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// Chain is an ordered list of interceptors. The first one sees the request
// first and the response last.
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain of the given interceptors.
func NewChain(interceptors ...Interceptor) Chain {
	return Chain{append([]Interceptor(nil), interceptors...)}
}

// Append returns a new chain with interceptors added innermost. The receiver
// is left untouched.
func (c Chain) Append(interceptors ...Interceptor) Chain {
	out := make([]Interceptor, 0, len(c.interceptors)+len(interceptors))
	out = append(out, c.interceptors...)
	out = append(out, interceptors...)
	return Chain{out}
}

// Then wraps rt with every interceptor. A nil rt means http.DefaultTransport.
//
//	NewChain(a, b, c).Then(rt) == a(b(c(rt)))
func (c Chain) Then(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}

	for i := len(c.interceptors) - 1; i >= 0; i-- {
		rt = c.interceptors[i](rt)
	}
	return rt
}
