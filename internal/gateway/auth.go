package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartconvert/leadcrm/internal/session"
)

// ErrMissingToken is returned when a successful login response carries no
// access_token.
var ErrMissingToken = errors.New("login response has no access_token")

// Authenticator ties login and logout to the session store.
type Authenticator struct {
	client *Client
	store  SessionStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(client *Client, store SessionStore) *Authenticator {
	return &Authenticator{client: client, store: store}
}

// Login signs in and saves the session. Nothing is stored unless the backend
// returned a token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (session.Session, error) {
	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return session.Session{}, err
	}

	if token.AccessToken == "" {
		return session.Session{}, ErrMissingToken
	}

	if err := a.store.Save(token.AccessToken, username); err != nil {
		return session.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return a.store.Current(), nil
}

// Logout clears the session. Subscribers of the store (the navigation
// controller) react to the change.
func (a *Authenticator) Logout() error {
	return a.store.Clear()
}
