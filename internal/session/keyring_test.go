package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringKV(t *testing.T) {
	keyring.MockInit()

	kv := NewKeyringKV("http://127.0.0.1:8000/api/v1")
	store := NewStore(kv)

	assert.False(t, store.IsAuthenticated())

	require.NoError(t, store.Save("tok123", "admin"))
	assert.Equal(t, Session{Token: "tok123", Username: "admin"}, store.Current())

	// Another namespace does not see the session
	other := NewStore(NewKeyringKV("https://crm.example.com/api/v1"))
	assert.False(t, other.IsAuthenticated())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.Equal(t, Session{}, store.Current())
}

// failingKeychain wraps the mock keychain and rejects writes to one entry
type failingKeychain struct {
	keychain
	failUser string
}

func (f failingKeychain) Set(service, user, password string) error {
	if user == f.failUser {
		return errors.New("keychain locked")
	}
	return f.keychain.Set(service, user, password)
}

func TestKeyringKV_SetRollsBackOnFailure(t *testing.T) {
	keyring.MockInit()

	kv := NewKeyringKV("crm.example.com")
	store := NewStore(kv)
	require.NoError(t, store.Save("old-token", "old-user"))

	// the token is written first, the username write fails
	kv.keys = failingKeychain{keychain: osKeychain{}, failUser: kv.keyringKey(UserKey)}

	err := store.Save("new-token", "new-user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain locked")

	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, Session{}, store.Current())
}
