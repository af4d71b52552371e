package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingKV rejects every write
type failingKV struct {
	*MemoryKV
}

func (f failingKV) Set(map[string]string) error { return errors.New("disk full") }
func (f failingKV) Delete(...string) error      { return errors.New("disk full") }

func TestStore_SaveAndCurrent(t *testing.T) {
	store := NewStore(NewMemoryKV())

	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, Session{}, store.Current())

	require.NoError(t, store.Save("tok123", "admin"))

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, Session{Token: "tok123", Username: "admin"}, store.Current())
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := NewStore(NewMemoryKV())

	require.NoError(t, store.Save("first", "alice"))
	require.NoError(t, store.Save("second", "bob"))

	assert.Equal(t, Session{Token: "second", Username: "bob"}, store.Current())
}

func TestStore_SaveDoesNotValidateToken(t *testing.T) {
	store := NewStore(NewMemoryKV())

	require.NoError(t, store.Save("not a jwt at all", ""))
	assert.True(t, store.IsAuthenticated())
}

func TestStore_UsernameAloneIsNotAuthenticated(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(map[string]string{UserKey: "admin"}))

	store := NewStore(kv)
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, "admin", store.Current().Username)
}

func TestStore_ClearRemovesBothKeys(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)
	require.NoError(t, store.Save("tok123", "admin"))

	require.NoError(t, store.Clear())

	_, err := kv.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = kv.Get(UserKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.IsAuthenticated())
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	once := NewStore(NewMemoryKV())
	twice := NewStore(NewMemoryKV())
	require.NoError(t, once.Save("tok", "u"))
	require.NoError(t, twice.Save("tok", "u"))

	require.NoError(t, once.Clear())
	require.NoError(t, twice.Clear())
	require.NoError(t, twice.Clear())

	assert.Equal(t, once.Current(), twice.Current())
	assert.Equal(t, once.IsAuthenticated(), twice.IsAuthenticated())
	assert.Equal(t, Session{}, twice.Current())
}

func TestStore_ClearOnEmptyStore(t *testing.T) {
	store := NewStore(NewMemoryKV())
	assert.NoError(t, store.Clear())
}

func TestStore_SubscribeAfterSaveAndClear(t *testing.T) {
	store := NewStore(NewMemoryKV())

	var seen []Session
	unsubscribe := store.Subscribe(func(s Session) {
		seen = append(seen, s)
	})

	require.NoError(t, store.Save("tok123", "admin"))
	require.NoError(t, store.Clear())

	require.Len(t, seen, 2)
	assert.Equal(t, Session{Token: "tok123", Username: "admin"}, seen[0])
	assert.Equal(t, Session{}, seen[1])

	unsubscribe()
	require.NoError(t, store.Save("again", "admin"))
	assert.Len(t, seen, 2)
}

func TestStore_WriteErrors(t *testing.T) {
	store := NewStore(failingKV{NewMemoryKV()})

	called := false
	store.Subscribe(func(Session) { called = true })

	assert.Error(t, store.Save("tok", "u"))
	assert.Error(t, store.Clear())
	assert.False(t, called, "subscribers must not be notified of failed writes")
}
