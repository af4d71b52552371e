package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv := NewFileKV(path)

	_, err := kv.Get(TokenKey)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(map[string]string{TokenKey: "tok123", UserKey: "admin"}))

	// A second instance sees the same data, as another process would
	other := NewFileKV(path)
	token, err := other.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)

	user, err := other.Get(UserKey)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
}

func TestFileKV_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	path := filepath.Join(t.TempDir(), "session.json")
	kv := NewFileKV(path)
	require.NoError(t, kv.Set(map[string]string{TokenKey: "secret"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileKV_DeleteMissingFile(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, kv.Delete(TokenKey, UserKey))

	_, err := os.Stat(kv.Path())
	assert.ErrorIs(t, err, os.ErrNotExist, "delete must not create the file")
}

func TestFileKV_DeleteKeepsOtherKeys(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, kv.Set(map[string]string{TokenKey: "t", UserKey: "u", "theme": "dark"}))

	require.NoError(t, kv.Delete(TokenKey, UserKey))

	theme, err := kv.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	_, err = kv.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	kv := NewFileKV(path)
	_, err := kv.Get(TokenKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	// A store over a corrupt file reports anonymous
	assert.False(t, NewStore(kv).IsAuthenticated())
}

func TestFileKV_CorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewStore(NewFileKV(path))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	require.NoError(t, os.WriteFile(path, []byte("{\"token\": "), 0o600))
	require.NoError(t, store.Save("tok123", "admin"))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, Session{Token: "tok123", Username: "admin"}, NewStore(NewFileKV(path)).Current())
}

func TestFileKV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := NewFileKV(path).Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
