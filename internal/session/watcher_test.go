package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_NotifiesOnExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewStore(NewFileKV(path))

	var mu sync.Mutex
	var seen []Session
	store.Subscribe(func(s Session) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, store, zerolog.Nop())
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	// Another "tab" logs in through its own store on the same file
	otherTab := NewStore(NewFileKV(path))
	require.NoError(t, otherTab.Save("tok123", "admin"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1].Token == "tok123"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, store.IsAuthenticated())

	// ...and logs out again
	require.NoError(t, otherTab.Clear())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !seen[len(seen)-1].Authenticated()
	}, 5*time.Second, 20*time.Millisecond)
	assert.False(t, store.IsAuthenticated())
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	w := NewWatcher(path, NewStore(NewFileKV(path)), zerolog.Nop())

	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
