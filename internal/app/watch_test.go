package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileWatcherDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	w := NewFileWatcher(path, 5*time.Millisecond)
	changed := make(chan struct{}, 4)
	w.OnChange(func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	select {
	case <-changed:
		t.Fatal("change reported before the file was touched")
	case <-time.After(30 * time.Millisecond):
	}

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestFileWatcherResetBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.json")
	w := NewFileWatcher(path, time.Hour)
	require.False(t, w.checkForUpdate())

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	require.True(t, w.checkForUpdate())
	require.False(t, w.checkForUpdate())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	w.ResetBaseline()
	require.False(t, w.checkForUpdate())
}
