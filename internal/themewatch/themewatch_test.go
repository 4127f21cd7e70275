package themewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/quadplot/pkg/render"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("background: \"#ffffff\"\n"), 0644))

	themes := make(chan render.Theme, 4)
	w, err := New(path, func(th render.Theme) { themes <- th }, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// unrelated files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	// a broken theme keeps the previous one
	require.NoError(t, os.WriteFile(path, []byte("background: nope\n"), 0644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("background: \"#101010\"\n"), 0644))

	select {
	case th := <-themes:
		assert.Equal(t, "#101010", th.Background)
		assert.Equal(t, render.DefaultTheme().Curve, th.Curve, "unset fields keep defaults")
	case <-time.After(5 * time.Second):
		t.Fatal("theme was not reloaded")
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "theme.yaml"), func(render.Theme) {}, nil)
	assert.Error(t, err)
}
