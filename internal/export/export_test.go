package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2025, 7, 26, 14, 5, 9, 0, time.UTC)

func TestRender(t *testing.T) {
	doc := Render("  You have 3 events today.\n", generated)

	assert.Equal(t, "# Scheduler Result\n\n"+
		"**Generated:** 2025-07-26 at 14:05  \n"+
		"**Created by:** Scheduler Agent\n\n"+
		"---\n\n"+
		"You have 3 events today.\n\n"+
		"---\n\n"+
		"*This schedule was generated automatically. Verify times and event details before relying on your calendar.*\n", doc)
}

func TestSave(t *testing.T) {
	fsys := afero.NewMemMapFs()
	e := New("exports", WithFs(fsys), WithClock(func() time.Time { return generated }))

	path, err := e.Save("first")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("exports", "scheduler_2025-07-26_14-05-09.md"), path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nfirst\n")

	second, err := e.Save("second")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("exports", "scheduler_2025-07-26_14-05-09-1.md"), second)

	data, err = afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nfirst\n", "existing export must not be overwritten")
}

func TestSave_Empty(t *testing.T) {
	e := New("exports", WithFs(afero.NewMemMapFs()))
	_, err := e.Save("  \n")
	assert.Error(t, err)
}

func TestSave_OsFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	e := New(dir, WithClock(func() time.Time { return generated }))

	path, err := e.Save("on disk")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "on disk")
	assert.Equal(t, dir, e.Dir())
}

func TestNew_DefaultDir(t *testing.T) {
	assert.Equal(t, DefaultDir, New("").Dir())
}
