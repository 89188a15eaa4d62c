package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SaveLoadDelete(t *testing.T) {
	ds := NewStorage(t.TempDir())
	snap := Snapshot{
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Entries: []SnapshotEntry{
			{Type: "greeter", Qualifier: "english", Value: "hello"},
			{Type: "list", Params: "string", Value: "a,b"},
		},
	}

	require.NoError(t, ds.Save("morning", snap))
	loaded, err := ds.Load("morning")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	names, err := ds.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"morning"}, names)

	require.NoError(t, ds.Delete("morning"))
	_, err = ds.Load("morning")
	assert.ErrorContains(t, err, "not found")
	assert.ErrorContains(t, ds.Delete("morning"), "not found")
}

func TestStorage_EmptyName(t *testing.T) {
	ds := NewStorage(t.TempDir())
	assert.Error(t, ds.Save("", Snapshot{}))
	_, err := ds.Load("")
	assert.Error(t, err)
	assert.Error(t, ds.Delete(""))
}

func TestStorage_ListMissingDirectory(t *testing.T) {
	names, err := NewStorage(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStorage_MalformedSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, snapshotDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotDir, "broken.yaml"), []byte("entries: {"), 0644))

	_, err := NewStorage(dir).Load("broken")
	assert.True(t, IsConfigurationError(err))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with spaces", "with_spaces"},
		{"a/b:c*d?e", "a_b_c_d_e"},
		{"../escape", "escape"},
		{"  __  ", "unnamed"},
		{"dots.in.name", "dots_in_name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
