package config

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloads struct {
	mu      sync.Mutex
	configs []Config
	errs    []error
}

func (r *reloads) onChange(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
}

func (r *reloads) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reloads) last() (Config, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return Config{}, 0, len(r.errs)
	}
	return r.configs[len(r.configs)-1], len(r.configs), len(r.errs)
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{})
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "registry:\n  timeout: 1s\n")

	got := &reloads{}
	w, err := NewWatcher(WatcherConfig{
		ConfigPath:    dir,
		Debounce:      20 * time.Millisecond,
		WatchInterval: 20 * time.Millisecond,
		OnChange:      got.onChange,
		OnError:       got.onError,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())

	writeConfigFile(t, dir, "registry:\n  timeout: 3s\n")
	require.Eventually(t, func() bool {
		cfg, n, _ := got.last()
		return n > 0 && cfg.Registry.Timeout == 3*time.Second
	}, 5*time.Second, 10*time.Millisecond)

	writeConfigFile(t, dir, "registry:\n  timeout: -1s\n")
	require.Eventually(t, func() bool {
		_, _, errs := got.last()
		return errs > 0
	}, 5*time.Second, 10*time.Millisecond, "invalid updates are reported")
}

func TestWatcher_PollingFallback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet")

	got := &reloads{}
	w, err := NewWatcher(WatcherConfig{
		ConfigPath:    dir,
		Debounce:      10 * time.Millisecond,
		WatchInterval: 10 * time.Millisecond,
		OnChange:      got.onChange,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	time.Sleep(30 * time.Millisecond)
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	require.NoError(t, Save(dir, cfg))

	require.Eventually(t, func() bool {
		cfg, n, _ := got.last()
		return n > 0 && cfg.LogLevel == "warn"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(WatcherConfig{ConfigPath: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}
