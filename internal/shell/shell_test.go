package shell

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/config"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/internal/strategy"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func newTestShell(t *testing.T, configPath string) (*Shell, *lockedBuffer) {
	t.Helper()
	cfg := registry.DefaultConfig()
	cfg.ExecutionStrategy = strategy.SameThread
	cfg.Timeout = time.Second
	r, err := registry.New(cfg)
	require.NoError(t, err)
	t.Cleanup(r.Close)

	out := &lockedBuffer{}
	return New(r, Options{ConfigPath: configPath, Output: out, Quiet: true}), out
}

func run(t *testing.T, s *Shell, line string) {
	t.Helper()
	require.NoError(t, s.Execute(context.Background(), line), line)
}

var tokenPattern = regexp.MustCompile(`token ([0-9a-f]{8})`)

func lastToken(t *testing.T, out *lockedBuffer) string {
	t.Helper()
	matches := tokenPattern.FindAllStringSubmatch(out.String(), -1)
	require.NotEmpty(t, matches, "no token in output %q", out.String())
	return matches[len(matches)-1][1]
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected api.ID
		rest     []string
		wantErr  bool
	}{
		{
			name:     "plain type",
			args:     []string{"greeter", "hello"},
			expected: api.NewID(api.NewType("greeter", "")),
			rest:     []string{"hello"},
		},
		{
			name:     "attached qualifier",
			args:     []string{"greeter@english", "hello", "world"},
			expected: api.NewNamedID(api.NewType("greeter", ""), "english"),
			rest:     []string{"hello", "world"},
		},
		{
			name:     "separate qualifier",
			args:     []string{"greeter", "@german", "hallo"},
			expected: api.NewNamedID(api.NewType("greeter", ""), "german"),
			rest:     []string{"hallo"},
		},
		{
			name:     "type parameters",
			args:     []string{"box[int]"},
			expected: api.NewID(api.NewType("box", "[int]")),
			rest:     []string{},
		},
		{name: "missing type", args: nil, wantErr: true},
		{name: "empty qualifier", args: []string{"greeter@"}, wantErr: true},
		{name: "unclosed params", args: []string{"box[int"}, wantErr: true},
		{name: "params without name", args: []string{"[int]"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, rest, err := parseID(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(id), "got %s, want %s", id, tt.expected)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestShell_PutAndGet(t *testing.T) {
	s, out := newTestShell(t, "")

	run(t, s, "put greeter@english hello there")
	run(t, s, "put greeter@german hallo")
	out.Reset()

	run(t, s, "get greeter@german")
	assert.Equal(t, "hallo\n", out.String())

	out.Reset()
	run(t, s, "get greeter")
	assert.Equal(t, "hello there\n", out.String(), "an unqualified get returns the oldest supplier")

	err := s.Execute(context.Background(), "get missing")
	assert.ErrorContains(t, err, "no supplier registered for missing")

	err = s.Execute(context.Background(), "put greeter")
	assert.ErrorContains(t, err, "usage: put")
}

func TestShell_GetAllAndIDs(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "put greeter@english hello")
	run(t, s, "put greeter@german hallo")
	run(t, s, "put counter 1")
	out.Reset()

	run(t, s, "getall greeter")
	table := out.String()
	assert.Contains(t, table, "TOKEN")
	assert.Contains(t, table, "hello")
	assert.Contains(t, table, "hallo")
	assert.NotContains(t, table, "counter")
	assert.Less(t, strings.Index(table, "hello"), strings.Index(table, "hallo"))

	out.Reset()
	run(t, s, "ids")
	assert.Contains(t, out.String(), "greeter@english")
	assert.Contains(t, out.String(), "counter")

	out.Reset()
	run(t, s, `ids --template {{range .}}{{.ID | upper}};{{end}}`)
	assert.Contains(t, out.String(), "GREETER@ENGLISH;")
	assert.Contains(t, out.String(), "COUNTER;")

	err := s.Execute(context.Background(), "ids --template {{.Nope")
	assert.ErrorContains(t, err, "invalid template")
}

func TestShell_RemoveByTokenPrefix(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "put greeter hello")
	token := lastToken(t, out)

	run(t, s, "rm "+token[:4])
	assert.Empty(t, s.Session().Registry().IDs())

	err := s.Execute(context.Background(), "rm "+token)
	assert.ErrorContains(t, err, "no supplier with token")
}

func TestShell_WatchAndUnwatch(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "put greeter@english hello")

	run(t, s, "watch greeter")
	assert.Contains(t, out.String(), "ADD greeter@english = hello", "existing suppliers are back-filled")
	token := lastToken(t, out)

	run(t, s, "put greeter@german hallo")
	assert.Contains(t, out.String(), "ADD greeter@german = hallo")

	out.Reset()
	run(t, s, "unwatch")
	assert.Contains(t, out.String(), token)

	run(t, s, "unwatch "+token)
	out.Reset()
	run(t, s, "put greeter@french bonjour")
	assert.NotContains(t, out.String(), "ADD greeter@french")

	err := s.Execute(context.Background(), "unwatch "+token)
	assert.ErrorContains(t, err, "no watch with token")
}

func TestShell_WatchReportsRemove(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "watch greeter")
	run(t, s, "put greeter hello")
	token := lastToken(t, out)

	run(t, s, "rm "+token)
	assert.Contains(t, out.String(), "REMOVE greeter")
}

func TestShell_Wait(t *testing.T) {
	s, out := newTestShell(t, "")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = s.Session().Registry().Put(context.Background(),
			api.NewNamedID(api.NewType("greeter", ""), "english"), api.Instance("hello"))
	}()

	run(t, s, "wait greeter@english 2s")
	assert.Contains(t, out.String(), "hello")

	err := s.Execute(context.Background(), "wait missing 20ms")
	require.Error(t, err)
	assert.True(t, api.IsTimeout(err), "got %v", err)

	err = s.Execute(context.Background(), "wait greeter soon")
	assert.ErrorContains(t, err, "invalid timeout")
}

func TestShell_Invalidate(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "put greeter hello")
	run(t, s, "put counter 1")
	run(t, s, "watch greeter")

	run(t, s, "invalidate greeter")
	assert.Contains(t, out.String(), "REMOVE greeter")
	ids := s.Session().Registry().IDs()
	require.Len(t, ids, 1)
	assert.Equal(t, "counter", ids[0].String())
	assert.Empty(t, s.Session().watchList(), "watches on an invalidated type are forgotten")
}

func TestShell_PendingAndTimeout(t *testing.T) {
	s, out := newTestShell(t, "")

	run(t, s, "pending")
	assert.Contains(t, out.String(), "No pending watcher notifications")

	out.Reset()
	run(t, s, "pending --wait")
	assert.Contains(t, out.String(), "No pending watcher notifications")

	run(t, s, "timeout 250ms")
	assert.Equal(t, 250*time.Millisecond, s.Session().Registry().Timeout())

	out.Reset()
	run(t, s, "timeout")
	assert.Equal(t, "250ms\n", out.String())

	assert.Error(t, s.Execute(context.Background(), "timeout -1s"))
}

func TestShell_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, out := newTestShell(t, dir)
	run(t, s, "put greeter@english hello")
	run(t, s, "put box[int] 42")
	run(t, s, "save demo")

	out.Reset()
	run(t, s, "snapshots")
	assert.Contains(t, out.String(), "demo")

	run(t, s, "put greeter@german hallo")
	run(t, s, "load demo --replace")

	r := s.Session().Registry()
	v, ok := r.Get(api.NewNamedID(api.NewType("greeter", ""), "english"))
	require.True(t, ok)
	assert.Equal(t, "hello", v.Get())
	v, ok = r.Get(api.NewID(api.NewType("box", "[int]")))
	require.True(t, ok)
	assert.Equal(t, "42", v.Get())
	_, ok = r.Get(api.NewNamedID(api.NewType("greeter", ""), "german"))
	assert.False(t, ok, "--replace removes values not in the snapshot")

	snapshot, err := config.NewStorage(dir).Load("demo")
	require.NoError(t, err)
	assert.Len(t, snapshot.Entries, 2)

	run(t, s, "snapshots rm demo")
	assert.Error(t, s.Execute(context.Background(), "load demo"))
}

func TestShell_SnapshotsNeedConfigPath(t *testing.T) {
	s, _ := newTestShell(t, "")
	for _, line := range []string{"save x", "load x", "snapshots"} {
		err := s.Execute(context.Background(), line)
		assert.ErrorIs(t, err, errNoStorage, line)
	}
}

func TestShell_HelpExitAndUnknown(t *testing.T) {
	s, out := newTestShell(t, "")

	run(t, s, "help")
	for _, name := range []string{"put", "getall", "watch", "wait", "invalidate", "save"} {
		assert.Contains(t, out.String(), name)
	}

	out.Reset()
	run(t, s, "? rm")
	assert.Contains(t, out.String(), "Usage: rm <token>...")
	assert.Contains(t, out.String(), "Aliases: [remove del]")

	assert.ErrorIs(t, s.Execute(context.Background(), "exit"), ErrExit)
	assert.ErrorIs(t, s.Execute(context.Background(), "QUIT"), ErrExit)
	assert.ErrorContains(t, s.Execute(context.Background(), "frobnicate"), "unknown command")
	assert.NoError(t, s.Execute(context.Background(), "   "))
}

func TestShell_ApplyConfig(t *testing.T) {
	s, _ := newTestShell(t, "")
	cfg := config.DefaultConfig()
	cfg.Registry.Timeout = 3 * time.Second
	cfg.Shell.Prompt = "reg> "

	s.ApplyConfig(cfg)
	assert.Equal(t, 3*time.Second, s.Session().Registry().Timeout())
	assert.Equal(t, "reg> ", s.options.Config.Prompt)
}

func TestShell_HistoryFile(t *testing.T) {
	s, _ := newTestShell(t, "/cfg")
	s.options.Config.HistoryFile = "history"
	assert.Equal(t, "/cfg/history", s.historyFile())

	s.options.Config.HistoryFile = "/tmp/h"
	assert.Equal(t, "/tmp/h", s.historyFile())

	s.options.ConfigPath = ""
	s.options.Config.HistoryFile = "history"
	assert.Empty(t, s.historyFile())
}

func TestSession_CloseRemovesWatches(t *testing.T) {
	s, out := newTestShell(t, "")
	run(t, s, "watch greeter")
	require.Len(t, s.Session().watchList(), 1)

	require.NoError(t, s.Session().Close(context.Background()))
	assert.Empty(t, s.Session().watchList())

	out.Reset()
	run(t, s, "put greeter hello")
	assert.NotContains(t, out.String(), "ADD")
}

func TestRegistry_Completions(t *testing.T) {
	s, _ := newTestShell(t, "")
	all := s.commands.AllCompletions()
	assert.Contains(t, all, "put")
	assert.Contains(t, all, "?")
	assert.Contains(t, all, "quit")

	run(t, s, "put greeter hello")
	cmd, ok := s.commands.Get("get")
	require.True(t, ok)
	assert.Equal(t, []string{"greeter"}, cmd.Completions(""))

	assert.NotNil(t, s.createCompleter())
}
