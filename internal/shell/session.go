package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/config"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/pkg/logging"
)

// shortTokenLen is how many characters of a registration token are shown.
// Commands accept any unique prefix.
const shortTokenLen = 8

// Session is the state shared by the commands of one shell: the registry,
// the snapshot storage and the watchers the user installed.
type Session struct {
	registry *registry.Registry
	storage  *config.Storage
	out      *Output
	quiet    bool

	mu      sync.Mutex
	watches map[string]*api.WatcherRegistration // full token -> registration
}

// NewSession creates a session over r. storage may be nil, which disables
// the snapshot commands. quiet disables the progress spinner.
func NewSession(r *registry.Registry, storage *config.Storage, out *Output, quiet bool) *Session {
	return &Session{
		registry: r,
		storage:  storage,
		out:      out,
		quiet:    quiet,
		watches:  make(map[string]*api.WatcherRegistration),
	}
}

// Registry returns the registry the session operates on.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Close removes every watcher installed through the session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	regs := make([]api.Registration, 0, len(s.watches))
	for _, reg := range s.watches {
		regs = append(regs, reg)
	}
	s.watches = make(map[string]*api.WatcherRegistration)
	s.mu.Unlock()

	if len(regs) == 0 {
		return nil
	}
	return s.registry.RemoveAll(ctx, regs)
}

func shortToken(reg api.Registration) string {
	return reg.Token().String()[:shortTokenLen]
}

// parseType reads "name" or "name[params]".
func parseType(s string) (api.Type, error) {
	raw, params := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return api.Type{}, fmt.Errorf("malformed type %q: missing closing bracket", s)
		}
		raw, params = s[:i], s[i:]
	}
	if raw == "" {
		return api.Type{}, fmt.Errorf("malformed type %q: empty name", s)
	}
	return api.NewType(raw, params), nil
}

// parseID reads an ID from the head of args. The qualifier may be attached
// ("greeter@english") or given as the next word ("greeter @english"). The
// remaining words are returned.
func parseID(args []string) (api.ID, []string, error) {
	if len(args) == 0 {
		return api.ID{}, nil, errors.New("missing type")
	}
	spec, rest := args[0], args[1:]

	qualifier, qualified := "", false
	if i := strings.IndexByte(spec, '@'); i >= 0 {
		spec, qualifier, qualified = spec[:i], spec[i+1:], true
	} else if len(rest) > 0 && strings.HasPrefix(rest[0], "@") {
		qualifier, qualified = rest[0][1:], true
		rest = rest[1:]
	}
	if qualified && qualifier == "" {
		return api.ID{}, nil, fmt.Errorf("empty qualifier in %q", args[0])
	}

	t, err := parseType(spec)
	if err != nil {
		return api.ID{}, nil, err
	}
	return newShellID(t, qualifier), rest, nil
}

// newShellID builds the ID of a shell registration. Shell qualifiers are
// always string instances.
func newShellID(t api.Type, qualifier string) api.ID {
	if qualifier == "" {
		return api.NewID(t)
	}
	return api.NewNamedID(t, qualifier)
}

// suppliers returns every supplier registration, ordered by ID and then by
// registration order.
func (s *Session) suppliers() []*api.SupplierRegistration {
	seen := make(map[string]bool)
	var out []*api.SupplierRegistration
	for _, id := range s.registry.IDs() {
		for _, reg := range s.registry.LookupAll(id) {
			token := reg.Token().String()
			if seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, reg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID().String() < out[j].ID().String()
	})
	return out
}

// findSupplier resolves a token prefix to a supplier registration.
func (s *Session) findSupplier(prefix string) (*api.SupplierRegistration, error) {
	var found *api.SupplierRegistration
	for _, reg := range s.suppliers() {
		if !strings.HasPrefix(reg.Token().String(), prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("token prefix %q is ambiguous", prefix)
		}
		found = reg
	}
	if found == nil {
		return nil, fmt.Errorf("no supplier with token %q", prefix)
	}
	return found, nil
}

func (s *Session) addWatch(reg *api.WatcherRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches[reg.Token().String()] = reg
}

// takeWatch resolves a token prefix and forgets the watch.
func (s *Session) takeWatch(prefix string) (*api.WatcherRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var key string
	for token := range s.watches {
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("token prefix %q is ambiguous", prefix)
		}
		key = token
	}
	if key == "" {
		return nil, fmt.Errorf("no watch with token %q", prefix)
	}
	reg := s.watches[key]
	delete(s.watches, key)
	return reg, nil
}

// forgetWatches drops the watches on types the registry just invalidated.
func (s *Session) forgetWatches(types []api.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, reg := range s.watches {
		for _, t := range types {
			if reg.ID().Type.Raw == t.Raw {
				delete(s.watches, token)
				logging.Debug("Shell", "Dropped watch %s on invalidated type %s", token[:shortTokenLen], t)
				break
			}
		}
	}
}

func (s *Session) watchList() []*api.WatcherRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*api.WatcherRegistration, 0, len(s.watches))
	for _, reg := range s.watches {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID().String() < out[j].ID().String()
	})
	return out
}

// typeNames lists the raw names of all registered types for completion.
func (s *Session) typeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range s.registry.IDs() {
		if !seen[id.Type.Raw] {
			seen[id.Type.Raw] = true
			names = append(names, id.Type.Raw)
		}
	}
	sort.Strings(names)
	return names
}

// snapshot captures every supplier whose value can be written back.
func (s *Session) snapshot() []config.SnapshotEntry {
	var entries []config.SnapshotEntry
	for _, reg := range s.suppliers() {
		id := reg.ID()
		entry := config.SnapshotEntry{
			Type:   id.Type.Raw,
			Params: id.Type.Params,
			Value:  fmt.Sprint(reg.Get()),
		}
		if id.IsQualified() {
			q, ok := id.Qualifier.Value.(string)
			if !ok {
				logging.Debug("Shell", "Skipping %s in snapshot: qualifier is not a name", id)
				continue
			}
			entry.Qualifier = q
		}
		entries = append(entries, entry)
	}
	return entries
}

func entryID(e config.SnapshotEntry) api.ID {
	return newShellID(api.NewType(e.Type, e.Params), e.Qualifier)
}
