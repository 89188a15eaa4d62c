package shell

import (
	"context"
	"errors"
	"sort"
)

// ErrExit is returned by a command to end the shell.
var ErrExit = errors.New("exit")

// Command is one shell command.
type Command interface {
	// Execute runs the command with the words following its name.
	Execute(ctx context.Context, args []string) error

	// Usage returns the usage string
	Usage() string

	// Description returns a one-line summary
	Description() string

	// Completions returns tab completions for the command's arguments.
	Completions(input string) []string

	// Aliases returns alternative names
	Aliases() []string
}

// Registry manages available commands for the shell.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}
	if primary, exists := r.aliases[name]; exists {
		if cmd, exists := r.commands[primary]; exists {
			return cmd, true
		}
	}
	return nil, false
}

// List returns all registered command names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllCompletions returns command names and aliases, sorted.
func (r *Registry) AllCompletions() []string {
	completions := r.List()
	for alias := range r.aliases {
		completions = append(completions, alias)
	}
	sort.Strings(completions)
	return completions
}
