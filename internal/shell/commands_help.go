package shell

import "context"

// HelpCommand shows available commands and usage information.
type HelpCommand struct {
	baseCommand
	registry *Registry
}

func (h *HelpCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		h.out.OutputLine("Available commands:")
		for _, name := range h.registry.List() {
			cmd, _ := h.registry.Get(name)
			h.out.OutputLine("  %-40s - %s", cmd.Usage(), cmd.Description())
		}
		h.out.OutputLine("")
		h.out.OutputLine("Types are written as name or name[params]; qualify an ID with @name.")
		h.out.OutputLine("Tokens may be shortened to any unique prefix.")
		return nil
	}

	name := args[0]
	if name == "?" {
		name = "help"
	}
	cmd, exists := h.registry.Get(name)
	if !exists {
		h.out.Error("Unknown command: %s", name)
		h.out.OutputLine("Use 'help' to see all available commands.")
		return nil
	}
	h.out.OutputLine("Command: %s", name)
	h.out.OutputLine("Description: %s", cmd.Description())
	h.out.OutputLine("Usage: %s", cmd.Usage())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		h.out.OutputLine("Aliases: %v", aliases)
	}
	return nil
}

func (h *HelpCommand) Usage() string                     { return "help [command]" }
func (h *HelpCommand) Description() string               { return "Show help information for commands" }
func (h *HelpCommand) Completions(input string) []string { return h.registry.AllCompletions() }
func (h *HelpCommand) Aliases() []string                 { return []string{"?"} }

// ExitCommand ends the shell.
type ExitCommand struct{ baseCommand }

func (e *ExitCommand) Execute(ctx context.Context, args []string) error { return ErrExit }
func (e *ExitCommand) Usage() string                                    { return "exit" }
func (e *ExitCommand) Description() string                              { return "Exit the shell" }
func (e *ExitCommand) Completions(input string) []string                { return nil }
func (e *ExitCommand) Aliases() []string                                { return []string{"quit", "q"} }
