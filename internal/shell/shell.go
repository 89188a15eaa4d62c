package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/giantswarm/registrar/internal/config"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/pkg/logging"
)

// commandExecutionTimeout bounds a single command. wait has its own,
// shorter timeout.
const commandExecutionTimeout = 5 * time.Minute

// Options configures a Shell.
type Options struct {
	// ConfigPath is the configuration directory. It holds the history file,
	// the snapshots and config.yaml. Empty disables all three.
	ConfigPath string

	Config config.ShellConfig

	// Output receives command output; nil means stdout
	Output io.Writer

	Color bool

	// Quiet disables the wait spinner.
	Quiet bool
}

// Shell is an interactive command loop over a registry.
type Shell struct {
	session  *Session
	commands *Registry
	out      *Output
	options  Options

	mu sync.Mutex
	rl *readline.Instance
}

// New creates a shell operating on r.
func New(r *registry.Registry, opts Options) *Shell {
	if opts.Config.Prompt == "" {
		opts.Config.Prompt = config.DefaultPrompt
	}
	out := NewOutput(opts.Output, opts.Color)

	var storage *config.Storage
	if opts.ConfigPath != "" {
		storage = config.NewStorage(opts.ConfigPath)
	}

	s := &Shell{
		session:  NewSession(r, storage, out, opts.Quiet),
		commands: NewRegistry(),
		out:      out,
		options:  opts,
	}
	s.registerCommands()
	return s
}

func (s *Shell) registerCommands() {
	base := newBase(s.session)
	s.commands.Register("put", &PutCommand{base})
	s.commands.Register("get", &GetCommand{base})
	s.commands.Register("getall", &GetAllCommand{base})
	s.commands.Register("ids", &IDsCommand{base})
	s.commands.Register("rm", &RemoveCommand{base})
	s.commands.Register("watch", &WatchCommand{base})
	s.commands.Register("unwatch", &UnwatchCommand{base})
	s.commands.Register("wait", &WaitCommand{base})
	s.commands.Register("invalidate", &InvalidateCommand{base})
	s.commands.Register("pending", &PendingCommand{base})
	s.commands.Register("timeout", &TimeoutCommand{base})
	s.commands.Register("save", &SaveCommand{base})
	s.commands.Register("load", &LoadCommand{base})
	s.commands.Register("snapshots", &SnapshotsCommand{base})
	s.commands.Register("help", &HelpCommand{baseCommand: base, registry: s.commands})
	s.commands.Register("exit", &ExitCommand{base})
}

// Session returns the shell's session.
func (s *Shell) Session() *Session { return s.session }

// Execute parses and runs one input line. It returns ErrExit for the exit
// command.
func (s *Shell) Execute(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	command, exists := s.commands.Get(name)
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}

	commandCtx, cancel := context.WithTimeout(ctx, commandExecutionTimeout)
	defer cancel()
	return command.Execute(commandCtx, parts[1:])
}

// ApplyConfig applies a reloaded configuration: the registry's default
// timeout and the prompt. Other settings need a restart.
func (s *Shell) ApplyConfig(cfg config.Config) {
	s.session.registry.SetDefaultTimeout(cfg.Registry.Timeout)

	s.mu.Lock()
	if cfg.Shell.Prompt != "" {
		s.options.Config.Prompt = cfg.Shell.Prompt
		if s.rl != nil {
			s.rl.SetPrompt(cfg.Shell.Prompt)
		}
	}
	s.mu.Unlock()

	logging.Info("Shell", "Applied reloaded configuration (timeout %s)", s.session.registry.Timeout())
}

func (s *Shell) historyFile() string {
	file := s.options.Config.HistoryFile
	switch {
	case file == "":
		return ""
	case filepath.IsAbs(file):
		return file
	case s.options.ConfigPath == "":
		return ""
	}
	return filepath.Join(s.options.ConfigPath, file)
}

func (s *Shell) createCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range s.commands.AllCompletions() {
		cmd, _ := s.commands.Get(name)
		items = append(items, readline.PcItem(name, readline.PcItemDynamic(cmd.Completions)))
	}
	return readline.NewPrefixCompleter(items...)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// startConfigWatcher reloads config.yaml while the shell runs, when enabled.
func (s *Shell) startConfigWatcher() *config.Watcher {
	if !s.options.Config.Watch || s.options.ConfigPath == "" {
		return nil
	}
	w, err := config.NewWatcher(config.WatcherConfig{
		ConfigPath: s.options.ConfigPath,
		OnChange:   s.ApplyConfig,
		OnError: func(err error) {
			s.out.Notify("Configuration reload failed, keeping previous settings: %v", err)
		},
	})
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		logging.Warn("Shell", "Configuration hot reload disabled: %v", err)
		return nil
	}
	return w
}

// Run reads and executes commands until exit, EOF or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	if s.options.ConfigPath != "" {
		if err := os.MkdirAll(s.options.ConfigPath, 0755); err != nil {
			logging.Warn("Shell", "Cannot create %s: %v", s.options.ConfigPath, err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.options.Config.Prompt,
		HistoryFile:     s.historyFile(),
		AutoComplete:    s.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	s.mu.Lock()
	s.rl = rl
	s.mu.Unlock()
	s.out.SetRefresh(rl.Refresh)

	if w := s.startConfigWatcher(); w != nil {
		defer w.Stop()
	}
	defer s.closeSession(ctx)

	s.out.Info("registrar shell started. Type 'help' for available commands. Use TAB for completion.")

	for {
		select {
		case <-ctx.Done():
			s.out.Info("Shell shutting down...")
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			s.out.Info("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := s.Execute(ctx, input); err != nil {
			if errors.Is(err, ErrExit) {
				s.out.Info("Goodbye!")
				return nil
			}
			s.out.Error("Error: %v", err)
		}
	}
}

func (s *Shell) closeSession(ctx context.Context) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.session.registry.Timeout())
	defer cancel()
	if err := s.session.Close(closeCtx); err != nil {
		logging.Warn("Shell", "Failed to remove watches: %v", err)
	}
}
