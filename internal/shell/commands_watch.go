package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"

	"github.com/giantswarm/registrar/internal/api"
	textutil "github.com/giantswarm/registrar/pkg/strings"
)

// WatchCommand installs a watcher that prints every ADD and REMOVE.
type WatchCommand struct{ baseCommand }

func (c *WatchCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	out := c.out
	watcher := &api.WatcherFuncs{
		OnAdd: func(reg *api.SupplierRegistration) {
			out.Notify("[watch %s] ADD %s = %s", id, reg.ID(), textutil.Ellipsize(reg.Get(), textutil.DefaultValueMaxLen))
		},
		OnRemove: func(reg *api.SupplierRegistration) {
			out.Notify("[watch %s] REMOVE %s", id, reg.ID())
		},
	}

	reg, err := c.session.registry.AddWatcher(ctx, api.MatchID(id), watcher)
	if err != nil {
		return err
	}
	c.session.addWatch(reg)
	c.out.Success("Watching %s (token %s)", id, shortToken(reg))
	return nil
}

func (c *WatchCommand) Usage() string                     { return "watch <type>[@qualifier]" }
func (c *WatchCommand) Description() string               { return "Print registrations and removals for a type" }
func (c *WatchCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *WatchCommand) Aliases() []string                 { return c.noAliases() }

// UnwatchCommand removes a watcher installed with watch. Without arguments
// it lists the active watches.
type UnwatchCommand struct{ baseCommand }

func (c *UnwatchCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		watches := c.session.watchList()
		if len(watches) == 0 {
			c.out.Empty("No active watches")
			return nil
		}
		rows := make([][]interface{}, 0, len(watches))
		for _, reg := range watches {
			rows = append(rows, []interface{}{shortToken(reg), reg.ID().String()})
		}
		c.out.Table([]string{"TOKEN", "WATCHING"}, rows)
		return nil
	}

	for _, prefix := range args {
		reg, err := c.session.takeWatch(prefix)
		if err != nil {
			return err
		}
		if _, err := c.session.registry.RemoveWatcher(ctx, reg); err != nil {
			return err
		}
		c.out.Success("Stopped watching %s (token %s)", reg.ID(), shortToken(reg))
	}
	return nil
}

func (c *UnwatchCommand) Usage() string       { return "unwatch [token...]" }
func (c *UnwatchCommand) Description() string { return "Remove watches, or list them" }
func (c *UnwatchCommand) Completions(input string) []string {
	var out []string
	for _, reg := range c.session.watchList() {
		out = append(out, shortToken(reg))
	}
	return out
}
func (c *UnwatchCommand) Aliases() []string { return []string{"watches"} }

// WaitCommand blocks until a value is registered for an ID.
type WaitCommand struct{ baseCommand }

func (c *WaitCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}
	timeout := c.session.registry.Timeout()
	if len(rest) > 0 {
		timeout, err = time.ParseDuration(rest[0])
		if err != nil || timeout <= 0 {
			return fmt.Errorf("invalid timeout %q", rest[0])
		}
	}

	b, err := c.session.registry.NewBlockingSupplier(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(context.WithoutCancel(ctx)); err != nil {
			c.out.Error("Failed to release blocking supplier for %s: %v", id, err)
		}
	}()

	if !c.session.quiet {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.out.Writer()))
		s.Suffix = fmt.Sprintf(" Waiting for %s...", id)
		s.Start()
		defer s.Stop()
	}

	v, err := b.GetSyncTimeout(ctx, timeout)
	if err != nil {
		return err
	}
	c.out.OutputLine("%v", v)
	return nil
}

func (c *WaitCommand) Usage() string                     { return "wait <type>[@qualifier] [timeout]" }
func (c *WaitCommand) Description() string               { return "Block until a value is registered for a type" }
func (c *WaitCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *WaitCommand) Aliases() []string                 { return c.noAliases() }

// InvalidateCommand drops every supplier and watcher of the given types.
type InvalidateCommand struct{ baseCommand }

func (c *InvalidateCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	types := make([]api.Type, 0, len(args))
	for _, arg := range args {
		t, err := parseType(arg)
		if err != nil {
			return err
		}
		types = append(types, t)
	}

	if err := c.session.registry.Hook().InvalidateAll(ctx, types); err != nil {
		return err
	}
	c.session.forgetWatches(types)
	c.out.Success("Invalidated %d type(s)", len(types))
	return nil
}

func (c *InvalidateCommand) Usage() string                     { return "invalidate <type>..." }
func (c *InvalidateCommand) Description() string               { return "Remove all suppliers and watchers of types" }
func (c *InvalidateCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *InvalidateCommand) Aliases() []string                 { return c.noAliases() }

// PendingCommand reports watcher notifications still running.
type PendingCommand struct{ baseCommand }

func (c *PendingCommand) Execute(ctx context.Context, args []string) error {
	hook := c.session.registry.Hook()
	if len(args) == 0 {
		if hook.HasPendingListenerUpdateTasks() {
			c.out.OutputLine("Watcher notifications are still running")
		} else {
			c.out.OutputLine("No pending watcher notifications")
		}
		return nil
	}
	if args[0] != "--wait" {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	done := make(chan struct{})
	hook.AddEndOfListenerUpdateTasksListener(api.CompletionFunc(func() { close(done) }))
	select {
	case <-done:
		c.out.OutputLine("No pending watcher notifications")
		return nil
	case <-ctx.Done():
		return api.NewInterruptedError("pending", ctx.Err())
	}
}

func (c *PendingCommand) Usage() string                     { return "pending [--wait]" }
func (c *PendingCommand) Description() string               { return "Report or wait for running watcher notifications" }
func (c *PendingCommand) Completions(input string) []string { return []string{"--wait"} }
func (c *PendingCommand) Aliases() []string                 { return c.noAliases() }

// TimeoutCommand shows or changes the registry's default timeout.
type TimeoutCommand struct{ baseCommand }

func (c *TimeoutCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.out.OutputLine("%s", c.session.registry.Timeout())
		return nil
	}
	d, err := time.ParseDuration(args[0])
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout %q", args[0])
	}
	c.session.registry.SetDefaultTimeout(d)
	c.out.Success("Default timeout set to %s", d)
	return nil
}

func (c *TimeoutCommand) Usage() string                     { return "timeout [duration]" }
func (c *TimeoutCommand) Description() string               { return "Show or set the default notification timeout" }
func (c *TimeoutCommand) Completions(input string) []string { return nil }
func (c *TimeoutCommand) Aliases() []string                 { return c.noAliases() }
