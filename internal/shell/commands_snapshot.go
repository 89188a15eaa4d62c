package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/config"
)

var errNoStorage = errors.New("snapshots are not available: no configuration directory")

// SaveCommand writes the registry content to a named snapshot.
type SaveCommand struct{ baseCommand }

func (c *SaveCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	if c.session.storage == nil {
		return errNoStorage
	}

	snapshot := config.Snapshot{SavedAt: time.Now().UTC(), Entries: c.session.snapshot()}
	if err := c.session.storage.Save(args[0], snapshot); err != nil {
		return err
	}
	c.out.Success("Saved %d value(s) to snapshot %s", len(snapshot.Entries), args[0])
	return nil
}

func (c *SaveCommand) Usage() string                     { return "save <name>" }
func (c *SaveCommand) Description() string               { return "Save registered values to a snapshot" }
func (c *SaveCommand) Completions(input string) []string { return c.snapshotNames() }
func (c *SaveCommand) Aliases() []string                 { return c.noAliases() }

func (b *baseCommand) snapshotNames() []string {
	if b.session.storage == nil {
		return nil
	}
	names, err := b.session.storage.List()
	if err != nil {
		return nil
	}
	return names
}

// LoadCommand registers the values of a snapshot. With --replace the
// current suppliers are removed first, in the same action.
type LoadCommand struct{ baseCommand }

func (c *LoadCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	if c.session.storage == nil {
		return errNoStorage
	}
	name, replace := args[0], false
	if len(args) > 1 {
		if args[1] != "--replace" {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		replace = true
	}

	snapshot, err := c.session.storage.Load(name)
	if err != nil {
		return err
	}

	if replace {
		current := c.session.suppliers()
		regs := make([]api.Registration, len(current))
		for i, reg := range current {
			regs[i] = reg
		}
		if len(regs) > 0 {
			if err := c.session.registry.RemoveAll(ctx, regs); err != nil {
				return err
			}
		}
	}

	for _, entry := range snapshot.Entries {
		if _, err := c.session.registry.Put(ctx, entryID(entry), api.Instance(entry.Value)); err != nil {
			return fmt.Errorf("failed to restore %s: %w", entry.Type, err)
		}
	}
	c.out.Success("Loaded %d value(s) from snapshot %s (saved %s)",
		len(snapshot.Entries), name, snapshot.SavedAt.Local().Format(time.RFC3339))
	return nil
}

func (c *LoadCommand) Usage() string                     { return "load <name> [--replace]" }
func (c *LoadCommand) Description() string               { return "Register the values of a snapshot" }
func (c *LoadCommand) Completions(input string) []string { return c.snapshotNames() }
func (c *LoadCommand) Aliases() []string                 { return c.noAliases() }

// SnapshotsCommand lists snapshots or deletes one.
type SnapshotsCommand struct{ baseCommand }

func (c *SnapshotsCommand) Execute(ctx context.Context, args []string) error {
	if c.session.storage == nil {
		return errNoStorage
	}
	if len(args) > 0 {
		if args[0] != "rm" || len(args) != 2 {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		if err := c.session.storage.Delete(args[1]); err != nil {
			return err
		}
		c.out.Success("Deleted snapshot %s", args[1])
		return nil
	}

	names, err := c.session.storage.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		c.out.Empty("No snapshots saved")
		return nil
	}
	for _, name := range names {
		c.out.OutputLine("  %s", name)
	}
	return nil
}

func (c *SnapshotsCommand) Usage() string                     { return "snapshots [rm <name>]" }
func (c *SnapshotsCommand) Description() string               { return "List saved snapshots, or delete one" }
func (c *SnapshotsCommand) Completions(input string) []string { return append([]string{"rm"}, c.snapshotNames()...) }
func (c *SnapshotsCommand) Aliases() []string                 { return c.noAliases() }
