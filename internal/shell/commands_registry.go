package shell

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/giantswarm/registrar/internal/api"
	textutil "github.com/giantswarm/registrar/pkg/strings"
)

// baseCommand holds what every command needs.
type baseCommand struct {
	session *Session
	out     *Output
}

func newBase(s *Session) baseCommand {
	return baseCommand{session: s, out: s.out}
}

// parseArgs checks the minimum argument count.
func (b *baseCommand) parseArgs(args []string, minArgs int, usage string) ([]string, error) {
	if len(args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return args, nil
}

// typeCompletions offers the currently registered type names.
func (b *baseCommand) typeCompletions(string) []string {
	return b.session.typeNames()
}

func (b *baseCommand) supplierTokenCompletions(string) []string {
	var out []string
	for _, reg := range b.session.suppliers() {
		out = append(out, shortToken(reg))
	}
	return out
}

func (b *baseCommand) noAliases() []string { return nil }

// PutCommand registers a string value.
type PutCommand struct{ baseCommand }

func (c *PutCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 2, c.Usage())
	if err != nil {
		return err
	}
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	reg, err := c.session.registry.Put(ctx, id, api.Instance(strings.Join(rest, " ")))
	if err != nil {
		return err
	}
	c.out.Success("Registered %s (token %s)", reg.ID(), shortToken(reg))
	return nil
}

func (c *PutCommand) Usage() string                     { return "put <type>[@qualifier] <value>" }
func (c *PutCommand) Description() string               { return "Register a value under a type" }
func (c *PutCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *PutCommand) Aliases() []string                 { return []string{"add"} }

// GetCommand prints the oldest value registered for an ID.
type GetCommand struct{ baseCommand }

func (c *GetCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	reg, ok := c.session.registry.Lookup(id)
	if !ok {
		return fmt.Errorf("no supplier registered for %s", id)
	}
	c.out.OutputLine("%v", reg.Get())
	return nil
}

func (c *GetCommand) Usage() string                     { return "get <type>[@qualifier]" }
func (c *GetCommand) Description() string               { return "Print the oldest value registered for a type" }
func (c *GetCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *GetCommand) Aliases() []string                 { return c.noAliases() }

// GetAllCommand lists every registration matching an ID.
type GetAllCommand struct{ baseCommand }

func (c *GetAllCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	regs := c.session.registry.LookupAll(id)
	if len(regs) == 0 {
		c.out.Empty(fmt.Sprintf("No suppliers registered for %s", id))
		return nil
	}
	rows := make([][]interface{}, 0, len(regs))
	for _, reg := range regs {
		rows = append(rows, []interface{}{shortToken(reg), reg.ID().String(), textutil.Ellipsize(reg.Get(), textutil.DefaultValueMaxLen)})
	}
	c.out.Table([]string{"TOKEN", "ID", "VALUE"}, rows)
	return nil
}

func (c *GetAllCommand) Usage() string                     { return "getall <type>[@qualifier]" }
func (c *GetAllCommand) Description() string               { return "List every value registered for a type, oldest first" }
func (c *GetAllCommand) Completions(input string) []string { return c.typeCompletions(input) }
func (c *GetAllCommand) Aliases() []string                 { return []string{"all"} }

// idView is the data handed to an ids --template.
type idView struct {
	ID        string
	Type      string
	Params    string
	Qualifier string
	Count     int
}

// IDsCommand lists the registered IDs.
type IDsCommand struct{ baseCommand }

func (c *IDsCommand) Execute(ctx context.Context, args []string) error {
	var tpl string
	if len(args) > 0 {
		if args[0] != "--template" && args[0] != "-t" {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		tpl = strings.Join(args[1:], " ")
		if tpl == "" {
			return fmt.Errorf("usage: %s", c.Usage())
		}
	}

	var views []idView
	for _, id := range c.session.registry.IDs() {
		count := 0
		for _, reg := range c.session.registry.LookupAll(id) {
			if reg.ID().Equal(id) {
				count++
			}
		}
		views = append(views, idView{
			ID:        id.String(),
			Type:      id.Type.Raw,
			Params:    id.Type.Params,
			Qualifier: id.Qualifier.String(),
			Count:     count,
		})
	}

	if tpl != "" {
		rendered, err := renderTemplate(tpl, views)
		if err != nil {
			return err
		}
		c.out.Output("%s", rendered)
		if !strings.HasSuffix(rendered, "\n") {
			c.out.OutputLine("")
		}
		return nil
	}

	if len(views) == 0 {
		c.out.Empty("No suppliers registered")
		return nil
	}
	rows := make([][]interface{}, 0, len(views))
	for _, v := range views {
		rows = append(rows, []interface{}{v.ID, v.Count})
	}
	c.out.Table([]string{"ID", "SUPPLIERS"}, rows)
	return nil
}

func (c *IDsCommand) Usage() string                     { return "ids [--template <go-template>]" }
func (c *IDsCommand) Description() string               { return "List registered IDs" }
func (c *IDsCommand) Completions(input string) []string { return []string{"--template"} }
func (c *IDsCommand) Aliases() []string                 { return []string{"ls", "list"} }

// renderTemplate executes a text/template with the sprig function map.
func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("ids").Funcs(sprig.TxtFuncMap()).Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// RemoveCommand unregisters a supplier by token.
type RemoveCommand struct{ baseCommand }

func (c *RemoveCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	for _, prefix := range args {
		reg, err := c.session.findSupplier(prefix)
		if err != nil {
			return err
		}
		removed, err := c.session.registry.Remove(ctx, reg)
		if err != nil {
			return err
		}
		if removed {
			c.out.Success("Removed %s (token %s)", reg.ID(), shortToken(reg))
		} else {
			c.out.Info("%s was already removed", reg.ID())
		}
	}
	return nil
}

func (c *RemoveCommand) Usage() string                     { return "rm <token>..." }
func (c *RemoveCommand) Description() string               { return "Unregister suppliers by token" }
func (c *RemoveCommand) Completions(input string) []string { return c.supplierTokenCompletions(input) }
func (c *RemoveCommand) Aliases() []string                 { return []string{"remove", "del"} }
