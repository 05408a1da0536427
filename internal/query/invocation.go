package query

import (
	"context"
	"strings"

	"mgaq/internal/psast"
)

// CommandInvocation is a read-only view of one command call taken from a
// parsed command line.
type CommandInvocation struct {
	Text     string
	Elements []psast.Ast
	Line     int
	Column   int

	// params holds raw parameter names keyed by their lower-cased form.
	params map[string]string
	order  []string
}

// NewCommandInvocation builds an invocation from a command node. Parameters
// are collected from the whole command, including parameters of commands
// nested in its arguments.
func NewCommandInvocation(ctx context.Context, cmd *psast.CommandAst) *CommandInvocation {
	ext := cmd.Extent()
	inv := &CommandInvocation{
		Text:     cmd.String(),
		Elements: cmd.Elements,
		Line:     ext.StartLine,
		Column:   ext.StartColumn,
		params:   make(map[string]string),
	}
	for prm := range psast.FindAllOf[*psast.CommandParameterAst](ctx, cmd, nil, true) {
		key := strings.ToLower(prm.Name)
		if _, seen := inv.params[key]; seen {
			continue
		}
		inv.params[key] = prm.Name
		inv.order = append(inv.order, prm.Name)
	}
	return inv
}

// Name returns the literal text of the first command element.
func (c *CommandInvocation) Name() string {
	if len(c.Elements) == 0 {
		return ""
	}
	return c.Elements[0].String()
}

// HasParameter reports whether a parameter with the given name is present,
// ignoring case.
func (c *CommandInvocation) HasParameter(name string) bool {
	_, ok := c.params[strings.ToLower(name)]
	return ok
}

// ParameterNames returns the raw parameter names in source order. Repeated
// names are reported once, with the casing of their first use.
func (c *CommandInvocation) ParameterNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// String returns the command's source text.
func (c *CommandInvocation) String() string { return c.Text }
