// Package query finds Microsoft Graph command invocations in a parsed command
// line and decides which of them need advanced query parameters.
package query

import (
	"context"
	"iter"
	"strings"

	"mgaq/internal/psast"
)

const (
	// graphMarker identifies the Microsoft Graph command family (Get-MgUser,
	// New-MgGroup, ...). Matched case-insensitively against the command name.
	graphMarker = "-mg"

	ParamCountVariable    = "CountVariable"
	ParamConsistencyLevel = "ConsistencyLevel"
	ParamOrderBy          = "OrderBy"
)

// IsGraphCommand reports whether the first element of cmd names a Graph
// command.
func IsGraphCommand(cmd *psast.CommandAst) bool {
	if len(cmd.Elements) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(cmd.Elements[0].String()), graphMarker)
}

// FindQualifyingCommands lazily yields every Graph command in root, including
// commands inside script blocks, loops, conditionals and function bodies, in
// source order. Iteration ends early if ctx is done.
func FindQualifyingCommands(ctx context.Context, root psast.Ast) iter.Seq[*CommandInvocation] {
	return func(yield func(*CommandInvocation) bool) {
		for cmd := range psast.FindAllOf(ctx, root, IsGraphCommand, true) {
			if !yield(NewCommandInvocation(ctx, cmd)) {
				return
			}
		}
	}
}

// NeedsAdvancedQuery reports whether cmd requests a result count without the
// eventual consistency level that the count requires. Commands without
// CountVariable cannot be judged statically and report false.
func NeedsAdvancedQuery(cmd *CommandInvocation) bool {
	if !cmd.HasParameter(ParamCountVariable) {
		return false
	}
	return !cmd.HasParameter(ParamConsistencyLevel)
}

// FlaggedCommands returns the source text of every Graph command in root that
// needs advanced query parameters, in discovery order. It returns ctx.Err()
// if the search was cut short.
func FlaggedCommands(ctx context.Context, root psast.Ast) ([]string, error) {
	invs, err := FlaggedInvocations(ctx, root)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(invs))
	for _, inv := range invs {
		out = append(out, inv.Text)
	}
	return out, nil
}

// FlaggedInvocations is FlaggedCommands returning the invocations themselves,
// for callers that report positions.
func FlaggedInvocations(ctx context.Context, root psast.Ast) ([]*CommandInvocation, error) {
	var out []*CommandInvocation
	for cmd := range FindQualifyingCommands(ctx, root) {
		if NeedsAdvancedQuery(cmd) {
			out = append(out, cmd)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ContainsParameter reports whether any command parameter named name appears
// anywhere in root, ignoring case.
func ContainsParameter(ctx context.Context, root psast.Ast, name string) bool {
	_, found := psast.Find(ctx, root, func(a psast.Ast) bool {
		prm, ok := a.(*psast.CommandParameterAst)
		return ok && strings.EqualFold(prm.Name, name)
	}, true)
	return found
}
