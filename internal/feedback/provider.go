// Package feedback runs one advisory cycle for a command line and the error,
// if any, that its last execution produced.
package feedback

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"mgaq/internal/advisory"
	"mgaq/internal/classify"
	"mgaq/internal/psast"
	"mgaq/internal/query"
	"mgaq/internal/slogutil"
)

// ProviderID is stable so that hosts can trace and unregister the provider.
var ProviderID = uuid.MustParse("c58b84a7-bc73-4bbc-a540-5f5d031cfb0a")

const (
	Name        = "Microsoft Graph Advanced Query Detection"
	Description = "Detects when you have used Microsoft Graph commands that require additional Advanced Query parameters and warns you of the same"
)

// Trigger selects which execution outcomes a provider is consulted for
type Trigger int

const (
	TriggerSuccess Trigger = 1 << iota
	TriggerError
	TriggerAll = TriggerSuccess | TriggerError
)

func (t Trigger) String() string {
	switch t {
	case TriggerSuccess:
		return "Success"
	case TriggerError:
		return "Error"
	case TriggerAll:
		return "All"
	default:
		return "None"
	}
}

// Context is what the host knows about the last invocation
type Context interface {
	// CommandLine returns the parsed command line, or nil.
	CommandLine() psast.Ast
	// LastError returns the failure of the last execution, or nil when it
	// succeeded.
	LastError() *classify.ErrorDescriptor
}

// StaticContext is a Context over fixed values
type StaticContext struct {
	commandLine psast.Ast
	lastError   *classify.ErrorDescriptor
}

// NewStaticContext creates a context. Either argument may be nil.
func NewStaticContext(commandLine *psast.ScriptBlockAst, lastError *classify.ErrorDescriptor) *StaticContext {
	c := &StaticContext{lastError: lastError}
	if commandLine != nil {
		c.commandLine = commandLine
	}
	return c
}

func (c *StaticContext) CommandLine() psast.Ast               { return c.commandLine }
func (c *StaticContext) LastError() *classify.ErrorDescriptor { return c.lastError }

// Provider combines static command inspection and error classification into
// a single advisory. It is safe for concurrent use.
type Provider struct {
	ID          uuid.UUID
	Name        string
	Description string
	Trigger     Trigger

	logger     *slog.Logger
	classifier *classify.Classifier
}

// NewProvider creates a provider. A nil logger discards output.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Provider{
		ID:          ProviderID,
		Name:        Name,
		Description: Description,
		Trigger:     TriggerAll,
		logger:      logger,
		classifier:  classify.NewClassifier(classify.WithLogger(logger)),
	}
}

// GetFeedback returns the advisory for fc, or nil when nothing needs
// advanced query parameters. It fails only when ctx is cancelled.
func (p *Provider) GetFeedback(ctx context.Context, fc Context) (*advisory.Payload, error) {
	var errorMatch *string
	if lastErr := fc.LastError(); lastErr != nil {
		if cmd, ok := p.classifier.Classify(ctx, lastErr); ok {
			errorMatch = &cmd
		}
	}

	var syntaxMatches []string
	if root := fc.CommandLine(); root != nil {
		flagged, err := query.FlaggedCommands(ctx, root)
		if err != nil {
			return nil, err
		}
		syntaxMatches = flagged
	}

	commands := advisory.Aggregate(errorMatch, syntaxMatches)
	if len(commands) == 0 {
		return nil, nil
	}
	p.logger.Debug("Advisory produced",
		"fromError", errorMatch != nil,
		"fromSyntax", len(syntaxMatches),
		"commands", len(commands),
	)
	return advisory.Build(commands), nil
}
