// Package classify maps Microsoft Graph request failures to the command that
// caused them when the failure is one of the known advanced query rejections.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"mgaq/internal/psast"
	"mgaq/internal/query"
	"mgaq/internal/slogutil"
)

// Category identifies which known rejection an error matched
type Category string

const (
	BadRequestFilterCount     Category = "BAD_REQUEST_FILTER_COUNT"
	UnsupportedSearch         Category = "UNSUPPORTED_SEARCH"
	UnsupportedEndsWith       Category = "UNSUPPORTED_ENDS_WITH"
	ConsistencyHeaderMissing  Category = "CONSISTENCY_HEADER_MISSING"
	UnsupportedSorting        Category = "UNSUPPORTED_SORTING"
	UnsupportedNotEquals      Category = "UNSUPPORTED_NOT_EQUALS"
	UnsupportedPropertyFilter Category = "UNSUPPORTED_PROPERTY_FILTER"
	NoMatch                   Category = "NO_MATCH"
)

// Leading tokens of the fully qualified error id.
const (
	CodeBadRequest       = "Request_BadRequest"
	CodeUnsupportedQuery = "Request_UnsupportedQuery"
)

// Service rejection message fragments. These must match the service text
// byte for byte.
const (
	SearchUnsupportedFragment        = "Request with $search query parameter only works through MSGraph with a special request header: 'ConsistencyLevel: eventual'"
	EndsWithUnsupportedFragment      = "Operator 'endsWith' is not supported because the 'ConsistencyLevel:eventual' header is missing."
	ConsistencyHeaderMissingFragment = "is not supported because the 'ConsistencyLevel:eventual' header is missing."
	SortingNotSupportedFragment      = "Sorting not supported for current query"
	NotEqualsMatchFragment           = "Filter operator 'NotEqualsMatch' is not supported."
	UnsupportedFilterClauseFragment  = "Unsupported or invalid query filter clause specified for property"

	countSegment = "/$count"
)

// messageRule maps a message fragment to a category. Rules are tried in
// order and the first hit wins.
type messageRule struct {
	fragment string
	category Category
	// confirm, when set, must also hold for the rule to match.
	confirm func(c *Classifier, ctx context.Context, d *ErrorDescriptor) bool
}

var unsupportedQueryRules = []messageRule{
	{fragment: SearchUnsupportedFragment, category: UnsupportedSearch},
	{fragment: EndsWithUnsupportedFragment, category: UnsupportedEndsWith},
	{fragment: ConsistencyHeaderMissingFragment, category: ConsistencyHeaderMissing},
	{fragment: SortingNotSupportedFragment, category: UnsupportedSorting, confirm: (*Classifier).hasOrderBy},
	{fragment: NotEqualsMatchFragment, category: UnsupportedNotEquals},
	{fragment: UnsupportedFilterClauseFragment, category: UnsupportedPropertyFilter},
}

// ParseFunc parses a command line.
type ParseFunc func(src string) (*psast.ScriptBlockAst, error)

// Classifier categorizes error descriptors. The zero value is not usable;
// construct it with NewClassifier. A Classifier holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	logger *slog.Logger
	parse  ParseFunc
}

// ClassifierOption configures the classifier
type ClassifierOption func(*Classifier)

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithParser replaces the parser used to re-read the failed command
func WithParser(parse ParseFunc) ClassifierOption {
	return func(c *Classifier) {
		if parse != nil {
			c.parse = parse
		}
	}
}

// NewClassifier creates a classifier
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		logger: slogutil.NewDiscardLogger(),
		parse:  psast.Parse,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LeadingToken returns the part of an error id before its first comma.
func LeadingToken(code string) string {
	token, _, _ := strings.Cut(code, ",")
	return token
}

// Categorize returns the rejection category of d, or NoMatch. Missing fields
// never produce an error; they simply do not match.
func (c *Classifier) Categorize(ctx context.Context, d *ErrorDescriptor) Category {
	if d == nil {
		return NoMatch
	}
	switch LeadingToken(d.Code) {
	case CodeBadRequest:
		if filter, ok := d.Filter(); ok && strings.Contains(filter, countSegment) {
			return BadRequestFilterCount
		}
	case CodeUnsupportedQuery:
		if d.Message == nil {
			return NoMatch
		}
		for _, rule := range unsupportedQueryRules {
			if !strings.Contains(*d.Message, rule.fragment) {
				continue
			}
			if rule.confirm != nil && !rule.confirm(c, ctx, d) {
				c.logger.Debug("Rejection not confirmed", "category", string(rule.category))
				return NoMatch
			}
			return rule.category
		}
	}
	return NoMatch
}

// Classify returns the text of the command that caused d when d is a known
// advanced query rejection.
func (c *Classifier) Classify(ctx context.Context, d *ErrorDescriptor) (string, bool) {
	cat := c.Categorize(ctx, d)
	if cat == NoMatch || d.CommandText == nil {
		return "", false
	}
	c.logger.Debug("Classified error", "code", d.Code, "category", string(cat))
	return *d.CommandText, true
}

// hasOrderBy re-parses the failed command and looks for an OrderBy parameter.
// A command that does not parse has none.
func (c *Classifier) hasOrderBy(ctx context.Context, d *ErrorDescriptor) bool {
	if d.CommandText == nil {
		return false
	}
	root, err := c.parse(*d.CommandText)
	if err != nil || root == nil {
		c.logger.Debug("Failed to re-parse command", "error", err)
		return false
	}
	return query.ContainsParameter(ctx, root, query.ParamOrderBy)
}
