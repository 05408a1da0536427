// Package psast parses PowerShell command lines into a syntax tree.
//
// The tree mirrors the shape of the PowerShell language AST closely enough for
// static inspection of command invocations: script blocks, statements,
// pipelines, commands with their elements, and the expressions that can nest
// further script blocks. It is not an execution model; operator precedence,
// type resolution and the semantics of dynamic keywords are not modelled.
package psast

// Extent is the source span covered by a node.
type Extent struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Text        string `json:"text"`
}

// Ast is implemented by every node of the tree.
type Ast interface {
	// Extent returns the source span of the node.
	Extent() Extent
	// Parent returns the enclosing node, or nil for the root.
	Parent() Ast
	// String returns the exact source text of the node.
	String() string

	base() *node
	children() []Ast
}

type node struct {
	extent Extent
	parent Ast
}

func (n *node) Extent() Extent { return n.extent }
func (n *node) Parent() Ast    { return n.parent }
func (n *node) String() string { return n.extent.Text }
func (n *node) base() *node    { return n }

// appendNodes appends the non-nil nodes to list.
func appendNodes(list []Ast, nodes ...Ast) []Ast {
	for _, n := range nodes {
		if n != nil {
			list = append(list, n)
		}
	}
	return list
}

// ScriptBlockAst is the root of a parsed command line and the body of every
// script block expression and function definition.
type ScriptBlockAst struct {
	node
	Param  *ParamBlockAst
	Blocks []*NamedBlockAst
}

func (s *ScriptBlockAst) children() []Ast {
	var out []Ast
	if s.Param != nil {
		out = append(out, s.Param)
	}
	for _, b := range s.Blocks {
		out = append(out, b)
	}
	return out
}

// Statements returns the statements of all named blocks in source order.
func (s *ScriptBlockAst) Statements() []Ast {
	var out []Ast
	for _, b := range s.Blocks {
		out = append(out, b.Statements...)
	}
	return out
}

// NamedBlockAst is a begin, process, end or dynamicparam block. A script
// block without explicit named blocks has a single unnamed end block.
type NamedBlockAst struct {
	node
	Name       string
	Unnamed    bool
	Statements []Ast
}

func (b *NamedBlockAst) children() []Ast { return appendNodes(nil, b.Statements...) }

// ParamBlockAst is a param(...) declaration with its leading attributes.
type ParamBlockAst struct {
	node
	Attributes []string
	Parameters []*ParameterAst
}

func (p *ParamBlockAst) children() []Ast {
	out := make([]Ast, 0, len(p.Parameters))
	for _, prm := range p.Parameters {
		out = append(out, prm)
	}
	return out
}

// ParameterAst declares one parameter of a param block or function.
type ParameterAst struct {
	node
	Name       string
	Attributes []string
	Default    Ast
}

func (p *ParameterAst) children() []Ast { return appendNodes(nil, p.Default) }

// StatementBlockAst is a braced statement list owned by a statement such as
// if, foreach or try.
type StatementBlockAst struct {
	node
	Statements []Ast
}

func (b *StatementBlockAst) children() []Ast { return appendNodes(nil, b.Statements...) }

// PipelineAst is one or more commands or expressions joined by '|'.
type PipelineAst struct {
	node
	Elements   []Ast
	Background bool
}

func (p *PipelineAst) children() []Ast { return appendNodes(nil, p.Elements...) }

// PipelineChainAst joins two pipelines with '&&' or '||'.
type PipelineChainAst struct {
	node
	Left     Ast
	Operator string
	Right    Ast
}

func (c *PipelineChainAst) children() []Ast { return appendNodes(nil, c.Left, c.Right) }

// CommandAst is a single command invocation.
type CommandAst struct {
	node
	// InvocationOperator is "&", "." or empty.
	InvocationOperator string
	Elements           []Ast
	Redirections       []*RedirectionAst
}

func (c *CommandAst) children() []Ast {
	out := appendNodes(nil, c.Elements...)
	for _, r := range c.Redirections {
		out = append(out, r)
	}
	return out
}

// Name returns the source text of the first command element.
func (c *CommandAst) Name() string {
	if len(c.Elements) == 0 {
		return ""
	}
	return c.Elements[0].String()
}

// CommandExpressionAst is an expression used as a pipeline element.
type CommandExpressionAst struct {
	node
	Expression   Ast
	Redirections []*RedirectionAst
}

func (c *CommandExpressionAst) children() []Ast {
	out := appendNodes(nil, c.Expression)
	for _, r := range c.Redirections {
		out = append(out, r)
	}
	return out
}

// CommandParameterAst is a named parameter such as -Filter or -Top:5.
type CommandParameterAst struct {
	node
	// Name is the parameter name without the leading dash or trailing colon.
	Name     string
	Argument Ast
}

func (p *CommandParameterAst) children() []Ast { return appendNodes(nil, p.Argument) }

// RedirectionAst is an output redirection such as '> out.txt' or '2>&1'.
type RedirectionAst struct {
	node
	Operator string
	Target   Ast
}

func (r *RedirectionAst) children() []Ast { return appendNodes(nil, r.Target) }

// AssignmentStatementAst is '<left> <op> <statement>'.
type AssignmentStatementAst struct {
	node
	Left     Ast
	Operator string
	Right    Ast
}

func (a *AssignmentStatementAst) children() []Ast { return appendNodes(nil, a.Left, a.Right) }

// IfClause is one 'if' or 'elseif' arm.
type IfClause struct {
	Condition Ast
	Body      *StatementBlockAst
}

// IfStatementAst is an if/elseif/else chain.
type IfStatementAst struct {
	node
	Clauses []IfClause
	Else    *StatementBlockAst
}

func (s *IfStatementAst) children() []Ast {
	var out []Ast
	for _, c := range s.Clauses {
		out = appendNodes(out, c.Condition)
		if c.Body != nil {
			out = append(out, c.Body)
		}
	}
	if s.Else != nil {
		out = append(out, s.Else)
	}
	return out
}

// ForEachStatementAst is 'foreach ($v in <pipeline>) { ... }'.
type ForEachStatementAst struct {
	node
	Label     string
	Variable  *VariableExpressionAst
	Condition Ast
	Body      *StatementBlockAst
}

func (s *ForEachStatementAst) children() []Ast {
	var out []Ast
	if s.Variable != nil {
		out = append(out, s.Variable)
	}
	out = appendNodes(out, s.Condition)
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return out
}

// ForStatementAst is 'for (init; cond; iter) { ... }'. Any header part may be nil.
type ForStatementAst struct {
	node
	Label     string
	Initial   Ast
	Condition Ast
	Iterator  Ast
	Body      *StatementBlockAst
}

func (s *ForStatementAst) children() []Ast {
	out := appendNodes(nil, s.Initial, s.Condition, s.Iterator)
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return out
}

// WhileStatementAst is 'while (cond) { ... }'.
type WhileStatementAst struct {
	node
	Label     string
	Condition Ast
	Body      *StatementBlockAst
}

func (s *WhileStatementAst) children() []Ast {
	out := appendNodes(nil, s.Condition)
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return out
}

// DoLoopStatementAst is 'do { ... } while (cond)' or 'do { ... } until (cond)'.
type DoLoopStatementAst struct {
	node
	Label     string
	Until     bool
	Body      *StatementBlockAst
	Condition Ast
}

func (s *DoLoopStatementAst) children() []Ast {
	var out []Ast
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return appendNodes(out, s.Condition)
}

// SwitchClause is one 'pattern { ... }' arm of a switch.
type SwitchClause struct {
	Pattern Ast
	Body    *StatementBlockAst
}

// SwitchStatementAst is a switch statement.
type SwitchStatementAst struct {
	node
	Label     string
	Flags     []string
	Condition Ast
	Clauses   []SwitchClause
	Default   *StatementBlockAst
}

func (s *SwitchStatementAst) children() []Ast {
	out := appendNodes(nil, s.Condition)
	for _, c := range s.Clauses {
		out = appendNodes(out, c.Pattern)
		if c.Body != nil {
			out = append(out, c.Body)
		}
	}
	if s.Default != nil {
		out = append(out, s.Default)
	}
	return out
}

// CatchClauseAst is 'catch [types] { ... }'.
type CatchClauseAst struct {
	node
	Types []string
	Body  *StatementBlockAst
}

func (c *CatchClauseAst) children() []Ast {
	if c.Body == nil {
		return nil
	}
	return []Ast{c.Body}
}

// TryStatementAst is try/catch/finally.
type TryStatementAst struct {
	node
	Body    *StatementBlockAst
	Catches []*CatchClauseAst
	Finally *StatementBlockAst
}

func (s *TryStatementAst) children() []Ast {
	var out []Ast
	if s.Body != nil {
		out = append(out, s.Body)
	}
	for _, c := range s.Catches {
		out = append(out, c)
	}
	if s.Finally != nil {
		out = append(out, s.Finally)
	}
	return out
}

// TrapStatementAst is 'trap [type] { ... }'.
type TrapStatementAst struct {
	node
	Type string
	Body *StatementBlockAst
}

func (s *TrapStatementAst) children() []Ast {
	if s.Body == nil {
		return nil
	}
	return []Ast{s.Body}
}

// FunctionDefinitionAst is a function, filter or workflow definition.
type FunctionDefinitionAst struct {
	node
	Keyword    string
	Name       string
	Parameters []*ParameterAst
	Body       *ScriptBlockAst
}

func (f *FunctionDefinitionAst) children() []Ast {
	var out []Ast
	for _, p := range f.Parameters {
		out = append(out, p)
	}
	if f.Body != nil {
		out = append(out, f.Body)
	}
	return out
}

// FlowControlStatementAst is return, throw, exit, break or continue.
type FlowControlStatementAst struct {
	node
	Keyword  string
	Label    string
	Pipeline Ast
}

func (s *FlowControlStatementAst) children() []Ast { return appendNodes(nil, s.Pipeline) }

// StringKind records how a string token was quoted.
type StringKind int

const (
	// BareWord is an unquoted command argument.
	BareWord StringKind = iota
	// SingleQuoted is '...'.
	SingleQuoted
	// DoubleQuoted is "...".
	DoubleQuoted
	// SingleQuotedHereString is @'...'@.
	SingleQuotedHereString
	// DoubleQuotedHereString is @"..."@.
	DoubleQuotedHereString
)

// StringConstantExpressionAst is a string without embedded expressions.
type StringConstantExpressionAst struct {
	node
	Value string
	Kind  StringKind
}

func (s *StringConstantExpressionAst) children() []Ast { return nil }

// ExpandableStringExpressionAst is a string with embedded variables or
// sub-expressions.
type ExpandableStringExpressionAst struct {
	node
	Value  string
	Kind   StringKind
	Nested []Ast
}

func (s *ExpandableStringExpressionAst) children() []Ast { return appendNodes(nil, s.Nested...) }

// ConstantExpressionAst is a numeric literal kept as source text.
type ConstantExpressionAst struct {
	node
	Value string
}

func (c *ConstantExpressionAst) children() []Ast { return nil }

// VariableExpressionAst is $name, ${name} or the splatted form @name.
type VariableExpressionAst struct {
	node
	Name     string
	Splatted bool
}

func (v *VariableExpressionAst) children() []Ast { return nil }

// SubExpressionAst is $( ... ).
type SubExpressionAst struct {
	node
	Statements []Ast
}

func (s *SubExpressionAst) children() []Ast { return appendNodes(nil, s.Statements...) }

// ArrayExpressionAst is @( ... ).
type ArrayExpressionAst struct {
	node
	Statements []Ast
}

func (a *ArrayExpressionAst) children() []Ast { return appendNodes(nil, a.Statements...) }

// ArrayLiteralAst is a comma separated list.
type ArrayLiteralAst struct {
	node
	Elements []Ast
}

func (a *ArrayLiteralAst) children() []Ast { return appendNodes(nil, a.Elements...) }

// KeyValuePair is one entry of a hashtable literal.
type KeyValuePair struct {
	Key   Ast
	Value Ast
}

// HashtableAst is @{ key = value; ... }.
type HashtableAst struct {
	node
	Pairs []KeyValuePair
}

func (h *HashtableAst) children() []Ast {
	var out []Ast
	for _, kv := range h.Pairs {
		out = appendNodes(out, kv.Key, kv.Value)
	}
	return out
}

// ScriptBlockExpressionAst is a braced script block used as a value.
type ScriptBlockExpressionAst struct {
	node
	ScriptBlock *ScriptBlockAst
}

func (s *ScriptBlockExpressionAst) children() []Ast {
	if s.ScriptBlock == nil {
		return nil
	}
	return []Ast{s.ScriptBlock}
}

// ParenExpressionAst is ( <statement> ).
type ParenExpressionAst struct {
	node
	Pipeline Ast
}

func (p *ParenExpressionAst) children() []Ast { return appendNodes(nil, p.Pipeline) }

// TypeExpressionAst is a type literal such as [string].
type TypeExpressionAst struct {
	node
	TypeName string
}

func (t *TypeExpressionAst) children() []Ast { return nil }

// ConvertExpressionAst is a cast such as [int]$x.
type ConvertExpressionAst struct {
	node
	TypeName string
	Child    Ast
}

func (c *ConvertExpressionAst) children() []Ast { return appendNodes(nil, c.Child) }

// UnaryExpressionAst is a prefix operator applied to an operand.
type UnaryExpressionAst struct {
	node
	Operator string
	Child    Ast
}

func (u *UnaryExpressionAst) children() []Ast { return appendNodes(nil, u.Child) }

// BinaryExpressionAst is '<left> <op> <right>'. Operators associate to the
// left without precedence.
type BinaryExpressionAst struct {
	node
	Left     Ast
	Operator string
	Right    Ast
}

func (b *BinaryExpressionAst) children() []Ast { return appendNodes(nil, b.Left, b.Right) }

// TernaryExpressionAst is '<condition> ? <ifTrue> : <ifFalse>'.
type TernaryExpressionAst struct {
	node
	Condition Ast
	IfTrue    Ast
	IfFalse   Ast
}

func (t *TernaryExpressionAst) children() []Ast {
	return appendNodes(nil, t.Condition, t.IfTrue, t.IfFalse)
}

// MemberExpressionAst is $x.Name, $x?.Name or [Type]::Name.
type MemberExpressionAst struct {
	node
	Target          Ast
	Member          Ast
	Static          bool
	NullConditional bool
}

func (m *MemberExpressionAst) children() []Ast { return appendNodes(nil, m.Target, m.Member) }

// InvokeMemberExpressionAst is a method call such as $x.ForEach({ ... }).
type InvokeMemberExpressionAst struct {
	node
	Target          Ast
	Member          Ast
	Static          bool
	NullConditional bool
	Arguments       []Ast
}

func (m *InvokeMemberExpressionAst) children() []Ast {
	out := appendNodes(nil, m.Target, m.Member)
	return appendNodes(out, m.Arguments...)
}

// IndexExpressionAst is $x[index] or $x?[index].
type IndexExpressionAst struct {
	node
	Target          Ast
	Index           Ast
	NullConditional bool
}

func (i *IndexExpressionAst) children() []Ast { return appendNodes(nil, i.Target, i.Index) }
