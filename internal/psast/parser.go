package psast

import (
	"sort"
	"strings"
)

// Parse parses a PowerShell command line or script into a syntax tree.
func Parse(src string) (*ScriptBlockAst, error) {
	p := newParser(src)
	root, err := p.parseScriptBlockBody(0, 0)
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.unexpected("at top level")
	}
	// The root spans the whole input, including leading and trailing blanks.
	root.extent = p.span(0, len(src))
	linkParents(root, nil)
	return root, nil
}

type parser struct {
	src        string
	pos        int
	lineStarts []int
}

func newParser(src string) *parser {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &parser{src: src, lineStarts: starts}
}

// position converts a byte offset to a 1-based line and column.
func (p *parser) position(offset int) (int, int) {
	i := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - p.lineStarts[i] + 1
}

func (p *parser) span(start, end int) Extent {
	if end < start {
		end = start
	}
	sl, sc := p.position(start)
	el, ec := p.position(end)
	return Extent{
		Start:       start,
		End:         end,
		StartLine:   sl,
		StartColumn: sc,
		EndLine:     el,
		EndColumn:   ec,
		Text:        p.src[start:end],
	}
}

func linkParents(n Ast, parent Ast) {
	n.base().parent = parent
	for _, c := range n.children() {
		linkParents(c, n)
	}
}

// --- character helpers ---

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.peekAt(0) }

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) || p.pos+n < 0 {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' || c == '-' }

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\f' || c == '\v' }

func isNewline(c byte) bool { return c == '\n' || c == '\r' }

// skipSpace skips blanks, comments and line continuations but stops at a
// newline.
func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		switch {
		case isBlank(c):
			p.pos++
		case c == '`' && isNewline(p.peekAt(1)):
			p.pos++
			p.skipNewline()
		case c == '<' && p.peekAt(1) == '#':
			end := strings.Index(p.src[p.pos+2:], "#>")
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		case c == '#':
			for !p.eof() && !isNewline(p.peek()) {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) skipNewline() {
	if p.peek() == '\r' {
		p.pos++
	}
	if p.peek() == '\n' {
		p.pos++
	}
}

// skipSpaceAndNewlines skips blanks, comments and newlines.
func (p *parser) skipSpaceAndNewlines() {
	for {
		p.skipSpace()
		if p.eof() || !isNewline(p.peek()) {
			return
		}
		p.pos++
	}
}

// skipStatementSeparators skips blanks, newlines and semicolons.
func (p *parser) skipStatementSeparators() {
	for {
		p.skipSpaceAndNewlines()
		if p.peek() != ';' {
			return
		}
		p.pos++
	}
}

func (p *parser) expect(c byte, context string) error {
	if p.peek() != c {
		return p.unexpected(context)
	}
	p.pos++
	return nil
}

// peekWord returns the word at the current position, lower-cased.
func (p *parser) peekWord() string {
	end := p.pos
	for end < len(p.src) && isWordChar(p.src[end]) {
		end++
	}
	return strings.ToLower(p.src[p.pos:end])
}

// acceptKeyword consumes kw if it is the whole word at the current position.
func (p *parser) acceptKeyword(kw string) bool {
	if p.peekWord() != kw {
		return false
	}
	p.pos += len(kw)
	return true
}

var statementKeywords = map[string]bool{
	"if": true, "foreach": true, "for": true, "while": true, "do": true,
	"switch": true, "try": true, "trap": true, "function": true, "filter": true,
	"workflow": true, "return": true, "throw": true, "exit": true,
	"break": true, "continue": true,
}

// --- script blocks and statement lists ---

// parseScriptBlockBody parses an optional param block, then either named
// blocks or a statement list, up to closer (0 for end of input). start is the
// offset the resulting extent begins at.
func (p *parser) parseScriptBlockBody(start int, closer byte) (*ScriptBlockAst, error) {
	sb := &ScriptBlockAst{}
	p.skipStatementSeparators()

	param, err := p.tryParamBlock()
	if err != nil {
		return nil, err
	}
	sb.Param = param
	p.skipStatementSeparators()

	if p.atNamedBlock() {
		for {
			p.skipStatementSeparators()
			if p.eof() || p.peek() == closer {
				break
			}
			if !p.atNamedBlock() {
				return nil, p.unexpected("in script block with named blocks")
			}
			blockStart := p.pos
			name := p.peekWord()
			p.pos += len(name)
			p.skipSpaceAndNewlines()
			if err := p.expect('{', "after "+name); err != nil {
				return nil, err
			}
			stmts, err := p.parseStatementList('}')
			if err != nil {
				return nil, err
			}
			if err := p.expect('}', "closing "+name+" block"); err != nil {
				return nil, err
			}
			nb := &NamedBlockAst{Name: name, Statements: stmts}
			nb.extent = p.span(blockStart, p.pos)
			sb.Blocks = append(sb.Blocks, nb)
		}
	} else {
		bodyStart := p.pos
		stmts, err := p.parseStatementList(closer)
		if err != nil {
			return nil, err
		}
		nb := &NamedBlockAst{Name: "end", Unnamed: true, Statements: stmts}
		nb.extent = p.span(bodyStart, p.pos)
		sb.Blocks = append(sb.Blocks, nb)
	}

	if closer == 0 && !p.eof() {
		return nil, p.unexpected("at top level")
	}
	sb.extent = p.span(start, p.pos)
	return sb, nil
}

func (p *parser) atNamedBlock() bool {
	switch w := p.peekWord(); w {
	case "begin", "process", "end", "dynamicparam":
		save := p.pos
		p.pos += len(w)
		p.skipSpaceAndNewlines()
		ok := p.peek() == '{'
		p.pos = save
		return ok
	}
	return false
}

// tryParamBlock parses '[attr]... param(...)' when present. Attributes that
// are not followed by param are left unconsumed.
func (p *parser) tryParamBlock() (*ParamBlockAst, error) {
	save := p.pos
	start := p.pos
	var attrs []string
	for p.peek() == '[' {
		name, err := p.scanTypeLiteral()
		if err != nil {
			p.pos = save
			return nil, nil
		}
		attrs = append(attrs, name)
		p.skipSpaceAndNewlines()
	}
	if p.peekWord() != "param" {
		p.pos = save
		return nil, nil
	}
	p.pos += len("param")
	p.skipSpaceAndNewlines()
	if p.peek() != '(' {
		p.pos = save
		return nil, nil
	}
	p.pos++
	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}
	pb := &ParamBlockAst{Attributes: attrs, Parameters: params}
	pb.extent = p.span(start, p.pos)
	return pb, nil
}

// parseParameterList parses declarations up to and including ')'.
func (p *parser) parseParameterList() ([]*ParameterAst, error) {
	var params []*ParameterAst
	for {
		p.skipSpaceAndNewlines()
		if p.peek() == ')' {
			p.pos++
			return params, nil
		}
		if p.eof() {
			return nil, p.errorf(p.pos, "missing ')' in parameter list")
		}
		start := p.pos
		prm := &ParameterAst{}
		for p.peek() == '[' {
			name, err := p.scanTypeLiteral()
			if err != nil {
				return nil, err
			}
			prm.Attributes = append(prm.Attributes, name)
			p.skipSpaceAndNewlines()
		}
		if p.peek() != '$' {
			return nil, p.unexpected("in parameter list")
		}
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		prm.Name = v.Name
		end := p.pos
		p.skipSpaceAndNewlines()
		if p.peek() == '=' {
			p.pos++
			p.skipSpaceAndNewlines()
			def, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			prm.Default = def
			end = p.pos
			p.skipSpaceAndNewlines()
		}
		prm.extent = p.span(start, end)
		params = append(params, prm)
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if p.peek() != ')' {
			return nil, p.unexpected("in parameter list")
		}
	}
}

// parseStatementList parses statements until closer (not consumed) or end of
// input when closer is 0.
func (p *parser) parseStatementList(closer byte) ([]Ast, error) {
	var stmts []Ast
	for {
		p.skipStatementSeparators()
		if p.eof() {
			if closer != 0 {
				return nil, p.errorf(p.pos, "missing closing '%c'", closer)
			}
			return stmts, nil
		}
		c := p.peek()
		if c == closer {
			return stmts, nil
		}
		if c == ')' || c == '}' {
			return nil, p.unexpected("in statement list")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		p.skipSpace()
		if !p.eof() {
			c := p.peek()
			if !isNewline(c) && c != ';' && c != closer {
				return nil, p.unexpected("after statement")
			}
		}
	}
}

// parseStatementBlock parses '{ statements }'.
func (p *parser) parseStatementBlock(context string) (*StatementBlockAst, error) {
	p.skipSpaceAndNewlines()
	start := p.pos
	if err := p.expect('{', context); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatementList('}')
	if err != nil {
		return nil, err
	}
	if err := p.expect('}', context); err != nil {
		return nil, err
	}
	b := &StatementBlockAst{Statements: stmts}
	b.extent = p.span(start, p.pos)
	return b, nil
}

// parseParenStatement parses '( statement )' and returns the statement, which
// is nil for empty parentheses.
func (p *parser) parseParenStatement(context string) (Ast, error) {
	p.skipSpaceAndNewlines()
	if err := p.expect('(', context); err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	var stmt Ast
	if p.peek() != ')' {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt = s
		p.skipSpaceAndNewlines()
	}
	if err := p.expect(')', context); err != nil {
		return nil, err
	}
	return stmt, nil
}

// --- statements ---

func (p *parser) parseStatement() (Ast, error) {
	start := p.pos
	label := ""
	if p.peek() == ':' && isLetter(p.peekAt(1)) {
		p.pos++
		end := p.pos
		for end < len(p.src) && isWordChar(p.src[end]) {
			end++
		}
		label = p.src[p.pos:end]
		p.pos = end
		p.skipSpace()
	}

	kw := p.peekWord()
	if !statementKeywords[kw] {
		if label != "" {
			return nil, p.unexpected("after loop label")
		}
		return p.parsePipelineChain()
	}
	p.pos += len(kw)

	switch kw {
	case "if":
		return p.parseIf(start)
	case "foreach":
		return p.parseForEach(start, label)
	case "for":
		return p.parseFor(start, label)
	case "while":
		return p.parseWhile(start, label)
	case "do":
		return p.parseDo(start, label)
	case "switch":
		return p.parseSwitch(start, label)
	case "try":
		return p.parseTry(start)
	case "trap":
		return p.parseTrap(start)
	case "function", "filter", "workflow":
		return p.parseFunction(start, kw)
	default:
		return p.parseFlowControl(start, kw)
	}
}

func (p *parser) parseIf(start int) (Ast, error) {
	s := &IfStatementAst{}
	for {
		cond, err := p.parseParenStatement("in if condition")
		if err != nil {
			return nil, err
		}
		body, err := p.parseStatementBlock("in if body")
		if err != nil {
			return nil, err
		}
		s.Clauses = append(s.Clauses, IfClause{Condition: cond, Body: body})

		save := p.pos
		p.skipSpaceAndNewlines()
		if p.acceptKeyword("elseif") {
			continue
		}
		if p.acceptKeyword("else") {
			els, err := p.parseStatementBlock("in else body")
			if err != nil {
				return nil, err
			}
			s.Else = els
			break
		}
		p.pos = save
		break
	}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseForEach(start int, label string) (Ast, error) {
	p.skipSpace()
	// foreach -parallel and similar workflow flags
	for p.peek() == '-' {
		p.pos++
		for !p.eof() && isWordChar(p.peek()) {
			p.pos++
		}
		p.skipSpace()
	}
	p.skipSpaceAndNewlines()
	if err := p.expect('(', "after foreach"); err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	if p.peek() != '$' {
		return nil, p.unexpected("in foreach, expected variable")
	}
	v, err := p.parseVariable()
	if err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	if !p.acceptKeyword("in") {
		return nil, p.unexpected("in foreach, expected 'in'")
	}
	p.skipSpaceAndNewlines()
	cond, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	if err := p.expect(')', "closing foreach header"); err != nil {
		return nil, err
	}
	body, err := p.parseStatementBlock("in foreach body")
	if err != nil {
		return nil, err
	}
	s := &ForEachStatementAst{Label: label, Variable: v, Condition: cond, Body: body}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseFor(start int, label string) (Ast, error) {
	p.skipSpaceAndNewlines()
	if err := p.expect('(', "after for"); err != nil {
		return nil, err
	}
	var parts [3]Ast
	for i := 0; i < 3; i++ {
		p.skipSpaceAndNewlines()
		if p.peek() != ';' && p.peek() != ')' {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			parts[i] = stmt
			p.skipSpaceAndNewlines()
		}
		if i < 2 && p.peek() == ';' {
			p.pos++
			continue
		}
		if p.peek() == ')' {
			break
		}
	}
	if err := p.expect(')', "closing for header"); err != nil {
		return nil, err
	}
	body, err := p.parseStatementBlock("in for body")
	if err != nil {
		return nil, err
	}
	s := &ForStatementAst{Label: label, Initial: parts[0], Condition: parts[1], Iterator: parts[2], Body: body}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseWhile(start int, label string) (Ast, error) {
	cond, err := p.parseParenStatement("in while condition")
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementBlock("in while body")
	if err != nil {
		return nil, err
	}
	s := &WhileStatementAst{Label: label, Condition: cond, Body: body}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseDo(start int, label string) (Ast, error) {
	body, err := p.parseStatementBlock("in do body")
	if err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	s := &DoLoopStatementAst{Label: label, Body: body}
	switch {
	case p.acceptKeyword("while"):
	case p.acceptKeyword("until"):
		s.Until = true
	default:
		return nil, p.unexpected("after do body, expected 'while' or 'until'")
	}
	cond, err := p.parseParenStatement("in do condition")
	if err != nil {
		return nil, err
	}
	s.Condition = cond
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseSwitch(start int, label string) (Ast, error) {
	s := &SwitchStatementAst{Label: label}
	p.skipSpace()
	for p.peek() == '-' {
		p.pos++
		flag := p.peekWord()
		p.pos += len(flag)
		s.Flags = append(s.Flags, flag)
		p.skipSpace()
		if flag == "file" {
			if _, err := p.parseCommandArgument(); err != nil {
				return nil, err
			}
			p.skipSpace()
		}
	}
	if p.peek() == '(' {
		cond, err := p.parseParenStatement("in switch condition")
		if err != nil {
			return nil, err
		}
		s.Condition = cond
	}
	p.skipSpaceAndNewlines()
	if err := p.expect('{', "opening switch body"); err != nil {
		return nil, err
	}
	for {
		p.skipStatementSeparators()
		if p.peek() == '}' {
			p.pos++
			break
		}
		if p.eof() {
			return nil, p.errorf(p.pos, "missing closing '}' in switch")
		}
		isDefault := false
		if p.peekWord() == "default" {
			save := p.pos
			p.pos += len("default")
			p.skipSpaceAndNewlines()
			if p.peek() == '{' {
				isDefault = true
			} else {
				p.pos = save
			}
		}
		var pattern Ast
		if !isDefault {
			pat, err := p.parseCommandArgument()
			if err != nil {
				return nil, err
			}
			pattern = pat
		}
		body, err := p.parseStatementBlock("in switch clause")
		if err != nil {
			return nil, err
		}
		if isDefault {
			s.Default = body
		} else {
			s.Clauses = append(s.Clauses, SwitchClause{Pattern: pattern, Body: body})
		}
	}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseTry(start int) (Ast, error) {
	body, err := p.parseStatementBlock("in try body")
	if err != nil {
		return nil, err
	}
	s := &TryStatementAst{Body: body}
	for {
		save := p.pos
		p.skipSpaceAndNewlines()
		catchStart := p.pos
		if p.acceptKeyword("catch") {
			c := &CatchClauseAst{}
			p.skipSpaceAndNewlines()
			for p.peek() == '[' {
				name, err := p.scanTypeLiteral()
				if err != nil {
					return nil, err
				}
				c.Types = append(c.Types, name)
				p.skipSpaceAndNewlines()
				if p.peek() == ',' {
					p.pos++
					p.skipSpaceAndNewlines()
				}
			}
			cbody, err := p.parseStatementBlock("in catch body")
			if err != nil {
				return nil, err
			}
			c.Body = cbody
			c.extent = p.span(catchStart, p.pos)
			s.Catches = append(s.Catches, c)
			continue
		}
		if p.acceptKeyword("finally") {
			fin, err := p.parseStatementBlock("in finally body")
			if err != nil {
				return nil, err
			}
			s.Finally = fin
			break
		}
		p.pos = save
		break
	}
	if len(s.Catches) == 0 && s.Finally == nil {
		return nil, p.errorf(p.pos, "try statement is missing its catch or finally block")
	}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseTrap(start int) (Ast, error) {
	s := &TrapStatementAst{}
	p.skipSpaceAndNewlines()
	if p.peek() == '[' {
		name, err := p.scanTypeLiteral()
		if err != nil {
			return nil, err
		}
		s.Type = name
	}
	body, err := p.parseStatementBlock("in trap body")
	if err != nil {
		return nil, err
	}
	s.Body = body
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseFunction(start int, keyword string) (Ast, error) {
	p.skipSpace()
	nameStart := p.pos
	for !p.eof() {
		c := p.peek()
		if isBlank(c) || isNewline(c) || c == '(' || c == '{' {
			break
		}
		p.pos++
	}
	if p.pos == nameStart {
		return nil, p.unexpected("in " + keyword + " definition, expected a name")
	}
	f := &FunctionDefinitionAst{Keyword: keyword, Name: p.src[nameStart:p.pos]}
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		params, err := p.parseParameterList()
		if err != nil {
			return nil, err
		}
		f.Parameters = params
	}
	p.skipSpaceAndNewlines()
	bodyStart := p.pos
	if err := p.expect('{', "opening "+keyword+" body"); err != nil {
		return nil, err
	}
	body, err := p.parseScriptBlockBody(bodyStart, '}')
	if err != nil {
		return nil, err
	}
	if err := p.expect('}', "closing "+keyword+" body"); err != nil {
		return nil, err
	}
	body.extent = p.span(bodyStart, p.pos)
	f.Body = body
	f.extent = p.span(start, p.pos)
	return f, nil
}

func (p *parser) parseFlowControl(start int, keyword string) (Ast, error) {
	s := &FlowControlStatementAst{Keyword: keyword}
	end := p.pos
	p.skipSpace()
	if !p.atStatementEnd() {
		switch keyword {
		case "break", "continue":
			labelStart := p.pos
			for !p.eof() && isWordChar(p.peek()) {
				p.pos++
			}
			if p.pos == labelStart {
				return nil, p.unexpected("after " + keyword)
			}
			s.Label = p.src[labelStart:p.pos]
		default:
			pipe, err := p.parsePipelineChain()
			if err != nil {
				return nil, err
			}
			s.Pipeline = pipe
		}
		end = p.pos
	}
	s.extent = p.span(start, end)
	return s, nil
}

func (p *parser) atStatementEnd() bool {
	if p.eof() {
		return true
	}
	switch p.peek() {
	case '\n', '\r', ';', ')', '}':
		return true
	}
	return false
}

// --- pipelines ---

func (p *parser) parsePipelineChain() (Ast, error) {
	start := p.pos
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if _, ok := left.(*AssignmentStatementAst); ok {
		return left, nil
	}
	for {
		save := p.pos
		p.skipSpace()
		var op string
		switch {
		case p.hasPrefix("&&"):
			op = "&&"
		case p.hasPrefix("||"):
			op = "||"
		}
		if op == "" {
			p.pos = save
			return left, nil
		}
		p.pos += 2
		p.skipSpaceAndNewlines()
		right, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		chain := &PipelineChainAst{Left: left, Operator: op, Right: right}
		chain.extent = p.span(start, p.pos)
		left = chain
	}
}

// parsePipeline parses 'element (| element)*'. An expression followed by an
// assignment operator yields an AssignmentStatementAst instead.
func (p *parser) parsePipeline() (Ast, error) {
	start := p.pos
	pipe := &PipelineAst{}

	first, err := p.parsePipelineElement(true)
	if err != nil {
		return nil, err
	}
	if assign, ok := first.(*AssignmentStatementAst); ok {
		return assign, nil
	}
	pipe.Elements = append(pipe.Elements, first)
	end := p.pos

	for {
		p.skipSpace()
		if p.peek() == '|' && p.peekAt(1) != '|' {
			p.pos++
			p.skipSpaceAndNewlines()
			elem, err := p.parsePipelineElement(false)
			if err != nil {
				return nil, err
			}
			pipe.Elements = append(pipe.Elements, elem)
			end = p.pos
			continue
		}
		if p.peek() == '&' && p.peekAt(1) != '&' {
			p.pos++
			pipe.Background = true
			end = p.pos
		}
		break
	}
	p.pos = end
	pipe.extent = p.span(start, end)
	return pipe, nil
}

func (p *parser) parsePipelineElement(allowAssignment bool) (Ast, error) {
	if !p.startsExpression() {
		return p.parseCommand()
	}
	start := p.pos
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end := p.pos
	p.skipSpace()
	if op := p.assignmentOperator(); op != "" {
		if !allowAssignment {
			return nil, p.unexpected("in pipeline")
		}
		p.pos += len(op)
		p.skipSpaceAndNewlines()
		right, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		a := &AssignmentStatementAst{Left: expr, Operator: op, Right: right}
		a.extent = p.span(start, p.pos)
		return a, nil
	}
	ce := &CommandExpressionAst{Expression: expr}
	for p.atRedirection() {
		r, err := p.parseRedirection()
		if err != nil {
			return nil, err
		}
		ce.Redirections = append(ce.Redirections, r)
		end = p.pos
		p.skipSpace()
	}
	p.pos = end
	ce.extent = p.span(start, end)
	return ce, nil
}

func (p *parser) assignmentOperator() string {
	for _, op := range []string{"=", "+=", "-=", "*=", "/=", "%=", "??="} {
		if p.hasPrefix(op) && !p.hasPrefix(op+"=") {
			if op == "=" && p.peekAt(1) == '=' {
				return ""
			}
			return op
		}
	}
	return ""
}

// startsExpression reports whether the pipeline element at the current
// position is parsed in expression mode rather than as a command.
func (p *parser) startsExpression() bool {
	c := p.peek()
	switch {
	case c == '$', c == '(', c == '[', c == '\'', c == '"', c == '{', c == '!', c == ',':
		return true
	case c == '@':
		n := p.peekAt(1)
		return n == '(' || n == '{' || n == '\'' || n == '"' || isLetter(n) || n == '_'
	case isDigit(c):
		return p.looksNumeric()
	case c == '.':
		return isDigit(p.peekAt(1))
	case c == '+':
		return true
	case c == '-':
		n := p.peekAt(1)
		if isDigit(n) || n == '-' || n == '.' {
			return true
		}
		save := p.pos
		p.pos++
		w := p.peekWord()
		p.pos = save
		return w == "not" || w == "bnot" || w == "join" || w == "split"
	}
	return false
}

// looksNumeric reports whether the token at the current position is a number
// rather than a bareword such as 7z.exe.
func (p *parser) looksNumeric() bool {
	end := p.pos
	for end < len(p.src) {
		c := p.src[end]
		if isBlank(c) || isNewline(c) || strings.IndexByte(";|)}=,+-*/%&", c) >= 0 {
			break
		}
		if c == '.' && end+1 < len(p.src) && p.src[end+1] == '.' {
			break
		}
		end++
	}
	tok := strings.ToLower(p.src[p.pos:end])
	if strings.HasPrefix(tok, "0x") {
		return len(tok) > 2
	}
	tok = strings.TrimRight(tok, "kmgtpbld")
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if !isDigit(c) && c != '.' && c != 'e' {
			return false
		}
	}
	return true
}
