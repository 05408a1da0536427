package psast

import "strings"

// parseExpression parses an expression in expression mode. Binary operators
// are folded left to right and comma lists become ArrayLiteralAst.
func (p *parser) parseExpression() (Ast, error) {
	start := p.pos
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	elems := []Ast{left}
	end := p.pos
	for {
		p.skipSpace()
		if p.peek() != ',' {
			break
		}
		p.pos++
		p.skipSpaceAndNewlines()
		next, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
		end = p.pos
	}
	p.pos = end
	if len(elems) == 1 {
		return left, nil
	}
	arr := &ArrayLiteralAst{Elements: elems}
	arr.extent = p.span(start, end)
	return arr, nil
}

// parseTernary parses 'cond ? a : b'. The '?' must be preceded by
// whitespace; the branches nest to the right.
func (p *parser) parseTernary() (Ast, error) {
	start := p.pos
	cond, err := p.parseBinary()
	if err != nil {
		return nil, err
	}
	save := p.pos
	p.skipSpace()
	if n := p.peekAt(1); p.pos == save || p.peek() != '?' || !(isBlank(n) || isNewline(n)) {
		p.pos = save
		return cond, nil
	}
	p.pos++
	p.skipSpaceAndNewlines()
	ifTrue, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	if err := p.expect(':', "in ternary expression"); err != nil {
		return nil, err
	}
	p.skipSpaceAndNewlines()
	ifFalse, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	t := &TernaryExpressionAst{Condition: cond, IfTrue: ifTrue, IfFalse: ifFalse}
	t.extent = p.span(start, p.pos)
	return t, nil
}

func (p *parser) parseBinary() (Ast, error) {
	start := p.pos
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		p.skipSpace()
		op := p.scanBinaryOperator()
		if op == "" {
			p.pos = save
			return left, nil
		}
		p.pos += len(op)
		p.skipSpaceAndNewlines()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		bin := &BinaryExpressionAst{Left: left, Operator: op, Right: right}
		bin.extent = p.span(start, p.pos)
		left = bin
	}
}

// scanBinaryOperator returns the operator at the current position without
// consuming it, or "" if there is none.
func (p *parser) scanBinaryOperator() string {
	c := p.peek()
	switch c {
	case '-':
		if isLetter(p.peekAt(1)) {
			end := p.pos + 1
			for end < len(p.src) && isLetter(p.src[end]) {
				end++
			}
			return p.src[p.pos:end]
		}
		if p.peekAt(1) == '=' || p.peekAt(1) == '-' {
			return ""
		}
		return "-"
	case '+', '*', '/', '%':
		if p.peekAt(1) == '=' || (c == '+' && p.peekAt(1) == '+') {
			return ""
		}
		return string(c)
	case '.':
		if p.peekAt(1) == '.' {
			return ".."
		}
	case '?':
		if p.peekAt(1) == '?' && p.peekAt(2) != '=' {
			return "??"
		}
	}
	return ""
}

func (p *parser) parseUnary() (Ast, error) {
	start := p.pos
	c := p.peek()

	var op string
	switch {
	case c == '!':
		op = "!"
	case c == ',':
		op = ","
	case p.hasPrefix("++") || p.hasPrefix("--"):
		op = p.src[p.pos : p.pos+2]
	case c == '-' && isLetter(p.peekAt(1)):
		end := p.pos + 1
		for end < len(p.src) && isLetter(p.src[end]) {
			end++
		}
		switch w := strings.ToLower(p.src[p.pos+1 : end]); w {
		case "not", "bnot", "join", "split":
			op = p.src[p.pos:end]
		default:
			return nil, p.errorf(p.pos, "unexpected operator '-%s'", w)
		}
	case (c == '-' || c == '+') && (isDigit(p.peekAt(1)) || p.peekAt(1) == '.'):
		return p.parseNumber()
	case c == '-' || c == '+':
		op = string(c)
	case c == '[':
		return p.parseTypeOrCast()
	}

	if op != "" {
		p.pos += len(op)
		p.skipSpace()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		u := &UnaryExpressionAst{Operator: op, Child: child}
		u.extent = p.span(start, p.pos)
		return u, nil
	}

	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	expr, err := p.parsePostfix(prim)
	if err != nil {
		return nil, err
	}
	if p.hasPrefix("++") || p.hasPrefix("--") {
		op := p.src[p.pos : p.pos+2]
		p.pos += 2
		u := &UnaryExpressionAst{Operator: op, Child: expr}
		u.extent = p.span(start, p.pos)
		return u, nil
	}
	return expr, nil
}

// parseTypeOrCast parses [Type], [Type]::Member or a cast [Type]<operand>.
func (p *parser) parseTypeOrCast() (Ast, error) {
	start := p.pos
	name, err := p.scanTypeLiteral()
	if err != nil {
		return nil, err
	}
	t := &TypeExpressionAst{TypeName: name}
	t.extent = p.span(start, p.pos)
	if p.hasPrefix("::") {
		return p.parsePostfix(t)
	}
	save := p.pos
	p.skipSpace()
	if p.startsOperand() {
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		cv := &ConvertExpressionAst{TypeName: name, Child: child}
		cv.extent = p.span(start, p.pos)
		return cv, nil
	}
	p.pos = save
	return t, nil
}

func (p *parser) startsOperand() bool {
	c := p.peek()
	switch {
	case c == '$', c == '(', c == '[', c == '\'', c == '"', c == '{', c == '@', c == '!':
		return true
	case isDigit(c):
		return true
	case c == '-' || c == '+':
		n := p.peekAt(1)
		return isDigit(n) || n == '$' || n == '('
	}
	return false
}

// scanTypeLiteral consumes a bracketed type name or attribute and returns its
// inner text.
func (p *parser) scanTypeLiteral() (string, error) {
	start := p.pos
	p.pos++
	depth := 1
	for !p.eof() {
		c := p.peek()
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				p.pos++
				return p.src[start+1 : p.pos-1], nil
			}
		case '\'':
			if err := p.scanSingleQuoted(); err != nil {
				return "", err
			}
			continue
		case '"':
			if _, err := p.scanDoubleQuoted(); err != nil {
				return "", err
			}
			continue
		}
		p.pos++
	}
	return "", p.errorf(start, "missing closing ']'")
}

// parsePrimary parses a single operand in expression mode.
func (p *parser) parsePrimary() (Ast, error) {
	c := p.peek()
	switch {
	case c == '$' && p.peekAt(1) == '(':
		return p.parseSubExpression()
	case c == '$':
		return p.parseVariable()
	case c == '@' && p.peekAt(1) == '(':
		return p.parseArrayExpression()
	case c == '@' && p.peekAt(1) == '{':
		return p.parseHashtable()
	case c == '@' && (p.peekAt(1) == '\'' || p.peekAt(1) == '"'):
		return p.parseHereString()
	case c == '@' && (isLetter(p.peekAt(1)) || p.peekAt(1) == '_'):
		return p.parseVariable()
	case c == '(':
		return p.parseParenExpression()
	case c == '{':
		return p.parseScriptBlockExpression()
	case c == '\'' || c == '"':
		return p.parseStringLiteral()
	case isDigit(c) || (c == '.' && isDigit(p.peekAt(1))):
		return p.parseNumber()
	}
	return nil, p.unexpected("in expression")
}

// parsePostfix applies member access, method invocation and indexing that
// directly follow an operand.
func (p *parser) parsePostfix(target Ast) (Ast, error) {
	start := target.Extent().Start
	for {
		static, nullCond := false, false
		switch {
		case p.hasPrefix("::"):
			static = true
			p.pos += 2
		case p.peek() == '.' && p.peekAt(1) != '.' && isMemberStart(p.peekAt(1)):
			p.pos++
		case p.hasPrefix("?.") && isMemberStart(p.peekAt(2)):
			nullCond = true
			p.pos += 2
		case p.peek() == '[' || p.hasPrefix("?["):
			if p.peek() == '?' {
				nullCond = true
				p.pos++
			}
			p.pos++
			p.skipSpaceAndNewlines()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			p.skipSpaceAndNewlines()
			if err := p.expect(']', "closing index"); err != nil {
				return nil, err
			}
			ix := &IndexExpressionAst{Target: target, Index: idx, NullConditional: nullCond}
			ix.extent = p.span(start, p.pos)
			target = ix
			continue
		default:
			return target, nil
		}

		member, err := p.parseMemberName()
		if err != nil {
			return nil, err
		}
		if p.peek() == '(' {
			p.pos++
			args, err := p.parseArgumentList()
			if err != nil {
				return nil, err
			}
			inv := &InvokeMemberExpressionAst{Target: target, Member: member, Static: static, NullConditional: nullCond, Arguments: args}
			inv.extent = p.span(start, p.pos)
			target = inv
			continue
		}
		m := &MemberExpressionAst{Target: target, Member: member, Static: static, NullConditional: nullCond}
		m.extent = p.span(start, p.pos)
		target = m
	}
}

func isMemberStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '$' || c == '\'' || c == '"' || c == '('
}

func (p *parser) parseMemberName() (Ast, error) {
	switch c := p.peek(); {
	case c == '$' || c == '(':
		return p.parsePrimary()
	case c == '\'' || c == '"':
		return p.parseStringLiteral()
	}
	start := p.pos
	for !p.eof() && (isLetter(p.peek()) || isDigit(p.peek()) || p.peek() == '_') {
		p.pos++
	}
	if p.pos == start {
		return nil, p.unexpected("expected a member name")
	}
	s := &StringConstantExpressionAst{Value: p.src[start:p.pos], Kind: BareWord}
	s.extent = p.span(start, p.pos)
	return s, nil
}

// parseArgumentList parses method arguments up to and including ')'.
func (p *parser) parseArgumentList() ([]Ast, error) {
	var args []Ast
	p.skipSpaceAndNewlines()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		p.skipSpaceAndNewlines()
		arg, err := p.parseBinary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpaceAndNewlines()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.unexpected("in method arguments")
		}
	}
}

func (p *parser) parseNumber() (Ast, error) {
	start := p.pos
	if p.peek() == '-' || p.peek() == '+' {
		p.pos++
	}
	for !p.eof() {
		c := p.peek()
		if c == '.' && p.peekAt(1) == '.' {
			break
		}
		if !isLetter(c) && !isDigit(c) && c != '.' {
			break
		}
		p.pos++
	}
	n := &ConstantExpressionAst{Value: p.src[start:p.pos]}
	n.extent = p.span(start, p.pos)
	return n, nil
}

func isVariableStart(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '{' || c == '$' || c == '^' || c == '?'
}

// parseVariable parses $name, ${name}, $scope:name, $_, $$, $^, $? and @name.
func (p *parser) parseVariable() (*VariableExpressionAst, error) {
	start := p.pos
	v := &VariableExpressionAst{Splatted: p.peek() == '@'}
	p.pos++
	switch c := p.peek(); {
	case c == '{':
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return nil, p.errorf(start, "missing closing '}' in variable name")
		}
		v.Name = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	case c == '$' || c == '^' || c == '?':
		v.Name = string(c)
		p.pos++
	default:
		nameStart := p.pos
		for !p.eof() {
			c := p.peek()
			if isLetter(c) || isDigit(c) || c == '_' {
				p.pos++
				continue
			}
			if c == ':' && p.pos > nameStart && (isLetter(p.peekAt(1)) || p.peekAt(1) == '_') && p.peekAt(1) != ':' {
				p.pos++
				continue
			}
			break
		}
		if p.pos == nameStart {
			return nil, p.errorf(start, "missing variable name after '%c'", p.src[start])
		}
		v.Name = p.src[nameStart:p.pos]
	}
	v.extent = p.span(start, p.pos)
	return v, nil
}

func (p *parser) parseSubExpression() (Ast, error) {
	start := p.pos
	p.pos += 2
	stmts, err := p.parseStatementList(')')
	if err != nil {
		return nil, err
	}
	if err := p.expect(')', "closing sub-expression"); err != nil {
		return nil, err
	}
	s := &SubExpressionAst{Statements: stmts}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func (p *parser) parseArrayExpression() (Ast, error) {
	start := p.pos
	p.pos += 2
	stmts, err := p.parseStatementList(')')
	if err != nil {
		return nil, err
	}
	if err := p.expect(')', "closing array expression"); err != nil {
		return nil, err
	}
	a := &ArrayExpressionAst{Statements: stmts}
	a.extent = p.span(start, p.pos)
	return a, nil
}

func (p *parser) parseParenExpression() (Ast, error) {
	start := p.pos
	stmt, err := p.parseParenStatement("in parenthesized expression")
	if err != nil {
		return nil, err
	}
	pe := &ParenExpressionAst{Pipeline: stmt}
	pe.extent = p.span(start, p.pos)
	return pe, nil
}

func (p *parser) parseScriptBlockExpression() (Ast, error) {
	start := p.pos
	p.pos++
	sb, err := p.parseScriptBlockBody(start, '}')
	if err != nil {
		return nil, err
	}
	if err := p.expect('}', "closing script block"); err != nil {
		return nil, err
	}
	sb.extent = p.span(start, p.pos)
	e := &ScriptBlockExpressionAst{ScriptBlock: sb}
	e.extent = sb.extent
	return e, nil
}

func (p *parser) parseHashtable() (Ast, error) {
	start := p.pos
	p.pos += 2
	h := &HashtableAst{}
	for {
		p.skipStatementSeparators()
		if p.peek() == '}' {
			p.pos++
			break
		}
		if p.eof() {
			return nil, p.errorf(start, "missing closing '}' in hash literal")
		}
		key, err := p.parseHashKey()
		if err != nil {
			return nil, err
		}
		p.skipSpaceAndNewlines()
		if err := p.expect('=', "in hash literal, expected '='"); err != nil {
			return nil, err
		}
		p.skipSpaceAndNewlines()
		value, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		h.Pairs = append(h.Pairs, KeyValuePair{Key: key, Value: value})
		p.skipSpace()
		if !p.eof() && p.peek() != '}' && p.peek() != ';' && !isNewline(p.peek()) {
			return nil, p.unexpected("in hash literal")
		}
	}
	h.extent = p.span(start, p.pos)
	return h, nil
}

func (p *parser) parseHashKey() (Ast, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseStringLiteral()
	case c == '$' || c == '(' || c == '[':
		return p.parseUnary()
	}
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isBlank(c) || isNewline(c) || c == '=' || c == ';' || c == '}' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return nil, p.unexpected("in hash literal, expected a key")
	}
	s := &StringConstantExpressionAst{Value: p.src[start:p.pos], Kind: BareWord}
	s.extent = p.span(start, p.pos)
	return s, nil
}

// --- strings ---

func (p *parser) parseStringLiteral() (Ast, error) {
	start := p.pos
	if p.peek() == '\'' {
		if err := p.scanSingleQuoted(); err != nil {
			return nil, err
		}
		raw := p.src[start+1 : p.pos-1]
		s := &StringConstantExpressionAst{Value: strings.ReplaceAll(raw, "''", "'"), Kind: SingleQuoted}
		s.extent = p.span(start, p.pos)
		return s, nil
	}
	nested, err := p.scanDoubleQuoted()
	if err != nil {
		return nil, err
	}
	raw := p.src[start+1 : p.pos-1]
	if len(nested) > 0 {
		s := &ExpandableStringExpressionAst{Value: raw, Kind: DoubleQuoted, Nested: nested}
		s.extent = p.span(start, p.pos)
		return s, nil
	}
	s := &StringConstantExpressionAst{Value: unescapeDoubleQuoted(raw), Kind: DoubleQuoted}
	s.extent = p.span(start, p.pos)
	return s, nil
}

// scanSingleQuoted consumes a '...' literal.
func (p *parser) scanSingleQuoted() error {
	start := p.pos
	p.pos++
	for !p.eof() {
		if p.peek() == '\'' {
			if p.peekAt(1) == '\'' {
				p.pos += 2
				continue
			}
			p.pos++
			return nil
		}
		p.pos++
	}
	return p.errorf(start, "the string is missing the terminator: '")
}

// scanDoubleQuoted consumes a "..." literal and returns the variables and
// sub-expressions embedded in it.
func (p *parser) scanDoubleQuoted() ([]Ast, error) {
	start := p.pos
	p.pos++
	var nested []Ast
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '`':
			p.pos += 2
		case c == '"':
			if p.peekAt(1) == '"' {
				p.pos += 2
				continue
			}
			p.pos++
			return nested, nil
		case c == '$' && p.peekAt(1) == '(':
			sub, err := p.parseSubExpression()
			if err != nil {
				return nil, err
			}
			nested = append(nested, sub)
		case c == '$' && isVariableStart(p.peekAt(1)) && p.peekAt(1) != '?' && p.peekAt(1) != '^':
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			nested = append(nested, v)
		default:
			p.pos++
		}
	}
	return nil, p.errorf(start, "the string is missing the terminator: \"")
}

// parseHereString parses @'...'@ and @"..."@. The opening quote must end its
// line and the closing quote must start one.
func (p *parser) parseHereString() (Ast, error) {
	start := p.pos
	quote := p.peekAt(1)
	p.pos += 2
	p.skipSpace()
	if !isNewline(p.peek()) {
		return nil, p.errorf(start, "no characters are allowed after a here-string header")
	}
	p.skipNewline()
	bodyStart := p.pos
	closing := string(quote) + "@"
	var nested []Ast
	for !p.eof() {
		lineStart := p.pos == bodyStart || isNewline(p.src[p.pos-1])
		if lineStart && p.hasPrefix(closing) {
			body := strings.TrimRight(p.src[bodyStart:p.pos], "\r\n")
			p.pos += 2
			if quote == '"' && len(nested) > 0 {
				s := &ExpandableStringExpressionAst{Value: body, Kind: DoubleQuotedHereString, Nested: nested}
				s.extent = p.span(start, p.pos)
				return s, nil
			}
			kind := SingleQuotedHereString
			if quote == '"' {
				kind = DoubleQuotedHereString
			}
			s := &StringConstantExpressionAst{Value: body, Kind: kind}
			s.extent = p.span(start, p.pos)
			return s, nil
		}
		if quote == '"' && p.peek() == '$' && p.peekAt(1) == '(' {
			sub, err := p.parseSubExpression()
			if err != nil {
				return nil, err
			}
			nested = append(nested, sub)
			continue
		}
		if quote == '"' && p.peek() == '$' && isVariableStart(p.peekAt(1)) {
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			nested = append(nested, v)
			continue
		}
		p.pos++
	}
	return nil, p.errorf(start, "the here-string is missing its terminator: %s", closing)
}

func unescapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, "`\"") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '`' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(s[i])
			}
		case c == '"' && i+1 < len(s) && s[i+1] == '"':
			i++
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
