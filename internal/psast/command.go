package psast

import "strings"

// parseCommand parses a command in argument mode: the command name followed
// by parameters, arguments and redirections.
func (p *parser) parseCommand() (Ast, error) {
	start := p.pos
	cmd := &CommandAst{}

	switch {
	case p.peek() == '&' && p.peekAt(1) != '&':
		cmd.InvocationOperator = "&"
		p.pos++
		p.skipSpace()
	case p.peek() == '.' && (isBlank(p.peekAt(1)) || p.peekAt(1) == '{' || p.peekAt(1) == '$' || p.peekAt(1) == '\'' || p.peekAt(1) == '"'):
		cmd.InvocationOperator = "."
		p.pos++
		p.skipSpace()
	}

	if p.atCommandEnd() {
		return nil, p.unexpected("expected a command name")
	}
	name, err := p.parseCommandName(cmd.InvocationOperator != "")
	if err != nil {
		return nil, err
	}
	cmd.Elements = append(cmd.Elements, name)
	end := p.pos

	for {
		p.skipSpace()
		if p.atCommandEnd() {
			break
		}
		switch {
		case p.atRedirection():
			r, err := p.parseRedirection()
			if err != nil {
				return nil, err
			}
			cmd.Redirections = append(cmd.Redirections, r)
		case p.atParameter():
			prm, err := p.parseParameter()
			if err != nil {
				return nil, err
			}
			cmd.Elements = append(cmd.Elements, prm)
		case p.hasPrefix("--%"):
			cmd.Elements = append(cmd.Elements, p.parseVerbatimArgument())
		default:
			arg, err := p.parseCommandArgument()
			if err != nil {
				return nil, err
			}
			cmd.Elements = append(cmd.Elements, arg)
		}
		end = p.pos
	}
	p.pos = end
	cmd.extent = p.span(start, end)
	return cmd, nil
}

func (p *parser) parseCommandName(afterOperator bool) (Ast, error) {
	if afterOperator {
		return p.parseSingleArgument()
	}
	switch p.peek() {
	case '\'', '"':
		return p.parseSingleArgument()
	}
	return p.parseBareword()
}

func (p *parser) atCommandEnd() bool {
	if p.eof() {
		return true
	}
	switch p.peek() {
	case '\n', '\r', ';', ')', '}', '|', '&':
		return true
	}
	return false
}

func (p *parser) atParameter() bool {
	if p.peek() != '-' {
		return false
	}
	n := p.peekAt(1)
	return isLetter(n) || n == '_' || n == '?'
}

// parseParameter parses -Name, -Name:value or -Name: value.
func (p *parser) parseParameter() (Ast, error) {
	start := p.pos
	p.pos++
	nameStart := p.pos
	for !p.eof() {
		c := p.peek()
		if isBlank(c) || isNewline(c) || strings.IndexByte(":;|&(){},'\"", c) >= 0 {
			break
		}
		p.pos++
	}
	prm := &CommandParameterAst{Name: p.src[nameStart:p.pos]}
	if p.peek() == ':' {
		p.pos++
		p.skipSpace()
		if !p.atCommandEnd() {
			arg, err := p.parseCommandArgument()
			if err != nil {
				return nil, err
			}
			prm.Argument = arg
		}
	}
	prm.extent = p.span(start, p.pos)
	return prm, nil
}

// parseVerbatimArgument consumes '--%' and the rest of the line as one
// argument.
func (p *parser) parseVerbatimArgument() Ast {
	start := p.pos
	for !p.eof() && !isNewline(p.peek()) && p.peek() != '|' {
		p.pos++
	}
	end := p.pos
	for end > start && isBlank(p.src[end-1]) {
		end--
	}
	p.pos = end
	s := &StringConstantExpressionAst{Value: p.src[start:end], Kind: BareWord}
	s.extent = p.span(start, end)
	return s
}

func (p *parser) atRedirection() bool {
	c := p.peek()
	if c == '>' || c == '<' {
		return true
	}
	if (isDigit(c) || c == '*') && p.peekAt(1) == '>' {
		return true
	}
	return false
}

// parseRedirection parses '>', '>>', 'n>', 'n>>', 'n>&1' and their targets.
func (p *parser) parseRedirection() (*RedirectionAst, error) {
	start := p.pos
	if isDigit(p.peek()) || p.peek() == '*' {
		p.pos++
	}
	if p.peek() == '<' {
		p.pos++
		return nil, p.errorf(start, "the '<' operator is reserved for future use")
	}
	p.pos++ // '>'
	if p.peek() == '>' {
		p.pos++
	}
	r := &RedirectionAst{}
	if p.peek() == '&' && isDigit(p.peekAt(1)) {
		p.pos += 2
		r.Operator = p.src[start:p.pos]
		r.extent = p.span(start, p.pos)
		return r, nil
	}
	r.Operator = p.src[start:p.pos]
	p.skipSpace()
	if p.atCommandEnd() {
		return nil, p.errorf(p.pos, "missing file specification after redirection operator")
	}
	target, err := p.parseSingleArgument()
	if err != nil {
		return nil, err
	}
	r.Target = target
	r.extent = p.span(start, p.pos)
	return r, nil
}

// parseCommandArgument parses one argument, folding comma separated values
// into an ArrayLiteralAst.
func (p *parser) parseCommandArgument() (Ast, error) {
	start := p.pos
	first, err := p.parseSingleArgument()
	if err != nil {
		return nil, err
	}
	elems := []Ast{first}
	end := p.pos
	for {
		p.skipSpace()
		if p.peek() != ',' {
			break
		}
		p.pos++
		p.skipSpaceAndNewlines()
		next, err := p.parseSingleArgument()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
		end = p.pos
	}
	p.pos = end
	if len(elems) == 1 {
		return first, nil
	}
	arr := &ArrayLiteralAst{Elements: elems}
	arr.extent = p.span(start, end)
	return arr, nil
}

// parseSingleArgument parses one argument-mode value.
func (p *parser) parseSingleArgument() (Ast, error) {
	c := p.peek()
	switch {
	case c == '\'' || c == '"':
		return p.parseStringLiteral()
	case c == '@' && (p.peekAt(1) == '\'' || p.peekAt(1) == '"'):
		return p.parseHereString()
	case c == '$':
		// $x.Name is a member expression but $x/suffix is an expandable word.
		save := p.pos
		prim, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		expr, err := p.parsePostfix(prim)
		if err != nil {
			return nil, err
		}
		if p.eof() || isArgumentTerminator(p.peek()) {
			return expr, nil
		}
		p.pos = save
		return p.parseBareword()
	case c == '(' || (c == '@' && (p.peekAt(1) == '(' || p.peekAt(1) == '{')):
		prim, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return p.parsePostfix(prim)
	case c == '@' && (isLetter(p.peekAt(1)) || p.peekAt(1) == '_'):
		return p.parseVariable()
	case c == '{':
		return p.parseScriptBlockExpression()
	}
	return p.parseBareword()
}

// parseBareword parses an unquoted argument. Quoted segments, variables and
// sub-expressions embedded in the word make it expandable.
func (p *parser) parseBareword() (Ast, error) {
	start := p.pos
	var nested []Ast
	expandable := false
scan:
	for !p.eof() {
		c := p.peek()
		if isArgumentTerminator(c) {
			break
		}
		switch {
		case c == '`':
			if isNewline(p.peekAt(1)) || p.peekAt(1) == 0 {
				break scan
			}
			p.pos += 2
		case c == '\'':
			if err := p.scanSingleQuoted(); err != nil {
				return nil, err
			}
		case c == '"':
			inner, err := p.scanDoubleQuoted()
			if err != nil {
				return nil, err
			}
			nested = append(nested, inner...)
			expandable = true
		case c == '$' && p.peekAt(1) == '(':
			sub, err := p.parseSubExpression()
			if err != nil {
				return nil, err
			}
			nested = append(nested, sub)
			expandable = true
		case c == '$' && isVariableStart(p.peekAt(1)):
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			nested = append(nested, v)
			expandable = true
		default:
			p.pos++
		}
	}
	if p.pos == start {
		return nil, p.unexpected("expected an argument")
	}
	text := p.src[start:p.pos]
	if expandable {
		s := &ExpandableStringExpressionAst{Value: text, Kind: BareWord, Nested: nested}
		s.extent = p.span(start, p.pos)
		return s, nil
	}
	s := &StringConstantExpressionAst{Value: unescapeBareword(text), Kind: BareWord}
	s.extent = p.span(start, p.pos)
	return s, nil
}

func isArgumentTerminator(c byte) bool {
	return isBlank(c) || isNewline(c) || strings.IndexByte(";|&(){},>", c) >= 0
}

func unescapeBareword(s string) string {
	if !strings.ContainsAny(s, "`'") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '`' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == '\'':
			j := i + 1
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						b.WriteByte('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteByte(s[j])
				j++
			}
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
