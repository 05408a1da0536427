package psast

import "fmt"

// ParseError describes a syntax error in the parsed source.
type ParseError struct {
	Offset  int    `json:"offset"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func (p *parser) errorf(offset int, format string, args ...interface{}) *ParseError {
	line, col := p.position(offset)
	return &ParseError{
		Offset:  offset,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}

// unexpected reports the token at the current position.
func (p *parser) unexpected(context string) *ParseError {
	if p.eof() {
		return p.errorf(p.pos, "unexpected end of input %s", context)
	}
	end := p.pos + 1
	for end < len(p.src) && isWordChar(p.src[end]) && isWordChar(p.src[p.pos]) {
		end++
	}
	return p.errorf(p.pos, "unexpected token '%s' %s", p.src[p.pos:end], context)
}
