// Package advisory merges flagged commands and formats the advanced query
// advisory shown to the user.
package advisory

import (
	"fmt"
	"io"
	"strings"
)

const (
	Header = "The following command combinations were detected as needing Advanced Query Capabilities. Ensure you add -CountVariable CountVar and -ConsistencyLevel Eventual to these commands or you may get unexpected errors or empty results"
	Footer = "More: https://learn.microsoft.com/en-us/graph/aad-advanced-queries?tabs=powershell"
)

// Layout is the display layout of an advisory body
type Layout string

const (
	// LayoutPortrait renders one body entry per line
	LayoutPortrait Layout = "Portrait"
)

// Payload is a formatted advisory. It is built once and not modified.
type Payload struct {
	Header string   `json:"header"`
	Body   []string `json:"body"`
	Footer string   `json:"footer"`
	Layout Layout   `json:"layout"`
}

// Aggregate merges the error match, if any, with the syntax matches. The
// error match comes first, then syntax matches in order; repeated command
// texts keep their first position.
func Aggregate(errorMatch *string, syntaxMatches []string) []string {
	out := make([]string, 0, len(syntaxMatches)+1)
	seen := make(map[string]bool, len(syntaxMatches)+1)
	add := func(s string) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	if errorMatch != nil {
		add(*errorMatch)
	}
	for _, s := range syntaxMatches {
		add(s)
	}
	return out
}

// Build wraps commands in an advisory payload. It returns nil when there is
// nothing to report.
func Build(commands []string) *Payload {
	if len(commands) == 0 {
		return nil
	}
	body := make([]string, len(commands))
	copy(body, commands)
	return &Payload{
		Header: Header,
		Body:   body,
		Footer: Footer,
		Layout: LayoutPortrait,
	}
}

// Render writes the payload as text: the header, each command on its own
// indented line, and the footer.
func (p *Payload) Render(w io.Writer) error {
	if _, err := fmt.Fprintln(w, p.Header); err != nil {
		return err
	}
	for _, cmd := range p.Body {
		// Continuation lines of multi-line commands keep the indent.
		line := strings.ReplaceAll(cmd, "\n", "\n    ")
		if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, p.Footer)
	return err
}

func (p *Payload) String() string {
	var b strings.Builder
	_ = p.Render(&b)
	return b.String()
}
