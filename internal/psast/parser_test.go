package psast

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *ScriptBlockAst {
	t.Helper()
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

func commands(t *testing.T, root Ast, nested bool) []*CommandAst {
	t.Helper()
	var out []*CommandAst
	for c := range FindAllOf[*CommandAst](context.Background(), root, nil, nested) {
		out = append(out, c)
	}
	return out
}

func commandNames(cmds []*CommandAst) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name())
	}
	return names
}

func TestParse_SimpleCommand(t *testing.T) {
	src := "Get-MgUser -CountVariable cv -ConsistencyLevel Eventual"
	root := mustParse(t, src)

	stmts := root.Statements()
	if len(stmts) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(stmts))
	}
	pipe, ok := stmts[0].(*PipelineAst)
	if !ok {
		t.Fatalf("statement is %T, want *PipelineAst", stmts[0])
	}
	cmd, ok := pipe.Elements[0].(*CommandAst)
	if !ok {
		t.Fatalf("pipeline element is %T, want *CommandAst", pipe.Elements[0])
	}
	if cmd.String() != src {
		t.Errorf("command text = %q, want %q", cmd.String(), src)
	}
	if len(cmd.Elements) != 5 {
		t.Fatalf("len(Elements) = %d, want 5", len(cmd.Elements))
	}
	if cmd.Name() != "Get-MgUser" {
		t.Errorf("Name() = %q, want Get-MgUser", cmd.Name())
	}
	prm, ok := cmd.Elements[1].(*CommandParameterAst)
	if !ok || prm.Name != "CountVariable" {
		t.Errorf("Elements[1] = %#v, want parameter CountVariable", cmd.Elements[1])
	}
	arg, ok := cmd.Elements[2].(*StringConstantExpressionAst)
	if !ok || arg.Value != "cv" || arg.Kind != BareWord {
		t.Errorf("Elements[2] = %#v, want bareword cv", cmd.Elements[2])
	}
}

func TestParse_CommandElements(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantText   string
		wantParams []string
		wantElems  int
	}{
		{
			name:       "count in filter is one expandable word",
			src:        "Get-MgUser -Filter assignedLicenses/$count eq 0",
			wantText:   "Get-MgUser -Filter assignedLicenses/$count eq 0",
			wantParams: []string{"Filter"},
			wantElems:  5,
		},
		{
			name:       "double quoted argument",
			src:        `Get-MgUser -Search "displayName:John"`,
			wantText:   `Get-MgUser -Search "displayName:John"`,
			wantParams: []string{"Search"},
			wantElems:  3,
		},
		{
			name:       "colon bound arguments",
			src:        "Get-MgUser -Top:5 -ConsistencyLevel:eventual",
			wantText:   "Get-MgUser -Top:5 -ConsistencyLevel:eventual",
			wantParams: []string{"Top", "ConsistencyLevel"},
			wantElems:  3,
		},
		{
			name:       "comma list argument",
			src:        "Get-MgUser -Property id,displayName, mail -OrderBy displayName",
			wantText:   "Get-MgUser -Property id,displayName, mail -OrderBy displayName",
			wantParams: []string{"Property", "OrderBy"},
			wantElems:  5,
		},
		{
			name:       "trailing comment is not part of the command",
			src:        "Get-MgUser -All # every user",
			wantText:   "Get-MgUser -All",
			wantParams: []string{"All"},
			wantElems:  2,
		},
		{
			name:       "line continuation",
			src:        "Get-MgUser `\n  -CountVariable cv",
			wantText:   "Get-MgUser `\n  -CountVariable cv",
			wantParams: []string{"CountVariable"},
			wantElems:  3,
		},
		{
			name:       "single quoted filter with escaped quote",
			src:        `Get-MgUser -Filter 'displayName eq ''O''Brien'''`,
			wantText:   `Get-MgUser -Filter 'displayName eq ''O''Brien'''`,
			wantParams: []string{"Filter"},
			wantElems:  3,
		},
		{
			name:       "paren argument",
			src:        "Get-MgUser -UserId (Get-Content ids.txt)",
			wantText:   "Get-MgUser -UserId (Get-Content ids.txt)",
			wantParams: []string{"UserId"},
			wantElems:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.src)
			cmds := commands(t, root, false)
			if len(cmds) == 0 {
				t.Fatal("no command found")
			}
			cmd := cmds[0]
			if cmd.String() != tt.wantText {
				t.Errorf("text = %q, want %q", cmd.String(), tt.wantText)
			}
			if len(cmd.Elements) != tt.wantElems {
				t.Errorf("len(Elements) = %d, want %d", len(cmd.Elements), tt.wantElems)
			}
			var params []string
			for _, e := range cmd.Elements {
				if p, ok := e.(*CommandParameterAst); ok {
					params = append(params, p.Name)
				}
			}
			if strings.Join(params, ",") != strings.Join(tt.wantParams, ",") {
				t.Errorf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}

func TestParse_NestedScopes(t *testing.T) {
	src := `function Get-Users {
  param($Top)
  foreach ($i in 1..3) {
    if ($i -gt 1) { Get-MgUser -CountVariable c }
  }
}
$x = { Get-MgGroup -Top 5 }
$users | ForEach-Object { Get-MgUser -ConsistencyLevel eventual }
`
	root := mustParse(t, src)

	got := commandNames(commands(t, root, true))
	want := []string{"Get-MgUser", "Get-MgGroup", "ForEach-Object", "Get-MgUser"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("nested commands = %v, want %v", got, want)
	}

	got = commandNames(commands(t, root, false))
	want = []string{"ForEach-Object"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("top-level commands = %v, want %v", got, want)
	}

	fn, ok := root.Statements()[0].(*FunctionDefinitionAst)
	if !ok {
		t.Fatalf("first statement is %T, want *FunctionDefinitionAst", root.Statements()[0])
	}
	if fn.Name != "Get-Users" {
		t.Errorf("function name = %q, want Get-Users", fn.Name)
	}
	if fn.Body.Param == nil || len(fn.Body.Param.Parameters) != 1 || fn.Body.Param.Parameters[0].Name != "Top" {
		t.Errorf("param block not parsed: %#v", fn.Body.Param)
	}
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		names []string
	}{
		{
			name:  "try catch finally",
			src:   "try { Get-MgUser -Top 1 } catch [System.Exception] { Write-Error $_ } finally { Disconnect-MgGraph }",
			names: []string{"Get-MgUser", "Write-Error", "Disconnect-MgGraph"},
		},
		{
			name:  "do until",
			src:   "do { $page = Get-MgUser -Top 10 } until ($page.Count -lt 10)",
			names: []string{"Get-MgUser"},
		},
		{
			name:  "while",
			src:   "while ($true) { Get-MgGroup; break }",
			names: []string{"Get-MgGroup"},
		},
		{
			name:  "for",
			src:   "for ($i = 0; $i -lt 3; $i++) { Get-MgUser -Skip $i }",
			names: []string{"Get-MgUser"},
		},
		{
			name: "switch",
			src: `switch -regex ($kind) {
  'user' { Get-MgUser }
  default { Get-MgGroup }
}`,
			names: []string{"Get-MgUser", "Get-MgGroup"},
		},
		{
			name:  "elseif else",
			src:   "if ($a) { A } elseif ($b) { B } else { C }",
			names: []string{"A", "B", "C"},
		},
		{
			name:  "sub-expression in string",
			src:   `Write-Host "Users: $(Get-MgUser -CountVariable c)"`,
			names: []string{"Write-Host", "Get-MgUser"},
		},
		{
			name:  "splatting",
			src:   `$p = @{ Filter = "x"; Top = 5 }; Get-MgUser @p`,
			names: []string{"Get-MgUser"},
		},
		{
			name:  "method call with script block",
			src:   "$ids.ForEach({ Get-MgUser -UserId $_ })",
			names: []string{"Get-MgUser"},
		},
		{
			name:  "array sub-expression",
			src:   "$all = @(Get-MgUser -All)",
			names: []string{"Get-MgUser"},
		},
		{
			name:  "pipeline chain",
			src:   "Connect-MgGraph && Get-MgUser || Write-Warning failed",
			names: []string{"Connect-MgGraph", "Get-MgUser", "Write-Warning"},
		},
		{
			name:  "here-string",
			src:   "$q = @'\nhello\n'@\nGet-MgUser",
			names: []string{"Get-MgUser"},
		},
		{
			name:  "cast and static member",
			src:   "[int]$n = [Math]::Max(1, 2); Get-MgUser -Top $n",
			names: []string{"Get-MgUser"},
		},
		{
			name:  "named blocks",
			src:   "begin { Connect-MgGraph } process { Get-MgUser } end { Disconnect-MgGraph }",
			names: []string{"Connect-MgGraph", "Get-MgUser", "Disconnect-MgGraph"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.src)
			got := commandNames(commands(t, root, true))
			if strings.Join(got, ",") != strings.Join(tt.names, ",") {
				t.Errorf("commands = %v, want %v", got, tt.names)
			}
		})
	}
}

func TestParse_InvocationOperator(t *testing.T) {
	root := mustParse(t, "& $cmd -CountVariable c")
	cmds := commands(t, root, true)
	if len(cmds) != 1 {
		t.Fatalf("len(commands) = %d, want 1", len(cmds))
	}
	if cmds[0].InvocationOperator != "&" {
		t.Errorf("InvocationOperator = %q, want &", cmds[0].InvocationOperator)
	}
	if _, ok := cmds[0].Elements[0].(*VariableExpressionAst); !ok {
		t.Errorf("Elements[0] is %T, want *VariableExpressionAst", cmds[0].Elements[0])
	}
}

func TestParse_Redirections(t *testing.T) {
	root := mustParse(t, "Get-MgUser -All > users.txt 2>&1")
	cmd := commands(t, root, true)[0]
	if len(cmd.Elements) != 2 {
		t.Errorf("len(Elements) = %d, want 2", len(cmd.Elements))
	}
	if len(cmd.Redirections) != 2 {
		t.Fatalf("len(Redirections) = %d, want 2", len(cmd.Redirections))
	}
	if cmd.Redirections[0].Operator != ">" || cmd.Redirections[0].Target.String() != "users.txt" {
		t.Errorf("first redirection = %q -> %v", cmd.Redirections[0].Operator, cmd.Redirections[0].Target)
	}
	if cmd.Redirections[1].Operator != "2>&1" {
		t.Errorf("second redirection operator = %q, want 2>&1", cmd.Redirections[1].Operator)
	}
}

func TestParse_Extents(t *testing.T) {
	root := mustParse(t, "\n  Get-MgUser -Top 1\n")
	cmd := commands(t, root, true)[0]
	ext := cmd.Extent()
	if ext.StartLine != 2 || ext.StartColumn != 3 {
		t.Errorf("start = %d:%d, want 2:3", ext.StartLine, ext.StartColumn)
	}
	if ext.Text != "Get-MgUser -Top 1" {
		t.Errorf("text = %q", ext.Text)
	}
	if root.Extent().Text != "\n  Get-MgUser -Top 1\n" {
		t.Errorf("root extent should cover the whole input, got %q", root.Extent().Text)
	}
}

func TestParse_Parents(t *testing.T) {
	root := mustParse(t, "if ($x) { Get-MgUser -CountVariable c }")
	prm, ok := Find(context.Background(), root, func(a Ast) bool {
		_, ok := a.(*CommandParameterAst)
		return ok
	}, true)
	if !ok {
		t.Fatal("parameter not found")
	}
	var chain []string
	for n := prm.Parent(); n != nil; n = n.Parent() {
		chain = append(chain, typeName(n))
	}
	if chain[0] != "CommandAst" || chain[len(chain)-1] != "ScriptBlockAst" {
		t.Errorf("parent chain = %v", chain)
	}
}

func typeName(a Ast) string {
	switch a.(type) {
	case *CommandAst:
		return "CommandAst"
	case *ScriptBlockAst:
		return "ScriptBlockAst"
	case *PipelineAst:
		return "PipelineAst"
	case *StatementBlockAst:
		return "StatementBlockAst"
	case *IfStatementAst:
		return "IfStatementAst"
	case *NamedBlockAst:
		return "NamedBlockAst"
	}
	return "other"
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantMsg  string
	}{
		{"unterminated double quote", `Get-MgUser -Filter "displayName eq 'a'`, 1, "terminator"},
		{"unterminated single quote", "Get-MgUser -Filter 'abc", 1, "terminator"},
		{"missing closing brace", "if ($x) {\n  Get-MgUser\n", 3, "missing closing"},
		{"stray closing brace", "Get-MgUser }", 1, "unexpected token"},
		{"try without catch", "try { Get-MgUser }", 1, "catch or finally"},
		{"unclosed sub-expression", "Write-Host $(Get-MgUser", 1, "missing closing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error is %T, want *ParseError", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", perr.Line, tt.wantLine, perr)
			}
			if !strings.Contains(perr.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", perr.Message, tt.wantMsg)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\n", "# only a comment", ";;"} {
		root := mustParse(t, src)
		if n := len(root.Statements()); n != 0 {
			t.Errorf("Parse(%q) has %d statements, want 0", src, n)
		}
	}
}

func TestParse_Ternary(t *testing.T) {
	root := mustParse(t, "$n = $a ? (Get-MgUser -Top 1) : $b ? 2 : 3; Get-MgUser -Search x")
	var terns []*TernaryExpressionAst
	for n := range FindAllOf[*TernaryExpressionAst](context.Background(), root, nil, true) {
		terns = append(terns, n)
	}
	if len(terns) != 2 {
		t.Fatalf("len(ternaries) = %d, want 2", len(terns))
	}
	if got := terns[0].Condition.String(); got != "$a" {
		t.Errorf("Condition = %q, want $a", got)
	}
	if _, ok := terns[0].IfFalse.(*TernaryExpressionAst); !ok {
		t.Errorf("IfFalse is %T, want nested ternary", terns[0].IfFalse)
	}
	got := commandNames(commands(t, root, true))
	if strings.Join(got, ",") != "Get-MgUser,Get-MgUser" {
		t.Errorf("commands = %v", got)
	}
}

func TestParse_NullConditional(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"$b.c?.d", "member"},
		{"$b?.Trim()", "invoke"},
		{"$b.items?[0]", "index"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			root := mustParse(t, tt.src)
			stmt := root.Statements()[0].(*PipelineAst)
			expr := stmt.Elements[0].(*CommandExpressionAst).Expression
			var kind string
			var nullCond bool
			switch e := expr.(type) {
			case *MemberExpressionAst:
				kind, nullCond = "member", e.NullConditional
			case *InvokeMemberExpressionAst:
				kind, nullCond = "invoke", e.NullConditional
			case *IndexExpressionAst:
				kind, nullCond = "index", e.NullConditional
			}
			if kind != tt.want || !nullCond {
				t.Errorf("got %T (null-conditional %v), want null-conditional %s", expr, nullCond, tt.want)
			}
			if expr.String() != tt.src {
				t.Errorf("String() = %q, want %q", expr.String(), tt.src)
			}
		})
	}
}

func TestParse_TernaryErrors(t *testing.T) {
	for _, src := range []string{"$a ? 1", "$a ? 1 2"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		}
	}
}
