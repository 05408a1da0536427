package query

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mgaq/internal/psast"
)

func parse(t *testing.T, src string) *psast.ScriptBlockAst {
	t.Helper()
	root, err := psast.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

func firstInvocation(t *testing.T, src string) *CommandInvocation {
	t.Helper()
	for inv := range FindQualifyingCommands(context.Background(), parse(t, src)) {
		return inv
	}
	t.Fatalf("no Graph command in %q", src)
	return nil
}

func TestNeedsAdvancedQuery(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"both present", "Get-MgUser -CountVariable cv -ConsistencyLevel Eventual", false},
		{"both present lower case", "Get-MgUser -countvariable cv -consistencylevel eventual", false},
		{"both present upper case", "Get-MgUser -COUNTVARIABLE cv -CONSISTENCYLEVEL Eventual", false},
		{"both present reversed", "Get-MgUser -ConsistencyLevel Eventual -CountVariable cv", false},
		{"both present colon bound", "Get-MgUser -CountVariable:cv -ConsistencyLevel:Eventual", false},
		{"count only", "Get-MgUser -CountVariable cv", true},
		{"count only without value", "Get-MgUser -CountVariable", true},
		{"count only mixed case", "Get-MgUser -countVARIABLE cv -Filter x", true},
		{"consistency only", "Get-MgUser -ConsistencyLevel Eventual", false},
		{"neither", "Get-MgUser -Top 5", false},
		{"no parameters", "Get-MgUser", false},
		{"prefix of parameter does not count", "Get-MgUser -Count cv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := firstInvocation(t, tt.src)
			if got := NeedsAdvancedQuery(inv); got != tt.want {
				t.Errorf("NeedsAdvancedQuery(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestFindQualifyingCommands(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "non Graph command",
			src:  "Get-Nothing",
			want: nil,
		},
		{
			name: "marker is case insensitive",
			src:  "get-mguser; GET-MGGROUP; Get-MgUser",
			want: []string{"get-mguser", "GET-MGGROUP", "Get-MgUser"},
		},
		{
			name: "marker anywhere in the name",
			src:  "Microsoft.Graph.Users\\Get-MgUser -Top 1",
			want: []string{"Microsoft.Graph.Users\\Get-MgUser -Top 1"},
		},
		{
			name: "pipeline",
			src:  "Get-MgGroup -All | ForEach-Object { Get-MgGroupMember -GroupId $_.Id -CountVariable c }",
			want: []string{"Get-MgGroup -All", "Get-MgGroupMember -GroupId $_.Id -CountVariable c"},
		},
		{
			name: "function body and loop",
			src: `function Find-Users {
  foreach ($n in $names) {
    if ($n) { Get-MgUser -Search "displayName:$n" -CountVariable c }
  }
}`,
			want: []string{`Get-MgUser -Search "displayName:$n" -CountVariable c`},
		},
		{
			name: "sub-expression in argument",
			src:  `Write-Output "Count: $(Get-MgUserCount -ConsistencyLevel eventual)"`,
			want: []string{"Get-MgUserCount -ConsistencyLevel eventual"},
		},
		{
			name: "parameter value mentioning the marker is not a command",
			src:  "Write-Host -Object x-mgy",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for inv := range FindQualifyingCommands(context.Background(), parse(t, tt.src)) {
				got = append(got, inv.Text)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlaggedCommands(t *testing.T) {
	src := `Get-MgUser -CountVariable a
$ok = Get-MgGroup -CountVariable b -ConsistencyLevel eventual
1..2 | ForEach-Object { Get-MgDevice -CountVariable c }
Get-Nothing -CountVariable d`
	got, err := FlaggedCommands(context.Background(), parse(t, src))
	if err != nil {
		t.Fatalf("FlaggedCommands failed: %v", err)
	}
	want := []string{"Get-MgUser -CountVariable a", "Get-MgDevice -CountVariable c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flagged mismatch (-want +got):\n%s", diff)
	}
}

func TestFlaggedCommands_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FlaggedCommands(ctx, parse(t, "Get-MgUser -CountVariable a"))
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCommandInvocation(t *testing.T) {
	inv := firstInvocation(t, "\n  Get-MgUser -Filter x -top 5 -TOP 6 -CountVariable c")

	if inv.Name() != "Get-MgUser" {
		t.Errorf("Name() = %q", inv.Name())
	}
	if inv.Line != 2 || inv.Column != 3 {
		t.Errorf("position = %d:%d, want 2:3", inv.Line, inv.Column)
	}
	if diff := cmp.Diff([]string{"Filter", "top", "CountVariable"}, inv.ParameterNames()); diff != "" {
		t.Errorf("ParameterNames mismatch (-want +got):\n%s", diff)
	}
	if !inv.HasParameter("TOP") || !inv.HasParameter("filter") {
		t.Error("HasParameter should ignore case")
	}
	if inv.HasParameter("Search") {
		t.Error("HasParameter(Search) = true, want false")
	}
	if inv.String() != "Get-MgUser -Filter x -top 5 -TOP 6 -CountVariable c" {
		t.Errorf("String() = %q", inv.String())
	}
}

func TestCommandInvocation_NestedParameters(t *testing.T) {
	inv := firstInvocation(t, "Get-MgUser -UserId (Get-Content -CountVariable x)")
	if !inv.HasParameter(ParamCountVariable) {
		t.Error("parameters inside the command's arguments should count for the command")
	}
	if diff := cmp.Diff([]string{"UserId", "CountVariable"}, inv.ParameterNames()); diff != "" {
		t.Errorf("ParameterNames mismatch (-want +got):\n%s", diff)
	}
}

func TestNeedsAdvancedQuery_NestedArguments(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"Get-MgUser -Filter (Get-Other -CountVariable x)", true},
		{"Get-MgUser -CountVariable cv -Filter (Get-Other -ConsistencyLevel x)", false},
		{"Get-MgUser -Filter $(Get-Other -countvariable x -CONSISTENCYLEVEL e)", false},
	}
	for _, tt := range tests {
		if got := NeedsAdvancedQuery(firstInvocation(t, tt.src)); got != tt.want {
			t.Errorf("NeedsAdvancedQuery(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestContainsParameter(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"Get-MgUser -Filter x -OrderBy displayName", true},
		{"Get-MgUser -filter x -orderby displayName", true},
		{`Get-MgUser -filter "displayname eq 'test'"`, false},
		{"Get-MgUser -Filter x | Sort-Object -Property Name", false},
		{"Invoke-Command { Get-MgUser -ORDERBY x }", true},
	}
	for _, tt := range tests {
		if got := ContainsParameter(context.Background(), parse(t, tt.src), ParamOrderBy); got != tt.want {
			t.Errorf("ContainsParameter(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
