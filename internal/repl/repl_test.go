package repl

import (
	"strings"
	"testing"
)

func runLines(t *testing.T, lines ...string) string {
	t.Helper()
	r := New()
	var out strings.Builder
	r.out = &out
	r.RunFrom(strings.NewReader(strings.Join(lines, "\n")+"\n"), "")
	return out.String()
}

func TestEvalExpressionPrintsValue(t *testing.T) {
	out := runLines(t, "2 + 2")
	if !strings.Contains(out, "4") {
		t.Fatalf("output = %q, want it to contain 4", out)
	}
}

func TestSessionStatePersistsAcrossLines(t *testing.T) {
	out := runLines(t,
		"export const x = 10;",
		"session.x + 5",
	)
	if !strings.Contains(out, "15") {
		t.Fatalf("output = %q, want it to contain 15", out)
	}
}

func TestSyntaxErrorIsReportedNotFatal(t *testing.T) {
	out := runLines(t,
		"this is not alto (((",
		"1 + 1",
	)
	if !strings.Contains(out, "2") {
		t.Fatalf("output = %q, want the second line to still evaluate", out)
	}
}

func TestExitStopsTheLoop(t *testing.T) {
	out := runLines(t, "exit", "1 + 1")
	if strings.Contains(out, "2") {
		t.Fatalf("output = %q, want lines after exit to be skipped", out)
	}
}
