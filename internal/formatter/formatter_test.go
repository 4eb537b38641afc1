package formatter

import (
	"strings"
	"testing"

	"alto/internal/compiler"
	"alto/internal/parser"
	"alto/internal/resolver"
)

func TestDisassembleNumbersEachInstruction(t *testing.T) {
	prog, err := parser.Parse("const x = 1 + 2;", "<test>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out, err := compiler.Compile(prog, res)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	listing := NewDisassembler().Disassemble(out.Program)
	if !strings.Contains(listing, "Add") {
		t.Fatalf("listing missing Add instruction:\n%s", listing)
	}
	if !strings.Contains(listing, "<top-level>") {
		t.Fatalf("listing missing top-level function header:\n%s", listing)
	}
}

func TestDisassembleAnnotatesJumpTargets(t *testing.T) {
	prog, err := parser.Parse("if (true) { const y = 1; } else { const y = 2; }", "<test>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out, err := compiler.Compile(prog, res)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	listing := NewDisassembler().Disassemble(out.Program)
	if !strings.Contains(listing, "-> ") {
		t.Fatalf("listing missing a jump target arrow:\n%s", listing)
	}
}
