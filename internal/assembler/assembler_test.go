package assembler

import (
	"testing"

	"alto/internal/vm"
)

func run(t *testing.T, source string) vm.Value {
	t.Helper()
	prog, err := Assemble(source)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	fn := &vm.Function{Program: prog, Entry: 0}
	v, err := fn.Call(nil, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	return v
}

func TestAssembleArithmetic(t *testing.T) {
	got := run(t, `
		; push 2 and 3, add them, return the sum
		number 0 2
		number 0 3
		add
		return
	`)
	if got != float64(5) {
		t.Fatalf("result = %v, want 5", got)
	}
}

func TestAssembleGlobal(t *testing.T) {
	got := run(t, `
		global greeting 'hi'
		loadglobal 0 greeting
		return
	`)
	if got != "hi" {
		t.Fatalf("result = %v, want %q", got, "hi")
	}
}

func TestAssembleForwardJumpToLabel(t *testing.T) {
	got := run(t, `
		boolean 0 true
		conditionaljump 1 skip
		number 0 1
		return
	skip:
		number 0 2
		return
	`)
	if got != float64(2) {
		t.Fatalf("result = %v, want 2 (forward jump to skip should have been taken)", got)
	}
}

func TestAssembleUnknownMnemonicErrors(t *testing.T) {
	_, err := Assemble("bogus 0 0")
	if err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}

func TestAssembleUnknownSymbolErrors(t *testing.T) {
	_, err := Assemble("jump 0 nowhere")
	if err == nil {
		t.Fatal("expected an error for an unresolved symbol")
	}
}
