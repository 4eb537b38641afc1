package module

import (
	"testing"

	"alto/internal/compiler"
	"alto/internal/errors"
	"alto/internal/parser"
	"alto/internal/resolver"
	"alto/internal/vm"
)

func compileSource(t *testing.T, src string) *compiler.Output {
	t.Helper()
	prog, err := parser.Parse(src, "<test>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out, err := compiler.Compile(prog, res)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return out
}

func TestExportsPopulatedAfterMain(t *testing.T) {
	out := compileSource(t, `
		export const answer = 40 + 2;
		export const greeting = "hi";
	`)
	mod := New(out)

	if names := mod.ExportNames(); len(names) != 2 || names[0] != "answer" || names[1] != "greeting" {
		t.Fatalf("ExportNames = %v", names)
	}
	if _, ok := mod.Export("answer"); ok {
		t.Fatalf("export visible before Main ran")
	}

	if _, err := mod.Main(nil); err != nil {
		t.Fatalf("Main: %v", err)
	}

	got, ok := mod.Export("answer")
	if !ok || got != float64(42) {
		t.Fatalf("answer = %v, %v", got, ok)
	}
	got, ok = mod.Export("greeting")
	if !ok || got != "hi" {
		t.Fatalf("greeting = %v, %v", got, ok)
	}
}

func TestExportReferencedElsewhereInModule(t *testing.T) {
	out := compileSource(t, `
		export const base = 10;
		function addBase(n) { return n + base; }
		export const sum = addBase(5);
	`)
	mod := New(out)
	if _, err := mod.Main(nil); err != nil {
		t.Fatalf("Main: %v", err)
	}
	got, ok := mod.Export("sum")
	if !ok || got != float64(15) {
		t.Fatalf("sum = %v, %v", got, ok)
	}
}

func TestImportUnresolvedWhenResolvingLeavesNull(t *testing.T) {
	out := compileSource(t, `
		import util from 'util';
		export const v = util;
	`)
	mod := New(out)

	_, err := mod.Main(func(imp *vm.Import) (vm.Value, error) { return nil, nil })
	if !errors.Is(err, errors.ImportUnresolved) {
		t.Fatalf("err = %v, want ImportUnresolved", err)
	}
}

func TestImportFixupIsStableAcrossRuns(t *testing.T) {
	out := compileSource(t, `
		import util from 'util';
		export const doubled = util(21);
	`)
	mod := New(out)

	calls := 0
	resolving := func(imp *vm.Import) (vm.Value, error) {
		calls++
		if imp.Path != "util" {
			t.Fatalf("imp.Path = %q, want util", imp.Path)
		}
		return &vm.Function{Native: func(receiver vm.Value, args []vm.Value) (vm.Value, error) {
			return args[0].(float64) * 2, nil
		}}, nil
	}

	if _, err := mod.Main(resolving); err != nil {
		t.Fatalf("first Main: %v", err)
	}
	if _, err := mod.Main(resolving); err != nil {
		t.Fatalf("second Main: %v", err)
	}
	if calls != 1 {
		t.Fatalf("resolving called %d times, want 1 (data pool should be stable after first fix-up)", calls)
	}
	got, _ := mod.Export("doubled")
	if got != float64(42) {
		t.Fatalf("doubled = %v", got)
	}
}
