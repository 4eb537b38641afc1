package vm_test

import (
	"math"
	"testing"

	"alto/internal/compiler"
	"alto/internal/errors"
	"alto/internal/module"
	"alto/internal/parser"
	"alto/internal/resolver"
	"alto/internal/vm"
)

func run(t *testing.T, src string) *module.Module {
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
	mod := module.New(out)
	if _, err := mod.Main(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	return mod
}

// runErr is like run but expects Main (or an earlier stage) to fail, and
// returns that error instead of failing the test.
func runErr(src string) error {
	prog, err := parser.Parse(src, "<test>")
	if err != nil {
		return err
	}
	res, err := resolver.Resolve(prog)
	if err != nil {
		return err
	}
	out, err := compiler.Compile(prog, res)
	if err != nil {
		return err
	}
	mod := module.New(out)
	_, err = mod.Main(nil)
	return err
}

func TestValueAlgebraToBoolean(t *testing.T) {
	falsy := []vm.Value{nil, false, 0.0, math.NaN()}
	for _, v := range falsy {
		if vm.ToBoolean(v) {
			t.Fatalf("ToBoolean(%v) = true, want false", v)
		}
	}
	truthy := []vm.Value{true, 1.0, -1.0, "", "x"}
	for _, v := range truthy {
		if !vm.ToBoolean(v) {
			t.Fatalf("ToBoolean(%v) = false, want true", v)
		}
	}
}

func TestValueAlgebraEqualsExceptNaN(t *testing.T) {
	if vm.Equals(math.NaN(), math.NaN()) {
		t.Fatal("NaN must not equal itself")
	}
	if !vm.Equals(1.0, 1.0) || !vm.Equals("a", "a") || !vm.Equals(true, true) {
		t.Fatal("equal scalars of the same kind must compare equal")
	}
}

// TestCaptureCorrectnessAcrossLoopIterations exercises spec §8's capture
// example: a closure created inside a for-loop body, itself nested in a
// while loop, must see that iteration's own `n`.
func TestCaptureCorrectnessAcrossLoopIterations(t *testing.T) {
	mod := run(t, `
		var f = [null, null];
		var i = 0;
		while (i < 2) {
			var n = 1;
			for (var j = 0; j < 1; j += 1) {
				f[i] = (c) => n += c;
			}
			i += 1;
		}
		export const a = f[0](2);
		export const b = f[1](4);
	`)
	a, _ := mod.Export("a")
	b, _ := mod.Export("b")
	if a != float64(3) {
		t.Fatalf("a = %v, want 3", a)
	}
	if b != float64(5) {
		t.Fatalf("b = %v, want 5", b)
	}
}

// TestManOrBoy is Knuth's classic closure-semantics stress test.
func TestManOrBoy(t *testing.T) {
	src := `
		function A(k, x1, x2, x3, x4, x5) {
			function B() {
				k -= 1;
				return A(k, B, x1, x2, x3, x4);
			}
			if (k <= 0) {
				return x4() + x5();
			}
			return B();
		}
		function I(n) { return () => n; }
		export const r7 = A(7, I(1), I(-1), I(-1), I(1), I(0));
		export const r8 = A(8, I(1), I(-1), I(-1), I(1), I(0));
		export const r9 = A(9, I(1), I(-1), I(-1), I(1), I(0));
		export const r10 = A(10, I(1), I(-1), I(-1), I(1), I(0));
		export const r11 = A(11, I(1), I(-1), I(-1), I(1), I(0));
	`
	mod := run(t, src)
	want := map[string]float64{"r7": -1, "r8": -10, "r9": -30, "r10": -67, "r11": -138}
	for name, expect := range want {
		got, ok := mod.Export(name)
		if !ok || got != expect {
			t.Fatalf("%s = %v, want %v", name, got, expect)
		}
	}
}

func TestTryFinallyOutermostReturnWins(t *testing.T) {
	mod := run(t, `
		function f() {
			try {
				try {
					try {
						try {
							return 1;
						} finally {
							return 2;
						}
					} finally {
						return 3;
					}
				} finally {
					return 4;
				}
			} finally {
				return 5;
			}
		}
		export const result = f();
	`)
	got, _ := mod.Export("result")
	if got != float64(5) {
		t.Fatalf("result = %v, want 5", got)
	}
}

// TestTryFinallyInnermostRunsBeforeOutermost guards against a trampoline
// ordering bug where an outer finally ran before an inner one (and ran
// twice): a non-overriding inner finally must execute, in full, before an
// overriding outer finally ever starts, and the outer finally must run
// exactly once.
func TestTryFinallyInnermostRunsBeforeOutermost(t *testing.T) {
	mod := run(t, `
		var log = [];
		function f() {
			try {
				try {
					return 1;
				} finally {
					log.push("inner");
				}
			} finally {
				log.push("outer");
				return 2;
			}
		}
		export const result = f();
		export const order = log;
	`)
	got, _ := mod.Export("result")
	if got != float64(2) {
		t.Fatalf("result = %v, want 2", got)
	}
	order, _ := mod.Export("order")
	list, ok := order.(*vm.List)
	if !ok {
		t.Fatalf("order = %v (%T), want *List", order, order)
	}
	if len(list.Elements) != 2 {
		t.Fatalf("log ran %d times, want 2: %v", len(list.Elements), list.Elements)
	}
	if list.Elements[0] != "inner" || list.Elements[1] != "outer" {
		t.Fatalf("log = %v, want [inner outer]", list.Elements)
	}
}

func TestExceptionAsExpressionCarriesThrownValue(t *testing.T) {
	mod := run(t, `
		var n = null;
		var caught = null;
		try {
			var m = n || throw 1;
		} catch(e) {
			caught = e.value;
		}
		export const value = caught;
	`)
	got, _ := mod.Export("value")
	if got != float64(1) {
		t.Fatalf("caught value = %v, want 1", got)
	}
}

func TestNullChainNavigation(t *testing.T) {
	mod := run(t, `
		var t = {a: 3.14};
		export const chased = t.a.b.c;
		var n = null;
		export const indexed = n[null];
	`)
	chased, _ := mod.Export("chased")
	if chased != nil {
		t.Fatalf("chased = %v, want Null", chased)
	}
	indexed, _ := mod.Export("indexed")
	if indexed != nil {
		t.Fatalf("indexed = %v, want Null", indexed)
	}
}

func TestPrototypeDispatchStringLengthIsCodepointCount(t *testing.T) {
	mod := run(t, `export const n = "héllo".length;`)
	got, _ := mod.Export("n")
	if got != float64(5) {
		t.Fatalf("length = %v, want 5 (codepoint count, not byte count)", got)
	}
}

func TestTableToStringOverrideRoutesThroughToString(t *testing.T) {
	table := vm.NewTable()
	table.Set("toString", &vm.Function{Native: func(receiver vm.Value, args []vm.Value) (vm.Value, error) {
		return "custom", nil
	}})
	if got := vm.ToDisplayString(table); got != "custom" {
		t.Fatalf("ToDisplayString = %q, want %q", got, "custom")
	}
}

func TestConstReassignmentFailsAtCompileTime(t *testing.T) {
	err := runErr(`const x = 1; x = 2;`)
	if !errors.Is(err, errors.ResolveError) {
		t.Fatalf("err = %v, want a ResolveError", err)
	}
}

func TestRedeclarationInSameScopeFailsAtCompileTime(t *testing.T) {
	err := runErr(`const x = 1; const x = 2;`)
	if !errors.Is(err, errors.ResolveError) {
		t.Fatalf("err = %v, want a ResolveError", err)
	}
}

func TestModuleImportUnresolvedRaises(t *testing.T) {
	prog, err := parser.Parse(`import util from 'util'; export const v = util;`, "<test>")
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
	mod := module.New(out)
	_, err = mod.Main(func(imp *vm.Import) (vm.Value, error) { return nil, nil })
	if !errors.Is(err, errors.ImportUnresolved) {
		t.Fatalf("err = %v, want ImportUnresolved", err)
	}
}

// TestCallDispatchesToCallableTableViaDotCallKey exercises spec §4.1's
// `call` resolution for a non-Function self: a Table that carries its own
// ".call" entry (a key no Alto identifier can spell, reserved for exactly
// this host-level protocol) becomes directly callable.
func TestCallDispatchesToCallableTableViaDotCallKey(t *testing.T) {
	var gotReceiver vm.Value
	var gotArgs []vm.Value
	tbl := vm.NewTable()
	tbl.Set(".call", &vm.Function{Native: func(receiver vm.Value, args []vm.Value) (vm.Value, error) {
		gotReceiver = receiver
		gotArgs = args
		return "dispatched", nil
	}})

	result, err := vm.Call(tbl, "this-arg", []vm.Value{float64(1), float64(2)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != "dispatched" {
		t.Fatalf("result = %v, want %q", result, "dispatched")
	}
	if gotReceiver != "this-arg" {
		t.Fatalf("receiver = %v, want %q", gotReceiver, "this-arg")
	}
	if len(gotArgs) != 2 || gotArgs[0] != float64(1) || gotArgs[1] != float64(2) {
		t.Fatalf("args = %v, want [1 2]", gotArgs)
	}
}

func TestCallFaultsOnUncallableValue(t *testing.T) {
	_, err := vm.Call(float64(3), nil, nil)
	if err == nil {
		t.Fatal("expected a NotCallable fault calling a Number")
	}
}
