package stdlib

import (
	"fmt"
	"os"
	"strings"

	"alto/internal/vm"
)

// Console builds the `console` native module (spec §6's "console
// (print/write)"): log/write to stdout, plus a raw write to stderr,
// grounded on the teacher's "log" builtin in vm_enhanced.go's
// registerBuiltins, generalized from a single fixed-arity function to a
// small table of natives.
func Console() *vm.Table {
	t := vm.NewTable()
	t.Set("log", native("log", consoleLog))
	t.Set("write", native("write", consoleWrite))
	t.Set("error", native("error", consoleError))
	return t
}

func consoleLog(_ vm.Value, args []vm.Value) (vm.Value, error) {
	fmt.Println(joinDisplay(args))
	return nil, nil
}

func consoleWrite(_ vm.Value, args []vm.Value) (vm.Value, error) {
	fmt.Print(joinDisplay(args))
	return nil, nil
}

func consoleError(_ vm.Value, args []vm.Value) (vm.Value, error) {
	fmt.Fprintln(os.Stderr, joinDisplay(args))
	return nil, nil
}

func joinDisplay(args []vm.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = vm.ToDisplayString(a)
	}
	return strings.Join(parts, " ")
}

// native wraps a vm.NativeFn with a name, matching the teacher's
// name-tagged NativeFunction convention (vm_enhanced.go) so stack traces
// and disassembly can show which native a call site reached.
func native(name string, fn vm.NativeFn) *vm.Function {
	return &vm.Function{Name: name, Native: fn}
}
