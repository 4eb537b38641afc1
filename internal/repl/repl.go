// Package repl implements `alto repl`: interactive line-at-a-time
// evaluation of Alto source.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"alto/internal/packages"
	"alto/internal/stdlib"
	"alto/internal/vm"
)

// REPL evaluates Alto source one line at a time. Alto's module model has no
// separate mutable-global heap — `OpLoadGlobal` indexes the constant pool,
// not a variable store, so a module's *exports* table is the only thing
// that naturally persists — so state threads between lines through a
// shared "session" exports table, registered as a builtin: every line runs
// as its own tiny module that implicitly `import session from 'session'`
// to read prior lines' bindings, and whatever it exports is merged back
// into that table for later lines to see. This is the same effect the
// teacher's repl.go got by keeping one *vm.VM alive across lines and only
// swapping its compiled chunk; Alto has no such long-lived VM object, so
// the persistent piece moves to the shared table instead.
type REPL struct {
	loader  *packages.Loader
	session *vm.Table
	out     io.Writer
	line    int
}

// New builds a REPL with the standard library and an empty session table
// registered as builtins.
func New() *REPL {
	loader := packages.NewLoader()
	for name, exports := range stdlib.Modules() {
		loader.RegisterBuiltin(name, exports)
	}
	session := vm.NewTable()
	loader.RegisterBuiltin("session", session)
	return &REPL{loader: loader, session: session, out: os.Stdout}
}

// Run reads lines from stdin until EOF or "exit", printing each
// expression's value.
func (r *REPL) Run() {
	prompt := ">>> "
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		prompt = "" // piped input: skip the prompt noise
	}
	r.RunFrom(os.Stdin, prompt)
}

// RunFrom drives the read-eval-print loop from an arbitrary reader, used by
// Run (stdin) and directly by tests.
func (r *REPL) RunFrom(in io.Reader, prompt string) {
	fmt.Fprintln(r.out, "Alto REPL | type 'exit' to quit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}
		r.eval(line)
	}
	fmt.Fprintf(r.out, "%s lines evaluated\n", humanize.Comma(int64(r.line)))
}

// eval compiles and runs one line, threading session state through
// r.session.
func (r *REPL) eval(line string) {
	r.line++
	name := fmt.Sprintf("<repl:%d>", r.line)
	resultName := fmt.Sprintf("__repl_%d", r.line)

	// Try it as a bare expression first so `2 + 2` prints a value; if that
	// fails to parse, fall back to running it as a full statement so
	// `var x = 5;` and control-flow also work at the prompt.
	asExpr := fmt.Sprintf("import session from 'session';\nexport const %s = (%s);\n", resultName, line)
	mod, err := r.loader.LoadString(name, asExpr)
	if err != nil {
		asStmt := fmt.Sprintf("import session from 'session';\n%s\n", line)
		mod, err = r.loader.LoadString(name, asStmt)
	}
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}

	for _, exported := range mod.ExportNames() {
		if exported == resultName {
			continue
		}
		if v, ok := mod.Export(exported); ok {
			r.session.Set(exported, v)
		}
	}

	if v, ok := mod.Export(resultName); ok {
		fmt.Fprintf(r.out, "%s\n", pretty.Sprint(v))
	}
}
