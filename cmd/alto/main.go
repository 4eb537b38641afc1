// cmd/alto/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"alto/internal/debugger"
	"alto/internal/formatter"
	"alto/internal/network"
	"alto/internal/packages"
	"alto/internal/repl"
	"alto/internal/stdlib"
	"alto/internal/vm"
)

const version = "0.1.0"

// Build variables, set at link time with -ldflags, per the teacher's own
// cmd/sentra/main.go.
var (
	buildDate = time.Now().Format("2006-01-02")
	gitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	switch args[0] {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "run":
		if len(args) < 2 {
			log.Fatal("run requires a file argument")
		}
		runFile(args[1], args[2:])
	case "repl":
		repl.New().Run()
	case "disasm":
		if len(args) < 2 {
			log.Fatal("disasm requires a file argument")
		}
		disasmFile(args[1])
	default:
		showUsage()
	}
}

// newLoader builds a packages.Loader with the standard library registered,
// adding the given file's directory to the search path after "." so bare
// import paths also resolve next to that file, whatever the process's
// working directory.
func newLoader(filename string) *packages.Loader {
	loader := packages.NewLoader(filepath.Dir(filename))
	for name, exports := range stdlib.Modules() {
		loader.RegisterBuiltin(name, exports)
	}
	return loader
}

func runFile(filename string, rest []string) {
	loader := newLoader(filename)

	inspectAddr := inspectFlag(rest)
	if inspectAddr != "" {
		attachInspector(inspectAddr)
	}

	if _, err := loader.Load(filename); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inspectFlag returns the --inspect=ADDR value among rest, or "".
func inspectFlag(rest []string) string {
	for _, arg := range rest {
		if strings.HasPrefix(arg, "--inspect=") {
			return strings.TrimPrefix(arg, "--inspect=")
		}
	}
	return ""
}

// attachInspector starts a WebSocket inspector server on addr and blocks
// until a client connects, installing a debugger.Inspector as the VM's
// active hook before returning — so `alto run foo.alto --inspect=:9229`
// pauses at instruction 0 until an inspector client attaches.
func attachInspector(addr string) {
	srv := network.NewServer(addr)
	go srv.Listen()
	fmt.Fprintf(os.Stderr, "inspector listening on ws://%s/inspect, waiting for a client...\n", addr)
	sess := <-srv.Accept()
	fmt.Fprintf(os.Stderr, "inspector session %s attached\n", sess.ID)
	vm.SetHook(debugger.NewInspector(sess))
}

func disasmFile(filename string) {
	loader := newLoader(filename)
	out, err := loader.Compile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(formatter.NewDisassembler().Disassemble(out.Program))
}

func showUsage() {
	fmt.Println("Alto - a dynamic scripting language")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  alto run <file.alto> [--inspect=ADDR]   Run an Alto script")
	fmt.Println("  alto repl                               Start the interactive REPL")
	fmt.Println("  alto disasm <file.alto>                 Print a compiled file's bytecode")
	fmt.Println("  alto version                            Print version information")
}

func showVersion() {
	fmt.Printf("Alto v%s\n", version)
	fmt.Printf("Build date: %s\n", buildDate)
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		gitCommit = strings.TrimSpace(string(out))
	}
	if gitCommit != "unknown" {
		fmt.Printf("Git commit: %s\n", gitCommit)
	}
}
