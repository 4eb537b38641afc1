// Package packages implements Alto's filesystem module loader (spec §6):
// resolving `import NAME from 'path'` to a compiled, run Module, with
// caching by resolved file path and circular-dependency detection. It is
// the host-provided half of spec §4.8's `Importing(module, import-ref)`
// event — the compiler and module package never read the filesystem
// themselves.
package packages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"alto/internal/compiler"
	"alto/internal/module"
	"alto/internal/parser"
	"alto/internal/resolver"
	"alto/internal/vm"
)

// Loader resolves import paths to run modules. A path not starting with
// "./" or "../" is searched for under searchPaths in order, mirroring the
// teacher's module loader minus its remote-registry handling — no
// SPEC_FULL component needs a package registry, so there is no manifest,
// no version resolution, and no network fetch here.
type Loader struct {
	searchPaths []string
	cache       map[string]*module.Module
	loading     map[string]bool
	currentDir  string               // directory of the module currently being loaded, for resolving its "./" imports
	builtins    map[string]*vm.Table // stdlib modules, checked before the filesystem
}

// NewLoader builds a Loader searching "." plus any extra paths given, in
// order.
func NewLoader(extraSearchPaths ...string) *Loader {
	return &Loader{
		searchPaths: append([]string{"."}, extraSearchPaths...),
		cache:       make(map[string]*module.Module),
		loading:     make(map[string]bool),
		currentDir:  ".",
		builtins:    make(map[string]*vm.Table),
	}
}

// RegisterBuiltin makes name resolvable as an import without touching the
// filesystem — how internal/stdlib's console/math/string/db/time modules
// reach Alto source (`import console from 'console'`).
func (l *Loader) RegisterBuiltin(name string, exports *vm.Table) {
	l.builtins[name] = exports
}

// AddSearchPath appends a directory to the search path.
func (l *Loader) AddSearchPath(dir string) {
	l.searchPaths = append(l.searchPaths, dir)
}

// Load resolves, compiles (if not cached), and runs the module at path,
// returning it ready for Exports/Export reads. Nested imports inside that
// module are resolved through this same Loader (Resolving), so transitive
// imports share the cache and the circular-dependency guard.
func (l *Loader) Load(path string) (*module.Module, error) {
	resolved, err := l.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if mod, ok := l.cache[resolved]; ok {
		return mod, nil
	}
	if l.loading[resolved] {
		return nil, fmt.Errorf("circular import: %s", path)
	}
	l.loading[resolved] = true
	defer delete(l.loading, resolved)

	source, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", path, err)
	}
	out, err := compileSource(resolved, string(source))
	if err != nil {
		return nil, err
	}

	mod := module.New(out)
	// Cached before Main runs so a cycle resolves to the same (still
	// unfinished) module rather than recompiling or looping forever.
	l.cache[resolved] = mod

	// Nested imports inside this module resolve relative to its own
	// directory, not whatever directory the outermost Load was called
	// from (spec §4.8's import-ref carries a path, not a resolved
	// location) — restored once this module's Main call returns.
	savedDir := l.currentDir
	l.currentDir = filepath.Dir(resolved)
	_, err = mod.Main(l.Resolving)
	l.currentDir = savedDir
	if err != nil {
		delete(l.cache, resolved)
		return nil, fmt.Errorf("running module %s: %w", path, err)
	}
	return mod, nil
}

// LoadString compiles and runs source directly as its own module, without
// touching the filesystem or the Loader's cache. name is used only for
// error messages and stack traces. internal/repl uses this to run one line
// at a time; nested imports in source still resolve through this Loader
// (builtins, or the filesystem relative to currentDir).
func (l *Loader) LoadString(name, source string) (*module.Module, error) {
	out, err := compileSource(name, source)
	if err != nil {
		return nil, err
	}
	mod := module.New(out)
	if _, err := mod.Main(l.Resolving); err != nil {
		return nil, fmt.Errorf("running module %s: %w", name, err)
	}
	return mod, nil
}

// Compile resolves path and compiles it without running it, for tools like
// `alto disasm` that want the bytecode without executing any top-level
// side effects.
func (l *Loader) Compile(path string) (*compiler.Output, error) {
	resolved, err := l.resolvePath(path)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", path, err)
	}
	return compileSource(resolved, string(source))
}

func compileSource(name, source string) (*compiler.Output, error) {
	prog, err := parser.Parse(source, name)
	if err != nil {
		return nil, err
	}
	res, err := resolver.Resolve(prog)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog, res)
}

// Resolving is a module.Resolver bound to this Loader: a registered
// builtin module answers directly; otherwise it loads imp.Path from the
// filesystem and binds imp.Name to the loaded module's whole exports
// table, so `import util from './util'` reads `util.someExport` on the
// far side (spec's "import/export through a receiver-mediated exports
// table").
func (l *Loader) Resolving(imp *vm.Import) (vm.Value, error) {
	if exports, ok := l.builtins[imp.Path]; ok {
		return exports, nil
	}
	mod, err := l.Load(imp.Path)
	if err != nil {
		return nil, err
	}
	return mod.Exports(), nil
}

// resolvePath turns a declared import path into an absolute file path,
// appending the .alto extension if missing. An already-absolute path (the
// outermost Load call typically passes one) is used as-is; "./" and "../"
// paths resolve relative to currentDir — the importing module's own
// directory, not the process cwd, so a module's relative imports keep
// working regardless of where the host process was started; everything
// else searches searchPaths in order.
func (l *Loader) resolvePath(path string) (string, error) {
	if !strings.HasSuffix(path, ".alto") {
		path += ".alto"
	}
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("module not found: %s", path)
	}
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		abs, err := filepath.Abs(filepath.Join(l.currentDir, path))
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
		return "", fmt.Errorf("module not found: %s (resolved to %s)", path, abs)
	}
	for _, dir := range l.searchPaths {
		abs, err := filepath.Abs(filepath.Join(dir, path))
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
	}
	return "", fmt.Errorf("module not found: %s (searched %v)", path, l.searchPaths)
}
