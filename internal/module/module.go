// Package module implements Alto's Module object (spec §4.8): a compiled
// program plus its export table and the one-time import fix-up that runs
// before the first call to Main.
package module

import (
	"alto/internal/compiler"
	"alto/internal/errors"
	"alto/internal/vm"
)

// Resolver supplies a value for one unresolved import — the host side of
// spec §4.8's `Importing(module, import-ref)` event. imp.Name is the bound
// identifier and imp.Path the declared import source; a host module loader
// resolves Path to a file and Main's caller decides what that file's export
// binds to under Name. Returning a Null value (or an error) leaves the
// import unresolved.
type Resolver func(imp *vm.Import) (vm.Value, error)

// Module wraps a compiler.Output with the running state spec §4.8
// describes: constructed with (code, data, source-map) and empty exports,
// imports fixed up once on first run, data pool stable afterward.
type Module struct {
	program     *vm.Program
	exports     *vm.Table
	exportNames []string
	resolved    bool
}

// New wraps a freshly compiled program. The export table starts empty and
// is populated by running the top level (spec §4.8): Main must be called
// before Exports reflects anything.
func New(out *compiler.Output) *Module {
	return &Module{program: out.Program, exports: out.Exports, exportNames: out.ExportNames}
}

// Main resolves this module's imports on first call — invoking resolving
// for every unresolved slot in the data pool, failing with
// ImportUnresolved if a slot is still Null afterward, then replacing the
// slot in place so later runs skip the fix-up entirely (spec §4.8) — and
// then runs the top-level frame with the given arguments, wrapping entry 0
// as an ordinary Function so it goes through the same call path as any
// other Alto function (spec §4.7).
func (m *Module) Main(resolving Resolver, args ...vm.Value) (vm.Value, error) {
	if !m.resolved {
		if err := m.fixupImports(resolving); err != nil {
			return nil, err
		}
		m.resolved = true
	}
	entry := &vm.Function{Program: m.program, Entry: 0}
	return entry.Call(nil, args)
}

func (m *Module) fixupImports(resolving Resolver) error {
	for i, v := range m.program.Data {
		imp, ok := v.(*vm.Import)
		if !ok {
			continue
		}
		value, err := resolving(imp)
		if err != nil {
			return err
		}
		if value == nil {
			return errors.NewImportUnresolved(imp.Name)
		}
		m.program.Data[i] = value
	}
	return nil
}

// Exports returns the module's export table (spec §4.8). It is empty until
// Main has run at least once, and shared and freely mutable by user code
// thereafter — subsequent reads see whatever the last run (or the user)
// left behind.
func (m *Module) Exports() *vm.Table { return m.exports }

// ExportNames lists the module's declared export names, in declaration
// order, independent of whether Main has run yet.
func (m *Module) ExportNames() []string { return m.exportNames }

// Export looks up one export's current value by name.
func (m *Module) Export(name string) (vm.Value, bool) {
	return m.exports.Get(name)
}
