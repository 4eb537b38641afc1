// Package stdlib implements Alto's host-provided standard library (spec §6):
// console, math, string, db, and time native modules, each a *vm.Table of
// vm.Function natives importable by name (`import console from 'console'`)
// once registered with a packages.Loader.
package stdlib

import "alto/internal/vm"

// Modules returns every stdlib module keyed by its import name, ready to
// hand to a host's Loader.RegisterBuiltin in a loop.
func Modules() map[string]*vm.Table {
	return map[string]*vm.Table{
		"console": Console(),
		"math":    Math(),
		"string":  String(),
		"db":      DB(),
		"time":    Time(),
	}
}
