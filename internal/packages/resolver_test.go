package packages

import (
	"os"
	"path/filepath"
	"testing"

	"alto/internal/stdlib"
)

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadRunsModuleAndExposesExports(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "util.alto", `
		export const double = 21 * 2;
	`)

	l := NewLoader()
	mod, err := l.Load(filepath.Join(dir, "util.alto"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := mod.Export("double")
	if !ok || got != float64(42) {
		t.Fatalf("double = %v, %v", got, ok)
	}
}

func TestLoadCachesByResolvedPath(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "counter.alto", `
		export const n = 1;
	`)

	l := NewLoader()
	path := filepath.Join(dir, "counter.alto")
	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if first != second {
		t.Fatalf("Load returned distinct modules for the same path")
	}
}

func TestNestedImportResolvesThroughSameLoader(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "base.alto", `
		export const value = 10;
	`)
	writeModule(t, dir, "main.alto", `
		import base from './base';
		export const total = base.value + 5;
	`)

	l := NewLoader()
	mod, err := l.Load(filepath.Join(dir, "main.alto"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := mod.Export("total")
	if !ok || got != float64(15) {
		t.Fatalf("total = %v, %v", got, ok)
	}
}

func TestRegisteredBuiltinSatisfiesImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main.alto", `
		import math from 'math';
		export const root = math.sqrt(16);
	`)

	l := NewLoader()
	l.RegisterBuiltin("math", stdlib.Math())

	mod, err := l.Load(filepath.Join(dir, "main.alto"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := mod.Export("root")
	if !ok || got != float64(4) {
		t.Fatalf("root = %v, %v", got, ok)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	l := NewLoader()
	if _, err := l.Load("./does-not-exist"); err == nil {
		t.Fatalf("expected an error for a missing module")
	}
}
