package stdlib

import (
	"testing"

	"alto/internal/vm"
)

func callNative(t *testing.T, table *vm.Table, name string, args ...vm.Value) vm.Value {
	t.Helper()
	raw, ok := table.Get(name)
	if !ok {
		t.Fatalf("%s not found", name)
	}
	fn, ok := raw.(*vm.Function)
	if !ok {
		t.Fatalf("%s is not a function: %T", name, raw)
	}
	got, err := fn.Call(nil, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return got
}

func TestMathModule(t *testing.T) {
	m := Math()
	if got := callNative(t, m, "sqrt", float64(16)); got != float64(4) {
		t.Fatalf("sqrt(16) = %v", got)
	}
	if got := callNative(t, m, "max", float64(1), float64(9), float64(3)); got != float64(9) {
		t.Fatalf("max = %v", got)
	}
	if got := callNative(t, m, "pow", float64(2), float64(10)); got != float64(1024) {
		t.Fatalf("pow = %v", got)
	}
}

func TestStringModule(t *testing.T) {
	s := String()
	if got := callNative(t, s, "upper", "alto"); got != "ALTO" {
		t.Fatalf("upper = %v", got)
	}
	split := callNative(t, s, "split", "a,b,c", ",")
	list, ok := split.(*vm.List)
	if !ok || len(list.Elements) != 3 || list.Elements[1] != "b" {
		t.Fatalf("split = %#v", split)
	}
	joined := callNative(t, s, "join", vm.NewList([]vm.Value{"x", "y"}), "-")
	if joined != "x-y" {
		t.Fatalf("join = %v", joined)
	}
	if got := callNative(t, s, "indexOf", "hello world", "world"); got != float64(6) {
		t.Fatalf("indexOf = %v", got)
	}
}

func TestTimeModuleFormatsFixedInstant(t *testing.T) {
	tm := Time()
	got := callNative(t, tm, "format", float64(0), "%Y-%m-%d")
	if got != "1970-01-01" {
		t.Fatalf("format(0) = %v", got)
	}
}

func TestDBModuleRoundTripsOverSQLite(t *testing.T) {
	db := DB()
	if ok := callNative(t, db, "connect", "t1", "sqlite", ":memory:"); ok != true {
		t.Fatalf("connect did not return true")
	}
	defer callNative(t, db, "close", "t1")

	callNative(t, db, "exec", "t1", "create table items (name text, qty integer)")
	affected := callNative(t, db, "exec", "t1", "insert into items (name, qty) values (?, ?)", "widget", float64(3))
	if affected != float64(1) {
		t.Fatalf("insert affected = %v", affected)
	}

	row := callNative(t, db, "queryOne", "t1", "select name, qty from items where name = ?", "widget")
	table, ok := row.(*vm.Table)
	if !ok {
		t.Fatalf("queryOne did not return a Table: %#v", row)
	}
	name, _ := table.Get("name")
	if name != "widget" {
		t.Fatalf("name = %v", name)
	}
}

func TestModulesRegistersEveryStdlibModule(t *testing.T) {
	mods := Modules()
	for _, name := range []string{"console", "math", "string", "db", "time"} {
		if _, ok := mods[name]; !ok {
			t.Fatalf("Modules() missing %q", name)
		}
	}
}
