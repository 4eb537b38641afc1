package stdlib

import (
	"strings"

	"alto/internal/errors"
	"alto/internal/vm"
)

// String builds the `string` native module's extras beyond what the
// String prototype already covers (spec's per-kind prototype table) —
// split/join and the case/trim/search functions the teacher exposes as
// top-level builtins (vm_enhanced.go's upper/lower/trim/startswith/
// endswith/replace), regrouped under one importable module instead of
// global functions.
func String() *vm.Table {
	t := vm.NewTable()
	t.Set("upper", native("upper", stringUpper))
	t.Set("lower", native("lower", stringLower))
	t.Set("trim", native("trim", stringTrim))
	t.Set("split", native("split", stringSplit))
	t.Set("join", native("join", stringJoin))
	t.Set("contains", native("contains", stringContains))
	t.Set("startsWith", native("startsWith", stringStartsWith))
	t.Set("endsWith", native("endsWith", stringEndsWith))
	t.Set("replace", native("replace", stringReplace))
	t.Set("indexOf", native("indexOf", stringIndexOf))
	return t
}

func arg1(args []vm.Value, name string) (string, error) {
	if len(args) != 1 {
		return "", errors.NewRuntimeFault(name + " expects 1 argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return "", errors.NewRuntimeFault(name + " expects a String argument")
	}
	return s, nil
}

func stringUpper(_ vm.Value, args []vm.Value) (vm.Value, error) {
	s, err := arg1(args, "upper")
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func stringLower(_ vm.Value, args []vm.Value) (vm.Value, error) {
	s, err := arg1(args, "lower")
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func stringTrim(_ vm.Value, args []vm.Value) (vm.Value, error) {
	s, err := arg1(args, "trim")
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

func stringSplit(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("split expects 2 arguments")
	}
	s, ok := args[0].(string)
	sep, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("split expects (String, String)")
	}
	parts := strings.Split(s, sep)
	elems := make([]vm.Value, len(parts))
	for i, p := range parts {
		elems[i] = p
	}
	return vm.NewList(elems), nil
}

func stringJoin(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("join expects 2 arguments")
	}
	list, ok := args[0].(*vm.List)
	sep, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("join expects (List, String)")
	}
	parts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		parts[i] = vm.ToDisplayString(e)
	}
	return strings.Join(parts, sep), nil
}

func stringContains(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("contains expects 2 arguments")
	}
	s, ok := args[0].(string)
	sub, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("contains expects (String, String)")
	}
	return strings.Contains(s, sub), nil
}

func stringStartsWith(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("startsWith expects 2 arguments")
	}
	s, ok := args[0].(string)
	prefix, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("startsWith expects (String, String)")
	}
	return strings.HasPrefix(s, prefix), nil
}

func stringEndsWith(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("endsWith expects 2 arguments")
	}
	s, ok := args[0].(string)
	suffix, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("endsWith expects (String, String)")
	}
	return strings.HasSuffix(s, suffix), nil
}

func stringReplace(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 3 {
		return nil, errors.NewRuntimeFault("replace expects 3 arguments")
	}
	s, ok1 := args[0].(string)
	old, ok2 := args[1].(string)
	new, ok3 := args[2].(string)
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.NewRuntimeFault("replace expects (String, String, String)")
	}
	return strings.ReplaceAll(s, old, new), nil
}

func stringIndexOf(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("indexOf expects 2 arguments")
	}
	s, ok := args[0].(string)
	sub, ok2 := args[1].(string)
	if !ok || !ok2 {
		return nil, errors.NewRuntimeFault("indexOf expects (String, String)")
	}
	return float64(strings.Index(s, sub)), nil
}
