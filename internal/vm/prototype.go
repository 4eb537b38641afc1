package vm

import (
	"math"
	"sort"
	"strings"
)

// Prototypes back the built-in methods available on each Value kind (spec
// §4.1's "prototype dispatch"). Each is a Table keyed by method name whose
// values are native Functions; member access on a bare value (not a Table)
// falls through here when the own-storage lookup misses.
var (
	stringProto   = NewTable()
	numberProto   = NewTable()
	booleanProto  = NewTable()
	listProto     = NewTable()
	functionProto = NewTable()
	exceptionProto = NewTable()
	importProto   = NewTable()
)

func nativeMethod(name string, fn NativeFn) *Function {
	return &Function{Name: name, Native: fn}
}

func init() {
	registerStringProto()
	registerNumberProto()
	registerBooleanProto()
	registerListProto()
	registerFunctionProto()
	registerExceptionProto()
	registerImportProto()
}

// protoGet resolves key against self's prototype table, yielding Null on
// miss (null-chain navigation, spec §4.1).
func protoGet(self Value, key Value) (Value, error) {
	name, ok := key.(string)
	if !ok {
		return nil, nil
	}
	var table *Table
	switch self.(type) {
	case string:
		table = stringProto
	case float64:
		table = numberProto
	case bool:
		table = booleanProto
	case *List:
		table = listProto
	case *Function:
		table = functionProto
	case *Exception:
		table = exceptionProto
	case *Import:
		table = importProto
	default:
		return nil, nil
	}
	if name == "length" {
		if l, ok := lengthOf(self); ok {
			return l, nil
		}
	}
	if exc, ok := self.(*Exception); ok {
		switch name {
		case "message":
			return exc.Message, nil
		case "value":
			return exc.Wrapped, nil
		case "stack":
			return exc.Stack, nil
		}
	}
	raw, ok := table.Get(name)
	if !ok {
		return nil, nil
	}
	return raw, nil
}

// protoSet is a no-op: prototype methods are immutable from the runtime's
// perspective (only Tables and Lists support assignment, spec §4.1).
func protoSet(self Value, key Value, value Value) error {
	return nil
}

func lengthOf(self Value) (Value, bool) {
	switch x := self.(type) {
	case string:
		return float64(len([]rune(x))), true
	case *List:
		return float64(len(x.Elements)), true
	}
	return nil, false
}

func registerStringProto() {
	stringProto.Set("toUpper", nativeMethod("toUpper", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		return strings.ToUpper(s), nil
	}))
	stringProto.Set("toLower", nativeMethod("toLower", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		return strings.ToLower(s), nil
	}))
	stringProto.Set("trim", nativeMethod("trim", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		return strings.TrimSpace(s), nil
	}))
	stringProto.Set("split", nativeMethod("split", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		sep := ""
		if len(args) > 0 {
			sep, _ = args[0].(string)
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return NewList(out), nil
	}))
	stringProto.Set("indexOf", nativeMethod("indexOf", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		if len(args) == 0 {
			return float64(-1), nil
		}
		needle, _ := args[0].(string)
		return float64(strings.Index(s, needle)), nil
	}))
	stringProto.Set("contains", nativeMethod("contains", func(receiver Value, args []Value) (Value, error) {
		s, _ := receiver.(string)
		if len(args) == 0 {
			return false, nil
		}
		needle, _ := args[0].(string)
		return strings.Contains(s, needle), nil
	}))
	stringProto.Set("slice", nativeMethod("slice", func(receiver Value, args []Value) (Value, error) {
		str, _ := receiver.(string)
		runes := []rune(str)
		start, end := sliceBounds(args, len(runes))
		return string(runes[start:end]), nil
	}))
	stringProto.Set("charAt", nativeMethod("charAt", func(receiver Value, args []Value) (Value, error) {
		str, _ := receiver.(string)
		runes := []rune(str)
		if len(args) == 0 {
			return "", nil
		}
		idx := int(ToNumber(args[0]))
		if idx < 0 || idx >= len(runes) {
			return "", nil
		}
		return string(runes[idx]), nil
	}))
	stringProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return receiver, nil
	}))
}

func registerNumberProto() {
	numberProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return formatNumber(ToNumber(receiver)), nil
	}))
	numberProto.Set("isNaN", nativeMethod("isNaN", func(receiver Value, args []Value) (Value, error) {
		return math.IsNaN(ToNumber(receiver)), nil
	}))
	numberProto.Set("floor", nativeMethod("floor", func(receiver Value, args []Value) (Value, error) {
		return math.Floor(ToNumber(receiver)), nil
	}))
	numberProto.Set("ceil", nativeMethod("ceil", func(receiver Value, args []Value) (Value, error) {
		return math.Ceil(ToNumber(receiver)), nil
	}))
	numberProto.Set("round", nativeMethod("round", func(receiver Value, args []Value) (Value, error) {
		return math.Round(ToNumber(receiver)), nil
	}))
	numberProto.Set("abs", nativeMethod("abs", func(receiver Value, args []Value) (Value, error) {
		return math.Abs(ToNumber(receiver)), nil
	}))
}

func registerBooleanProto() {
	booleanProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return ToDisplayString(receiver), nil
	}))
}

func registerListProto() {
	listProto.Set("push", nativeMethod("push", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok {
			return nil, nil
		}
		l.Elements = append(l.Elements, args...)
		return float64(len(l.Elements)), nil
	}))
	listProto.Set("pop", nativeMethod("pop", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(l.Elements) == 0 {
			return nil, nil
		}
		last := l.Elements[len(l.Elements)-1]
		l.Elements = l.Elements[:len(l.Elements)-1]
		return last, nil
	}))
	listProto.Set("slice", nativeMethod("slice", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok {
			return NewList(nil), nil
		}
		start, end := sliceBounds(args, len(l.Elements))
		out := make([]Value, end-start)
		copy(out, l.Elements[start:end])
		return NewList(out), nil
	}))
	listProto.Set("join", nativeMethod("join", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok {
			return "", nil
		}
		sep := ","
		if len(args) > 0 {
			sep, _ = args[0].(string)
		}
		parts := make([]string, len(l.Elements))
		for i, e := range l.Elements {
			parts[i] = ToDisplayString(e)
		}
		return strings.Join(parts, sep), nil
	}))
	listProto.Set("indexOf", nativeMethod("indexOf", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(args) == 0 {
			return float64(-1), nil
		}
		for i, e := range l.Elements {
			if Equals(e, args[0]) {
				return float64(i), nil
			}
		}
		return float64(-1), nil
	}))
	listProto.Set("forEach", nativeMethod("forEach", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(args) == 0 {
			return nil, nil
		}
		fn, ok := args[0].(*Function)
		if !ok {
			return nil, nil
		}
		for i, e := range l.Elements {
			if _, err := fn.Call(nil, []Value{e, float64(i)}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}))
	listProto.Set("map", nativeMethod("map", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(args) == 0 {
			return NewList(nil), nil
		}
		fn, ok := args[0].(*Function)
		if !ok {
			return NewList(nil), nil
		}
		out := make([]Value, len(l.Elements))
		for i, e := range l.Elements {
			r, err := fn.Call(nil, []Value{e, float64(i)})
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return NewList(out), nil
	}))
	listProto.Set("filter", nativeMethod("filter", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(args) == 0 {
			return NewList(nil), nil
		}
		fn, ok := args[0].(*Function)
		if !ok {
			return NewList(nil), nil
		}
		var out []Value
		for i, e := range l.Elements {
			r, err := fn.Call(nil, []Value{e, float64(i)})
			if err != nil {
				return nil, err
			}
			if ToBoolean(r) {
				out = append(out, e)
			}
		}
		return NewList(out), nil
	}))
	listProto.Set("reduce", nativeMethod("reduce", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok || len(args) == 0 {
			return nil, nil
		}
		fn, ok := args[0].(*Function)
		if !ok {
			return nil, nil
		}
		elems := l.Elements
		var acc Value
		start := 0
		if len(args) > 1 {
			acc = args[1]
		} else if len(elems) > 0 {
			acc = elems[0]
			start = 1
		}
		for i := start; i < len(elems); i++ {
			r, err := fn.Call(nil, []Value{acc, elems[i], float64(i)})
			if err != nil {
				return nil, err
			}
			acc = r
		}
		return acc, nil
	}))
	listProto.Set("sort", nativeMethod("sort", func(receiver Value, args []Value) (Value, error) {
		l, ok := receiver.(*List)
		if !ok {
			return receiver, nil
		}
		var cmp *Function
		if len(args) > 0 {
			cmp, _ = args[0].(*Function)
		}
		var sortErr error
		sort.SliceStable(l.Elements, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			a, b := l.Elements[i], l.Elements[j]
			if cmp != nil {
				r, err := cmp.Call(nil, []Value{a, b})
				if err != nil {
					sortErr = err
					return false
				}
				return ToNumber(r) < 0
			}
			return ToDisplayString(a) < ToDisplayString(b)
		})
		return l, sortErr
	}))
	listProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return ToDisplayString(receiver), nil
	}))
}

// registerFunctionProto registers only toString. A ".call" entry here would
// be unreachable: Call (spec §4.1) invokes a *Function directly and never
// consults its prototype — the ".call" protocol exists for making
// non-Function values (e.g. a Table) callable, not for Function itself.
func registerFunctionProto() {
	functionProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return ToDisplayString(receiver), nil
	}))
}

// registerExceptionProto registers only toString; message/value/stack are
// per-instance data served directly by protoGet rather than shared methods.
func registerExceptionProto() {
	exceptionProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return ToDisplayString(receiver), nil
	}))
}

func registerImportProto() {
	importProto.Set("toString", nativeMethod("toString", func(receiver Value, args []Value) (Value, error) {
		return ToDisplayString(receiver), nil
	}))
}

func sliceBounds(args []Value, length int) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = clampIndex(int(ToNumber(args[0])), length)
	}
	if len(args) > 1 {
		end = clampIndex(int(ToNumber(args[1])), length)
	}
	if end < start {
		end = start
	}
	return start, end
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}
