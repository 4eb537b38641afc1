package stdlib

import (
	"math"
	"math/rand"

	"alto/internal/errors"
	"alto/internal/vm"
)

// Math builds the `math` native module: the function set spec §2's
// component table names (abs/sqrt/pow/floor/ceil/round plus trig and
// random), grounded on the teacher's math builtins in
// vm_enhanced.go's registerBuiltins (same names, same Go math functions
// underneath, NativeFunction's single-arity style generalized to
// vm.NativeFn's variadic receiver/args signature).
func Math() *vm.Table {
	t := vm.NewTable()
	t.Set("pi", math.Pi)
	t.Set("abs", native("abs", unary(math.Abs)))
	t.Set("sqrt", native("sqrt", unary(math.Sqrt)))
	t.Set("floor", native("floor", unary(math.Floor)))
	t.Set("ceil", native("ceil", unary(math.Ceil)))
	t.Set("round", native("round", unary(math.Round)))
	t.Set("sin", native("sin", unary(math.Sin)))
	t.Set("cos", native("cos", unary(math.Cos)))
	t.Set("tan", native("tan", unary(math.Tan)))
	t.Set("log", native("log", unary(math.Log)))
	t.Set("pow", native("pow", mathPow))
	t.Set("min", native("min", mathMin))
	t.Set("max", native("max", mathMax))
	t.Set("random", native("random", mathRandom))
	t.Set("randint", native("randint", mathRandint))
	return t
}

// unary lifts a float64->float64 Go function into a vm.NativeFn taking
// exactly one Number argument.
func unary(fn func(float64) float64) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewRuntimeFault("expects 1 argument")
		}
		return fn(vm.ToNumber(args[0])), nil
	}
}

func mathPow(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("pow expects 2 arguments")
	}
	return math.Pow(vm.ToNumber(args[0]), vm.ToNumber(args[1])), nil
}

func mathMin(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) == 0 {
		return nil, errors.NewRuntimeFault("min expects at least 1 argument")
	}
	m := vm.ToNumber(args[0])
	for _, a := range args[1:] {
		if n := vm.ToNumber(a); n < m {
			m = n
		}
	}
	return m, nil
}

func mathMax(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) == 0 {
		return nil, errors.NewRuntimeFault("max expects at least 1 argument")
	}
	m := vm.ToNumber(args[0])
	for _, a := range args[1:] {
		if n := vm.ToNumber(a); n > m {
			m = n
		}
	}
	return m, nil
}

func mathRandom(_ vm.Value, args []vm.Value) (vm.Value, error) {
	return rand.Float64(), nil
}

func mathRandint(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("randint expects 2 arguments")
	}
	lo := int(vm.ToNumber(args[0]))
	hi := int(vm.ToNumber(args[1]))
	if hi < lo {
		return nil, errors.NewRuntimeFault("randint: max must be >= min")
	}
	return float64(lo + rand.Intn(hi-lo+1)), nil
}
