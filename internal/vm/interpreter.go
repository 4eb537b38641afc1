package vm

import "alto/internal/bytecode"

const initialStackCapacity = 16

// frame is one nested interpreter invocation (spec §4.7): an operand stack,
// the active closure chain, the active exception-handler chain, a
// return-address stack for EnterFinally/LeaveFinally routing, and the
// per-run immutable receiver/argument vector.
type frame struct {
	program  *Program
	receiver Value
	args     []Value
	closure  *Closure
	stack    []Value
	handler  *ExceptionHandler
	returns  []int // EnterFinally/LeaveFinally resume addresses
	ip       int
}

// runFunction constructs a fresh interpreter frame for fn and runs it to
// completion (spec §4.7: "constructs a fresh interpreter with that
// receiver, arguments, entry, and captured closure").
func runFunction(fn *Function, receiver Value, args []Value) (Value, error) {
	f := &frame{
		program:  fn.Program,
		receiver: receiver,
		args:     args,
		closure:  fn.Closure,
		stack:    make([]Value, 0, initialStackCapacity),
		ip:       fn.Entry,
	}
	result, exc := f.run()
	if exc != nil {
		return nil, exc
	}
	return result, nil
}

func (f *frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *frame) popN(n int) []Value {
	start := len(f.stack) - n
	vs := append([]Value(nil), f.stack[start:]...)
	f.stack = f.stack[:start]
	return vs
}

// run executes instructions from f.ip until Return or until the code runs
// off the end (spec §4.7: falling off returns Null). On an unhandled
// exception it returns (nil, exc) instead of panicking.
func (f *frame) run() (Value, *Exception) {
	for {
		if f.ip >= len(f.program.Code) {
			return nil, nil
		}
		if ActiveHook != nil && !ActiveHook.OnInstruction(f.program, f.ip) {
			return nil, nil
		}
		instr := f.program.Code[f.ip]
		f.ip++
		result, done, exc := f.step(instr)
		if exc != nil {
			if !f.raise(exc) {
				if ActiveHook != nil {
					ActiveHook.OnException(f.program, f.ip-1, exc)
				}
				return nil, exc
			}
			continue
		}
		if done {
			return result, nil
		}
	}
}

// step executes a single instruction. done reports whether the frame should
// return result immediately (OpReturn).
func (f *frame) step(instr bytecode.Instruction) (result Value, done bool, exc *Exception) {
	op := instr.Op()
	param := instr.Param()
	value := instr.Value()

	switch op {
	case bytecode.OpNull:
		f.push(nil)
	case bytecode.OpBoolean:
		f.push(value != 0)
	case bytecode.OpNumber:
		f.push(float64(value))
	case bytecode.OpSwap:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]
	case bytecode.OpCopy:
		n := value
		start := len(f.stack) - n
		f.stack = append(f.stack, f.stack[start:]...)
	case bytecode.OpDrop:
		n := value
		f.stack = f.stack[:len(f.stack)-n]
	case bytecode.OpList:
		f.push(NewList(f.popN(value)))
	case bytecode.OpTable:
		items := f.popN(value * 2)
		t := NewTable()
		for i := 0; i+1 < len(items); i += 2 {
			t.Set(items[i], items[i+1])
		}
		f.push(t)
	case bytecode.OpEnterClosure:
		n := value
		vals := f.popN(n)
		f.closure = &Closure{Parent: f.closure, Values: vals}
	case bytecode.OpLeaveClosure:
		f.closure = f.closure.Parent
	case bytecode.OpFunction:
		fn := &Function{Program: f.program, Entry: value}
		if param == 1 {
			fn.Closure = f.closure
		}
		f.push(fn)
	case bytecode.OpLoadArgument:
		if value < len(f.args) {
			f.push(f.args[value])
		} else {
			f.push(nil)
		}
	case bytecode.OpLoadArgumentList:
		if value >= len(f.args) {
			f.push(NewList(nil))
		} else {
			tail := make([]Value, len(f.args)-value)
			copy(tail, f.args[value:])
			f.push(NewList(tail))
		}
	case bytecode.OpLoadThis:
		f.push(f.receiver)
	case bytecode.OpLoadGlobal:
		if value >= 0 && value < len(f.program.Data) {
			f.push(f.program.Data[value])
		} else {
			f.push(nil)
		}
	case bytecode.OpLoadVariable:
		f.push(*f.variableSlot(param, value))
	case bytecode.OpStoreVariable:
		v := f.pop()
		*f.variableSlot(param, value) = v
		f.push(v)
	case bytecode.OpLoadElement:
		key := f.pop()
		container := f.pop()
		v, err := Get(container, key)
		if err != nil {
			return nil, false, excOf(err)
		}
		f.push(v)
	case bytecode.OpStoreElement:
		v := f.pop()
		key := f.pop()
		container := f.pop()
		if err := Set(container, key, v); err != nil {
			return nil, false, excOf(err)
		}
		f.push(v)
	case bytecode.OpNegate:
		f.push(-ToNumber(f.pop()))
	case bytecode.OpNot:
		f.push(!ToBoolean(f.pop()))
	case bytecode.OpAdd:
		f.binaryArith(func(a, b float64) float64 { return a + b })
	case bytecode.OpSubtract:
		f.binaryArith(func(a, b float64) float64 { return a - b })
	case bytecode.OpMultiply:
		f.binaryArith(func(a, b float64) float64 { return a * b })
	case bytecode.OpDivide:
		f.binaryArith(func(a, b float64) float64 { return a / b })
	case bytecode.OpRemainder:
		f.binaryArith(remainder)
	case bytecode.OpAnd:
		f.binaryBitwise(func(a, b int64) int64 { return a & b })
	case bytecode.OpOr:
		f.binaryBitwise(func(a, b int64) int64 { return a | b })
	case bytecode.OpXor:
		f.binaryBitwise(func(a, b int64) int64 { return a ^ b })
	case bytecode.OpEqual:
		b, a := f.pop(), f.pop()
		f.push(Equals(a, b))
	case bytecode.OpLess:
		f.compare(func(a, b float64) bool { return a < b })
	case bytecode.OpLessOrEqual:
		f.compare(func(a, b float64) bool { return a <= b })
	case bytecode.OpGreater:
		f.compare(func(a, b float64) bool { return a > b })
	case bytecode.OpGreaterOrEqual:
		f.compare(func(a, b float64) bool { return a >= b })
	case bytecode.OpJump:
		f.ip = value
	case bytecode.OpConditionalJump:
		cond := ToBoolean(f.pop())
		if cond == (param != 0) {
			f.ip = value
		}
	case bytecode.OpConditionalAnd:
		if !ToBoolean(f.stack[len(f.stack)-1]) {
			f.ip = value
		} else {
			f.pop()
		}
	case bytecode.OpConditionalOr:
		if ToBoolean(f.stack[len(f.stack)-1]) {
			f.ip = value
		} else {
			f.pop()
		}
	case bytecode.OpThrow:
		thrown := f.pop()
		return nil, false, f.throwValue(thrown)
	case bytecode.OpEnterTry:
		f.handler = &ExceptionHandler{
			Parent:     f.handler,
			HandlerIP:  value,
			StackDepth: len(f.stack),
			Closure:    f.closure,
		}
	case bytecode.OpLeaveTry:
		if f.handler != nil {
			f.handler = f.handler.Parent
		}
		f.ip = value
	case bytecode.OpEnterFinally:
		f.returns = append(f.returns, value)
	case bytecode.OpLeaveFinally:
		target := f.returns[len(f.returns)-1]
		f.returns = f.returns[:len(f.returns)-1]
		f.ip = target
	case bytecode.OpCall:
		n := value
		args := f.popN(n)
		receiver := f.pop()
		callee := f.pop()
		v, err := Call(callee, receiver, args)
		if err != nil {
			return nil, false, excOf(err)
		}
		f.push(v)
	case bytecode.OpApply:
		argList := f.pop()
		receiver := f.pop()
		callee := f.pop()
		v, err := Apply(callee, receiver, argList)
		if err != nil {
			return nil, false, excOf(err)
		}
		f.push(v)
	case bytecode.OpReturn:
		return f.pop(), true, nil
	default:
		return nil, false, NewException("RuntimeFault: malformed instruction", nil)
	}
	return nil, false, nil
}

// variableSlot resolves (depth, index) addressing (spec §4.7): depth 0 is
// this frame's local slots (allocated densely on the operand stack by the
// resolver/compiler and never popped below their reserved region); depth
// k>0 walks k-1 steps up the closure chain from the active closure.
func (f *frame) variableSlot(depth, index int) *Value {
	if depth == 0 {
		return &f.stack[index]
	}
	c := f.closure
	for i := 1; i < depth; i++ {
		c = c.Parent
	}
	return c.At(0, index)
}

func (f *frame) binaryArith(op func(a, b float64) float64) {
	b, a := f.pop(), f.pop()
	f.push(op(ToNumber(a), ToNumber(b)))
}

func (f *frame) binaryBitwise(op func(a, b int64) int64) {
	b, a := f.pop(), f.pop()
	f.push(float64(op(toInt32(ToNumber(a)), toInt32(ToNumber(b)))))
}

func (f *frame) compare(op func(a, b float64) bool) {
	b, a := f.pop(), f.pop()
	an, aok := a.(float64)
	bn, bok := b.(float64)
	if !aok || !bok {
		f.push(false)
		return
	}
	f.push(op(an, bn))
}

func remainder(a, b float64) float64 {
	if b == 0 {
		return nanValue()
	}
	r := a - b*float64(int64(a/b))
	return r
}

func toInt32(n float64) int64 {
	if n != n { // NaN
		return 0
	}
	return int64(int32(int64(n)))
}

func nanValue() float64 {
	var n float64
	return n / n
}

// throwValue coerces v to an Exception, appends a stack-trace frame, and
// either finds a handler in this frame (returning nil) or returns the
// Exception to be propagated by run().
func (f *frame) throwValue(v Value) *Exception {
	exc := ToException(v)
	exc.Stack += f.program.frameTrace(f.ip-1) + "\n"
	if f.raise(exc) {
		return nil
	}
	return exc
}

// raise attempts to dispatch exc to the nearest handler in this frame,
// mutating ip/stack/closure on success.
func (f *frame) raise(exc *Exception) bool {
	if f.handler == nil {
		return false
	}
	h := f.handler
	f.handler = h.Parent
	if h.StackDepth <= len(f.stack) {
		f.stack = f.stack[:h.StackDepth]
	}
	f.closure = h.Closure
	f.ip = h.HandlerIP
	f.push(exc)
	return true
}

func excOf(err error) *Exception {
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	return NewException(err.Error(), nil)
}
