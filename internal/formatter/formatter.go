// Package formatter implements `alto disasm`'s bytecode disassembler: a
// human-readable listing of a compiled Program's instructions, annotated
// with the source line and enclosing function each one came from.
package formatter

import (
	"fmt"
	"strings"

	"alto/internal/bytecode"
	"alto/internal/vm"
)

// Disassembler renders a Program's Code as one line per instruction,
// adapted from the teacher's Formatter (formatter.go): the same
// indent-tracking strings.Builder walk, but over bytecode.Instruction
// words instead of a parser.Stmt/Expr AST — there is no AST left once a
// Program is compiled, so disassembly is the formatter's only remaining
// job.
type Disassembler struct {
	output strings.Builder
}

// NewDisassembler builds an empty Disassembler.
func NewDisassembler() *Disassembler {
	return &Disassembler{}
}

// Disassemble renders every instruction in p.Code. Jump targets are shown
// as absolute addresses (`-> 12`) rather than resolved labels, matching
// how the compiler itself computes them (spec §4.6's two-pass
// emit-then-patch).
func (d *Disassembler) Disassemble(p *vm.Program) string {
	d.output.Reset()
	lastFunc := ""
	for ip, instr := range p.Code {
		fn := d.sourceFunction(p, ip)
		if ip == 0 || fn != lastFunc {
			fmt.Fprintf(&d.output, "; function %s\n", displayFunc(fn))
			lastFunc = fn
		}
		d.writeInstruction(p, ip, instr)
	}
	return d.output.String()
}

func (d *Disassembler) sourceFunction(p *vm.Program, ip int) string {
	if ip < 0 || ip >= len(p.SourceMap) {
		return ""
	}
	return p.SourceMap[ip].Function
}

func displayFunc(name string) string {
	if name == "" {
		return "<top-level>"
	}
	return name
}

func (d *Disassembler) writeInstruction(p *vm.Program, ip int, instr bytecode.Instruction) {
	op := instr.Op()
	fmt.Fprintf(&d.output, "%6d  %-16s", ip, op.String())

	switch op {
	case bytecode.OpJump, bytecode.OpConditionalJump, bytecode.OpConditionalAnd, bytecode.OpConditionalOr:
		fmt.Fprintf(&d.output, " -> %d", instr.Value())
	case bytecode.OpLoadGlobal:
		d.writeDataOrSlot(p, instr)
	case bytecode.OpLoadVariable, bytecode.OpStoreVariable:
		fmt.Fprintf(&d.output, " depth=%d slot=%d", instr.Param(), instr.Value())
	case bytecode.OpCall, bytecode.OpApply, bytecode.OpFunction, bytecode.OpList, bytecode.OpTable,
		bytecode.OpEnterClosure, bytecode.OpLeaveClosure, bytecode.OpLoadArgument, bytecode.OpLoadArgumentList,
		bytecode.OpEnterTry, bytecode.OpEnterFinally, bytecode.OpLeaveFinally, bytecode.OpBoolean, bytecode.OpNumber:
		fmt.Fprintf(&d.output, " param=%d value=%d", instr.Param(), instr.Value())
	}

	if ip < len(p.SourceMap) {
		fmt.Fprintf(&d.output, "\t; line %d", p.SourceMap[ip].Line)
	}
	d.output.WriteString("\n")
}

// writeDataOrSlot prints the interned data-pool value a load/store
// addresses when it's a simple scalar (number, string, bool, or nil), else just
// the raw index — tables, functions, and import placeholders aren't worth
// inlining into a disassembly line.
func (d *Disassembler) writeDataOrSlot(p *vm.Program, instr bytecode.Instruction) {
	idx := instr.Value()
	if idx < 0 || idx >= len(p.Data) {
		fmt.Fprintf(&d.output, " [%d]", idx)
		return
	}
	switch v := p.Data[idx].(type) {
	case float64, string, bool, nil:
		fmt.Fprintf(&d.output, " [%d] %v", idx, v)
	default:
		fmt.Fprintf(&d.output, " [%d]", idx)
	}
}
