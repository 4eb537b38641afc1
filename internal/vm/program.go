package vm

import "alto/internal/bytecode"

// SourceMapEntry names the source location and lexical context of one
// instruction (spec §4.5): its line and column, the enclosing function's
// name, and the local and global variable names visible at that point, for
// display purposes (disassembly, stack traces).
type SourceMapEntry struct {
	Line, Column int
	Function     string
	Locals       []string
	Globals      []string
}

// Program is the immutable code/data/source-map triple a compiled module
// (or, recursively, its function literals) executes against (spec §4.8).
// All function literals compiled from one module share a single Program:
// Entry addresses are offsets into the shared Code slice.
type Program struct {
	Code      []bytecode.Instruction
	Data      []Value
	SourceMap []SourceMapEntry
}

// NewProgram wraps pre-assembled code/data/source-map triples.
func NewProgram(code []bytecode.Instruction, data []Value, sourceMap []SourceMapEntry) *Program {
	return &Program{Code: code, Data: data, SourceMap: sourceMap}
}

// frameTrace renders one stack-trace line for the instruction at ip, used
// when an exception accumulates its trace (spec §4.7).
func (p *Program) frameTrace(ip int) string {
	if ip < 0 || ip >= len(p.SourceMap) {
		return "  at <unknown>"
	}
	entry := p.SourceMap[ip]
	name := entry.Function
	if name == "" {
		name = "<anonymous>"
	}
	return "  at " + name + " (line " + itoa(entry.Line) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
