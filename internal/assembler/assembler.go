// Package assembler implements Alto's optional text assembly format (spec
// §6): a line-based notation for building a vm.Program directly, bypassing
// the lexer/parser/resolver/compiler pipeline entirely. Its purpose is
// narrow — pinning down an exact instruction sequence for a vm test is
// easier in assembly than coaxing the compiler into emitting one, the same
// role a hand-built bytecode.Chunk played in the teacher's own vm tests.
package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"alto/internal/bytecode"
	"alto/internal/vm"
)

// Assemble parses source and returns the Program it describes. Labels may
// be referenced before their declaration (forward jumps), so assembly runs
// in two passes: the first records every label's address and every
// global/import/const symbol; the second resolves operands and emits code.
func Assemble(source string) (*vm.Program, error) {
	a := &assembler{
		symbols: map[string]int{"false": 0, "true": 1},
	}
	if err := a.firstPass(source); err != nil {
		return nil, err
	}
	if err := a.secondPass(source); err != nil {
		return nil, err
	}
	return vm.NewProgram(a.code, a.data, nil), nil
}

type assembler struct {
	code    []bytecode.Instruction
	data    []vm.Value
	symbols map[string]int
}

func (a *assembler) define(name string, value int) {
	a.symbols[name] = value
}

// firstPass assigns every label its instruction address and appends every
// declared global/import to the data pool, without touching a.code (its
// length, not its contents, is what determines label addresses).
func (a *assembler) firstPass(source string) error {
	addr := 0
	for i, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		lineNo := i + 1
		switch {
		case len(fields) == 1 && strings.HasSuffix(fields[0], ":"):
			a.define(strings.TrimSuffix(fields[0], ":"), addr)
		case fields[0] == "global":
			if len(fields) != 3 {
				return fmt.Errorf("line %d: global requires NAME VAL", lineNo)
			}
			v, err := parseLiteral(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			a.define(fields[1], len(a.data))
			a.data = append(a.data, v)
		case fields[0] == "import":
			if len(fields) != 3 {
				return fmt.Errorf("line %d: import requires NAME 'path'", lineNo)
			}
			path, err := parseString(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			a.define(fields[1], len(a.data))
			a.data = append(a.data, &vm.Import{Name: fields[1], Path: path})
		case fields[0] == "const":
			if len(fields) != 3 {
				return fmt.Errorf("line %d: const requires NAME INT", lineNo)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: invalid integer %q", lineNo, fields[2])
			}
			a.define(fields[1], n)
		default:
			addr++
		}
	}
	return nil
}

// secondPass re-walks source, this time emitting an Instruction for every
// line that isn't a label/global/import/const declaration.
func (a *assembler) secondPass(source string) error {
	for i, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		lineNo := i + 1
		if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
			continue
		}
		switch fields[0] {
		case "global", "import", "const":
			continue
		}

		op, ok := bytecode.Lookup(fields[0])
		if !ok {
			return fmt.Errorf("line %d: unknown mnemonic %q", lineNo, fields[0])
		}
		var param, value int
		if len(fields) > 1 {
			p, err := a.resolveOperand(fields[1])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			param = p
		}
		if len(fields) > 2 {
			v, err := a.resolveOperand(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			value = v
		}
		a.code = append(a.code, bytecode.Encode(op, param, value))
	}
	return nil
}

func (a *assembler) resolveOperand(tok string) (int, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, nil
	}
	if v, ok := a.symbols[tok]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown symbol %q", tok)
}

func stripComment(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		return line[:idx]
	}
	return line
}

func parseString(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '\'' || tok[len(tok)-1] != '\'' {
		return "", fmt.Errorf("expected a single-quoted string, got %q", tok)
	}
	return tok[1 : len(tok)-1], nil
}

func parseLiteral(tok string) (vm.Value, error) {
	switch tok {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.HasPrefix(tok, "'") {
		return parseString(tok)
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid literal %q", tok)
	}
	return n, nil
}
