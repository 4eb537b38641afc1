package bytecode

import "testing"

func TestEncodeDecodeRoundTrips(t *testing.T) {
	cases := []struct {
		op    Op
		param int
		value int
	}{
		{OpAdd, 0, 0},
		{OpLoadVariable, 3, 12},
		{OpJump, 0, MaxValue},
		{OpConditionalJump, 1, MinValue},
		{OpLoadGlobal, MaxParam, -1},
	}
	for _, c := range cases {
		instr := Encode(c.op, c.param, c.value)
		if instr.Op() != c.op {
			t.Fatalf("Op() = %v, want %v", instr.Op(), c.op)
		}
		if instr.Param() != c.param {
			t.Fatalf("Param() = %d, want %d", instr.Param(), c.param)
		}
		if instr.Value() != c.value {
			t.Fatalf("Value() = %d, want %d", instr.Value(), c.value)
		}
	}
}

func TestEncodeClampsOutOfRangeOperands(t *testing.T) {
	instr := Encode(OpNumber, -1, MaxValue+1000)
	if instr.Param() != 0 {
		t.Fatalf("Param() = %d, want clamped to 0", instr.Param())
	}
	if instr.Value() != MaxValue {
		t.Fatalf("Value() = %d, want clamped to %d", instr.Value(), MaxValue)
	}

	instr = Encode(OpNumber, MaxParam+5, MinValue-1000)
	if instr.Param() != MaxParam {
		t.Fatalf("Param() = %d, want clamped to %d", instr.Param(), MaxParam)
	}
	if instr.Value() != MinValue {
		t.Fatalf("Value() = %d, want clamped to %d", instr.Value(), MinValue)
	}
}

func TestInRange(t *testing.T) {
	if !InRange(0) || !InRange(MaxValue) || !InRange(MinValue) {
		t.Fatal("boundary values should be in range")
	}
	if InRange(MaxValue+1) || InRange(MinValue-1) {
		t.Fatal("out-of-range values should not be in range")
	}
}

func TestParamBoundsMatchSpec(t *testing.T) {
	if MaxParam != 15 {
		t.Fatalf("MaxParam = %d, want 15 (spec §8: param in [0, 15])", MaxParam)
	}
}
