package stdlib

import (
	"time"

	"github.com/ncruces/go-strftime"

	"alto/internal/errors"
	"alto/internal/vm"
)

// Time builds the `time` native module: now() in epoch seconds and a
// strftime-style format(), filling a gap the teacher's own time handling
// (internal/database's Created/LastUsed, internal/module's LoadTime) left
// as raw Go time.Time with no Alto-visible formatting story.
func Time() *vm.Table {
	t := vm.NewTable()
	t.Set("now", native("now", timeNow))
	t.Set("format", native("format", timeFormat))
	return t
}

func timeNow(_ vm.Value, args []vm.Value) (vm.Value, error) {
	return float64(time.Now().UnixNano()) / 1e9, nil
}

func timeFormat(_ vm.Value, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return nil, errors.NewRuntimeFault("format expects 2 arguments: (epochSeconds, pattern)")
	}
	seconds := vm.ToNumber(args[0])
	pattern, ok := args[1].(string)
	if !ok {
		return nil, errors.NewRuntimeFault("format: pattern must be a String")
	}
	when := time.Unix(0, int64(seconds*1e9)).UTC()
	return strftime.Format(pattern, when), nil
}
