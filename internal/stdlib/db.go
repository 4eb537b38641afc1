package stdlib

import (
	"alto/internal/database"
	"alto/internal/errors"
	"alto/internal/vm"
)

// DB builds the `db` native module: connect/query/exec/close over
// database/sql, backed by the teacher's connection-pool manager
// (internal/database.DBManager, adapted from database_funcs.go's
// RegisterDatabaseFunctions — same operations, same manager, re-exposed
// as vm.NativeFn values taking/returning Alto Values instead of Sentra's
// variadic interface{} convention).
func DB() *vm.Table {
	mgr := database.NewDBManager()
	t := vm.NewTable()
	t.Set("connect", native("connect", dbConnect(mgr)))
	t.Set("close", native("close", dbClose(mgr)))
	t.Set("query", native("query", dbQuery(mgr)))
	t.Set("exec", native("exec", dbExec(mgr)))
	t.Set("queryOne", native("queryOne", dbQueryOne(mgr)))
	return t
}

func stringArgs(args []vm.Value, n int, who string) ([]string, error) {
	if len(args) < n {
		return nil, errors.NewRuntimeFault(who + ": too few arguments")
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		s, ok := args[i].(string)
		if !ok {
			return nil, errors.NewRuntimeFault(who + ": argument must be a String")
		}
		out[i] = s
	}
	return out, nil
}

func dbConnect(mgr *database.DBManager) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		s, err := stringArgs(args, 3, "connect")
		if err != nil {
			return nil, err
		}
		// mgr already raises a RuntimeFault *errors.AltoError, so it's
		// returned as-is rather than re-wrapped into a fresh one.
		if err := mgr.Connect(s[0], s[1], s[2]); err != nil {
			return nil, err
		}
		return true, nil
	}
}

func dbClose(mgr *database.DBManager) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		s, err := stringArgs(args, 1, "close")
		if err != nil {
			return nil, err
		}
		if err := mgr.Close(s[0]); err != nil {
			return nil, err
		}
		return true, nil
	}
}

// queryArgs splits (connID, query, ...bind-params) into the id/query
// strings plus the driver-bound parameters, converting each Alto Value to
// the nearest database/sql-friendly Go type.
func queryArgs(args []vm.Value, who string) (string, string, []interface{}, error) {
	if len(args) < 2 {
		return "", "", nil, errors.NewRuntimeFault(who + ": expects at least 2 arguments")
	}
	id, ok := args[0].(string)
	query, ok2 := args[1].(string)
	if !ok || !ok2 {
		return "", "", nil, errors.NewRuntimeFault(who + ": (id, query) must be Strings")
	}
	bind := make([]interface{}, len(args)-2)
	for i, a := range args[2:] {
		bind[i] = a
	}
	return id, query, bind, nil
}

// dbQuery streams rows straight into the result List's backing slice via
// mgr.QueryEach, rather than collecting a []map[string]interface{} first
// and converting it afterward — one pass over the driver's rows, one
// allocation for the Elements slice.
func dbQuery(mgr *database.DBManager) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		id, query, bind, err := queryArgs(args, "query")
		if err != nil {
			return nil, err
		}
		var elems []vm.Value
		err = mgr.QueryEach(id, query, func(row map[string]interface{}) error {
			elems = append(elems, rowToTable(row))
			return nil
		}, bind...)
		if err != nil {
			return nil, err
		}
		return vm.NewList(elems), nil
	}
}

func dbQueryOne(mgr *database.DBManager) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		id, query, bind, err := queryArgs(args, "queryOne")
		if err != nil {
			return nil, err
		}
		row, err := mgr.QueryOne(id, query, bind...)
		if err != nil {
			return nil, err
		}
		return rowToTable(row), nil
	}
}

func dbExec(mgr *database.DBManager) vm.NativeFn {
	return func(_ vm.Value, args []vm.Value) (vm.Value, error) {
		id, query, bind, err := queryArgs(args, "exec")
		if err != nil {
			return nil, err
		}
		affected, err := mgr.Execute(id, query, bind...)
		if err != nil {
			return nil, err
		}
		return float64(affected), nil
	}
}

func rowToTable(row map[string]interface{}) *vm.Table {
	t := vm.NewTable()
	for col, val := range row {
		t.Set(col, goToValue(val))
	}
	return t
}

// goToValue narrows a database/sql-scanned column (int64/float64/string/
// bool/nil/[]byte, per the driver's native Go type mapping) to one of
// Alto's Number/String/Boolean/Null variants.
func goToValue(v interface{}) vm.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		return x
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return vm.ToDisplayString(x)
	}
}
