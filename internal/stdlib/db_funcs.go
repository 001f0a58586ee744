package stdlib

import (
	"fmt"
	"strings"

	"jx9/internal/database"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerDatabase wires the db_connect/db_query/db_exec/db_close foreign
// function family to one Manager shared by every connection a script opens
// over its lifetime; mgr is created fresh per engine instance (see
// internal/engine), not as a package-level singleton, so concurrent VMs
// never share connections.
func registerDatabase(m *vm.VM, mgr *database.Manager) {
	m.RegisterNative("db_connect", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("db_connect(type, dsn) expects 2 arguments")
		}
		id, err := mgr.Open(args[0].RawString(), args[1].RawString())
		if err != nil {
			return value.Null(), err
		}
		return value.Str(id), nil
	})

	m.RegisterNative("db_close", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("db_close(id) expects 1 argument")
		}
		if err := mgr.Close(args[0].RawString()); err != nil {
			return value.Bool(false), nil
		}
		return value.Bool(true), nil
	})

	m.RegisterNative("db_query", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("db_query(id, query, ...) expects at least 2 arguments")
		}
		rows, err := mgr.Query(args[0].RawString(), args[1].RawString(), queryArgs(args[2:])...)
		if err != nil {
			return value.Null(), err
		}
		result := value.NewHashmap()
		for _, row := range rows {
			result.Append(rowToValue(row))
		}
		return value.FromHashmap(result), nil
	})

	m.RegisterNative("db_exec", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("db_exec(id, query, ...) expects at least 2 arguments")
		}
		affected, err := mgr.Exec(args[0].RawString(), args[1].RawString(), queryArgs(args[2:])...)
		if err != nil {
			return value.Null(), err
		}
		return value.Int(affected), nil
	})

	m.RegisterNative("db_query_one", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("db_query_one(id, query, ...) expects at least 2 arguments")
		}
		rows, err := mgr.Query(args[0].RawString(), args[1].RawString(), queryArgs(args[2:])...)
		if err != nil {
			return value.Null(), err
		}
		if len(rows) == 0 {
			return value.Null(), nil
		}
		return rowToValue(rows[0]), nil
	})

	m.RegisterNative("db_escape", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("db_escape(str) expects 1 argument")
		}
		var b strings.Builder
		for _, ch := range args[0].RawString() {
			switch ch {
			case '\'':
				b.WriteString("''")
			case '\\':
				b.WriteString("\\\\")
			default:
				b.WriteRune(ch)
			}
		}
		return value.Str(b.String()), nil
	})
}

func queryArgs(vals []value.Value) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = goValue(v)
	}
	return out
}

func goValue(v value.Value) interface{} {
	switch {
	case v.IsNull():
		return nil
	case v.Is(value.KindInt):
		return v.RawInt()
	case v.Is(value.KindReal):
		return v.RawReal()
	case v.Is(value.KindBool):
		return v.RawBool()
	case v.Is(value.KindString):
		return v.RawString()
	default:
		return v.ToStringValue(nil)
	}
}

// rowToValue converts one database row (column name -> driver-returned Go
// value) into an OBJECT-mode hashmap.
func rowToValue(row map[string]interface{}) value.Value {
	m := value.NewHashmap()
	m.SetObjectMode(true)
	for col, raw := range row {
		m.InsertStr(col, fromGo(raw))
	}
	return value.FromHashmap(m)
}

func fromGo(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case string:
		return value.Str(v)
	case int64:
		return value.Int(v)
	case int32:
		return value.Int(int64(v))
	case int:
		return value.Int(int64(v))
	case float64:
		return value.Real(v)
	case float32:
		return value.Real(float64(v))
	case bool:
		return value.Bool(v)
	default:
		return value.Str(fmt.Sprintf("%v", v))
	}
}
