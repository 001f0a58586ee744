package stdlib

import (
	"fmt"

	"jx9/internal/stream"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerStreams wires stream_open/stream_read/stream_write/stream_seek/
// stream_close to one stream.Manager shared for the engine's lifetime,
// the same id-by-string pattern registerDatabase uses for db_* — a script
// never sees a Go pointer, only the opaque handle id Open hands back.
func registerStreams(m *vm.VM, mgr *stream.Manager) {
	m.RegisterNative("stream_open", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("stream_open(path, mode) expects at least 1 argument")
		}
		mode := "r"
		if len(args) > 1 {
			mode = args[1].RawString()
		}
		id, err := mgr.Open(args[0].RawString(), mode)
		if err != nil {
			return value.Null(), err
		}
		return value.Str(id), nil
	})

	m.RegisterNative("stream_read", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("stream_read(id, n) expects at least 1 argument")
		}
		n := 4096
		if len(args) > 1 {
			n = int(args[1].RawInt())
		}
		data, err := mgr.Read(args[0].RawString(), n)
		if err != nil {
			return value.Null(), err
		}
		return value.Str(string(data)), nil
	})

	m.RegisterNative("stream_write", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("stream_write(id, data) expects 2 arguments")
		}
		n, err := mgr.Write(args[0].RawString(), []byte(args[1].RawString()))
		if err != nil {
			return value.Null(), err
		}
		return value.Int(int64(n)), nil
	})

	m.RegisterNative("stream_seek", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("stream_seek(id, offset, whence) expects at least 2 arguments")
		}
		whence := 0
		if len(args) > 2 {
			whence = int(args[2].RawInt())
		}
		pos, err := mgr.Seek(args[0].RawString(), args[1].RawInt(), whence)
		if err != nil {
			return value.Null(), err
		}
		return value.Int(pos), nil
	})

	m.RegisterNative("stream_close", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("stream_close(id) expects 1 argument")
		}
		if err := mgr.Close(args[0].RawString()); err != nil {
			return value.Bool(false), nil
		}
		return value.Bool(true), nil
	})
}
