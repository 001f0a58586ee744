package stream

import (
	"fmt"
	"os"
	"strings"
)

// fileDevice is the implicit default spec §6 calls for: any path with no
// scheme:// prefix, or an explicit file:// one, opens against local disk.
type fileDevice struct{}

func (fileDevice) Open(path, mode string) (Handle, error) {
	path = strings.TrimPrefix(path, "file://")
	flag, err := osFlags(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// osFlags maps the short mode strings JX9 scripts pass to stream_open
// ("r", "w", "a", "r+", "w+") onto os.OpenFile flags, following the same
// small vocabulary the C standard library's fopen() uses.
func osFlags(mode string) (int, error) {
	switch mode {
	case "r", "":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "r+":
		return os.O_RDWR, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	default:
		return 0, fmt.Errorf("stream: unsupported open mode %q", mode)
	}
}
