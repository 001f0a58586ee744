package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDeviceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")

	mgr := NewManager()

	wid, err := mgr.Open(path, "w")
	if err != nil {
		t.Fatalf("open for write: %v", err)
	}
	if _, err := mgr.Write(wid, []byte("hello stream")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mgr.Close(wid); err != nil {
		t.Fatalf("close write handle: %v", err)
	}

	rid, err := mgr.Open(path, "r")
	if err != nil {
		t.Fatalf("open for read: %v", err)
	}
	defer mgr.Close(rid)

	data, err := mgr.Read(rid, 64)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello stream" {
		t.Errorf("got %q want %q", string(data), "hello stream")
	}
}

func TestFileDeviceDefaultSchemeAndExplicitPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	mgr := NewManager()

	// No scheme prefix: falls through to the implicit file device.
	id, err := mgr.Open(path, "r")
	if err != nil {
		t.Fatalf("open bare path: %v", err)
	}
	mgr.Close(id)

	// Explicit file:// prefix resolves to the same device.
	id, err = mgr.Open("file://"+path, "r")
	if err != nil {
		t.Fatalf("open file:// path: %v", err)
	}
	mgr.Close(id)
}

func TestUnknownSchemeErrors(t *testing.T) {
	mgr := NewManager()
	if _, err := mgr.Open("ftp://example.com/x", "r"); err == nil {
		t.Fatal("expected an error opening an unregistered scheme")
	}
}

func TestSeekUnsupportedByHandleSurfacesAsError(t *testing.T) {
	mgr := NewDefaultManager()
	mgr.Register("stub", stubDevice{})

	id, err := mgr.Open("stub://anything", "r")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mgr.Close(id)

	if _, err := mgr.Seek(id, 0, 0); err == nil {
		t.Fatal("expected seek on a non-seekable device to fail")
	}
}

// stubDevice is a minimal Device whose Handle refuses Seek, exercising the
// same "honest failure" path ws.go/http.go exercise without a live socket.
type stubDevice struct{}

func (stubDevice) Open(string, string) (Handle, error) { return stubHandle{}, nil }

type stubHandle struct{}

func (stubHandle) Read([]byte) (int, error)  { return 0, nil }
func (stubHandle) Write([]byte) (int, error) { return 0, nil }
func (stubHandle) Seek(int64, int) (int64, error) {
	return 0, fmt.Errorf("stub: seek not supported")
}
func (stubHandle) Close() error { return nil }
