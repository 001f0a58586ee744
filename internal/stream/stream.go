// Package stream implements the I/O stream device registry the embedding
// API (spec §6) describes: "register (scheme-name, open/read/write/close/
// seek vtable); the VM selects a device by parsing the scheme:// prefix of
// a path; file is the implicit default." A Manager owns every handle opened
// by a script for the lifetime of one engine instance, the same shape
// internal/database's Manager uses for *sql.DB connections.
package stream

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Handle is the open-file-like vtable a Device hands back from Open. Not
// every device can seek (a live websocket or HTTP response body can't);
// such handles return an error from Seek rather than faking a position.
type Handle interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// Device opens path (the full path, scheme:// prefix included) under the
// given mode ("r", "w", "a", ...) and returns a live Handle.
type Device interface {
	Open(path, mode string) (Handle, error)
}

// entry pairs a live Handle with the scheme it was opened under, so Close
// and friends can report errors in terms the script recognizes.
type entry struct {
	scheme string
	handle Handle
}

// Manager is the per-engine stream registry: scheme -> Device, plus the
// table of currently-open handles reachable by the opaque ID stream_open()
// returns, mirroring database.Manager's id -> *Conn table.
type Manager struct {
	mu      sync.RWMutex
	devices map[string]Device
	open    map[string]*entry
}

// NewManager builds a Manager with the file:// device already registered,
// matching spec §6's "file is the implicit default" — a script that opens
// a bare path with no scheme prefix gets local-disk I/O with no further
// setup.
func NewManager() *Manager {
	m := &Manager{
		devices: make(map[string]Device),
		open:    make(map[string]*entry),
	}
	m.Register("file", fileDevice{})
	return m
}

// NewDefaultManager builds a Manager with every device the runtime ships
// out of the box: file:// (the implicit default), http(s):// backed by
// net/http, and ws(s):// backed by gorilla/websocket. This is what the jx9
// demo host and the REPL both wire into their VM; a host embedding the
// engine directly can start from NewManager and Register only what it
// needs instead.
func NewDefaultManager() *Manager {
	m := NewManager()
	httpDev := newHTTPDevice()
	m.Register("http", httpDev)
	m.Register("https", httpDev)
	wsDev := wsDevice{}
	m.Register("ws", wsDev)
	m.Register("wss", wsDev)
	return m
}

// Register installs dev under scheme, overriding any previous device for
// that scheme. Host embedders call this the way spec §6 describes: a
// one-time setup step before scripts start opening streams.
func (m *Manager) Register(scheme string, dev Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[scheme] = dev
}

// splitScheme parses the scheme:// prefix off path, defaulting to "file"
// when none is present (a bare "/tmp/x" or "report.txt").
func splitScheme(path string) (scheme, rest string) {
	if i := strings.Index(path, "://"); i >= 0 {
		return path[:i], path[i+3:]
	}
	return "file", path
}

// Open resolves path's scheme to a registered Device, opens it under mode,
// and returns the opaque handle ID a script threads through stream_read/
// stream_write/stream_seek/stream_close. The full path (scheme prefix
// included) is handed to the device itself, since an http(s) device needs
// its scheme to build the outgoing request URL; only the scheme lookup
// strips it.
func (m *Manager) Open(path, mode string) (string, error) {
	scheme, _ := splitScheme(path)

	m.mu.RLock()
	dev, ok := m.devices[scheme]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("stream: no device registered for scheme %q", scheme)
	}

	h, err := dev.Open(path, mode)
	if err != nil {
		return "", fmt.Errorf("stream: open %s: %w", path, err)
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.open[id] = &entry{scheme: scheme, handle: h}
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) get(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.open[id]
	if !ok {
		return nil, fmt.Errorf("stream: no open handle %q", id)
	}
	return e, nil
}

// Read pulls up to n bytes from handle id. io.EOF is reported back to the
// caller as a plain (partial-or-empty, nil) result: scripts test for EOF
// by the returned length, not by inspecting error text.
func (m *Manager) Read(id string, n int) ([]byte, error) {
	e, err := m.get(id)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := e.handle.Read(buf)
	if err != nil && err != io.EOF {
		return buf[:read], fmt.Errorf("stream: read %s://: %w", e.scheme, err)
	}
	return buf[:read], nil
}

// Write sends p to handle id and returns the byte count actually written.
func (m *Manager) Write(id string, p []byte) (int, error) {
	e, err := m.get(id)
	if err != nil {
		return 0, err
	}
	n, err := e.handle.Write(p)
	if err != nil {
		return n, fmt.Errorf("stream: write %s://: %w", e.scheme, err)
	}
	return n, nil
}

// Seek repositions handle id, failing cleanly for devices (ws, http) that
// don't support it.
func (m *Manager) Seek(id string, offset int64, whence int) (int64, error) {
	e, err := m.get(id)
	if err != nil {
		return 0, err
	}
	pos, err := e.handle.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("stream: seek %s://: %w", e.scheme, err)
	}
	return pos, nil
}

// Close releases handle id and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	e, ok := m.open[id]
	if ok {
		delete(m.open, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("stream: no open handle %q", id)
	}
	return e.handle.Close()
}

// CloseAll tears down every open handle, used on engine shutdown the same
// way database.Manager.CloseAll is.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.open {
		e.handle.Close()
		delete(m.open, id)
	}
}
