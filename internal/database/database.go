// Package database is the connection manager behind JX9's db_connect /
// db_query / db_exec / db_close foreign functions: it owns every *sql.DB
// handle a script has opened and hands back opaque connection IDs that
// travel through JX9 as string values.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// driverFor maps the DSN scheme JX9 scripts pass to db_connect() onto the
// registered database/sql driver name. "sqlite"/"sqlite3" resolve to the
// pure-Go modernc.org/sqlite driver; "sqlite3-cgo" opts into mattn's CGo
// driver for hosts that need its strict SQLite feature parity.
func driverFor(kind string) (string, error) {
	switch kind {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "sqlite3-cgo":
		return "sqlite3", nil
	case "mysql":
		return "mysql", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("database: unsupported connection type %q", kind)
	}
}

// Conn is one open handle, reachable by the ID returned from Open.
type Conn struct {
	ID       string
	Kind     string
	DSN      string
	DB       *sql.DB
	Created  time.Time
	LastUsed time.Time
}

// Manager owns every connection opened by db_connect() for the lifetime of
// one VM/engine instance. Safe for concurrent use since a script's foreign
// functions may be called from host goroutines driving a worker pool.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*Conn)}
}

// Open connects to kind (one of sqlite/mysql/postgres/mssql) at dsn and
// returns the connection ID a script uses in subsequent calls.
func (m *Manager) Open(kind, dsn string) (string, error) {
	driver, err := driverFor(kind)
	if err != nil {
		return "", err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return "", fmt.Errorf("database: open %s: %w", kind, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return "", fmt.Errorf("database: ping %s: %w", kind, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	id := uuid.NewString()
	m.mu.Lock()
	m.conns[id] = &Conn{ID: id, Kind: kind, DSN: dsn, DB: db, Created: time.Now(), LastUsed: time.Now()}
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) get(id string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("database: no open connection %q", id)
	}
	return c, nil
}

// Exec runs a statement that doesn't return rows, returning rows affected.
func (m *Manager) Exec(id, query string, args ...interface{}) (int64, error) {
	c, err := m.get(id)
	if err != nil {
		return 0, err
	}
	c.LastUsed = time.Now()
	res, err := c.DB.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("database: exec: %w", err)
	}
	return res.RowsAffected()
}

// Query runs a row-returning statement and materializes every row as a
// column-name-keyed map, ready for conversion into a JX9 array-of-objects.
func (m *Manager) Query(id, query string, args ...interface{}) ([]map[string]interface{}, error) {
	c, err := m.get(id)
	if err != nil {
		return nil, err
	}
	c.LastUsed = time.Now()
	rows, err := c.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("database: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	scanDest := make([]interface{}, len(cols))
	scanBuf := make([]interface{}, len(cols))
	for i := range cols {
		scanDest[i] = &scanBuf[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := scanBuf[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = scanBuf[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close closes and forgets connection id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("database: no open connection %q", id)
	}
	delete(m.conns, id)
	return c.DB.Close()
}

// CloseAll tears down every open connection, used on engine shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.conns {
		c.DB.Close()
		delete(m.conns, id)
	}
}
