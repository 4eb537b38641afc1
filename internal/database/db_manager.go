// Package database manages SQL connections for Alto's native `db` module
// (internal/stdlib), streaming result rows to a caller-supplied callback
// instead of buffering an entire result set, and reporting every failure
// through Alto's RuntimeFault error taxonomy (internal/errors) so stdlib
// callers and the REPL can branch on error kind instead of string-matching.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, used for dbType "sqlite"

	"alto/internal/errors"
)

// DBManager manages the connections backing Alto's `db` native module.
type DBManager struct {
	connections map[string]*DBConn
	mu          sync.RWMutex
}

// DBConn represents an active database connection.
type DBConn struct {
	ID       string
	Type     string // sqlite, postgres, mysql, sqlserver
	DB       *sql.DB
	DSN      string
	Created  time.Time
	LastUsed time.Time
}

// NewDBManager creates a new database manager.
func NewDBManager() *DBManager {
	return &DBManager{
		connections: make(map[string]*DBConn),
	}
}

// Connect creates a new database connection.
func (m *DBManager) Connect(id, dbType, dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[id]; exists {
		return errors.NewRuntimeFault(fmt.Sprintf("connection '%s' already exists", id))
	}

	driverName, ok := driverFor(dbType)
	if !ok {
		return errors.NewRuntimeFault(fmt.Sprintf("unsupported database type: %s", dbType))
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("failed to connect: %v", err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return errors.NewRuntimeFault(fmt.Sprintf("failed to ping database: %v", err))
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.connections[id] = &DBConn{
		ID:       id,
		Type:     dbType,
		DB:       db,
		DSN:      dsn,
		Created:  time.Now(),
		LastUsed: time.Now(),
	}
	return nil
}

// driverFor maps Alto's dbType names to registered database/sql drivers.
func driverFor(dbType string) (string, bool) {
	switch dbType {
	case "sqlite":
		return "sqlite", true // modernc.org/sqlite, pure Go
	case "sqlite3":
		return "sqlite3", true // github.com/mattn/go-sqlite3, cgo
	case "postgres", "postgresql":
		return "postgres", true
	case "mysql":
		return "mysql", true
	case "mssql", "sqlserver":
		return "sqlserver", true
	default:
		return "", false
	}
}

// Execute runs a query that doesn't return rows (INSERT, UPDATE, DELETE).
func (m *DBManager) Execute(connID, query string, args ...interface{}) (int64, error) {
	conn, err := m.getConnection(connID)
	if err != nil {
		return 0, err
	}
	conn.touch()

	result, err := conn.DB.Exec(query, args...)
	if err != nil {
		return 0, errors.NewRuntimeFault(fmt.Sprintf("execution failed: %v", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewRuntimeFault(fmt.Sprintf("reading rows affected: %v", err))
	}
	return affected, nil
}

// RowFn receives one scanned row at a time during a streaming query; each
// call gets a freshly built map (its []byte-derived strings are copies), so
// holding a reference past the call is safe. The
// iteration stops, and QueryEach returns fn's error unwrapped, the moment
// fn returns a non-nil error.
type RowFn func(row map[string]interface{}) error

// QueryEach runs a query and streams each result row to fn as it's
// scanned, instead of materializing the whole result set as a
// []map[string]interface{} first — a single wide result set no longer
// has to fit in memory twice (once in the driver's buffer, once in ours)
// before the caller sees a single row.
func (m *DBManager) QueryEach(connID, query string, fn RowFn, args ...interface{}) error {
	conn, err := m.getConnection(connID)
	if err != nil {
		return err
	}
	conn.touch()

	rows, err := conn.DB.Query(query, args...)
	if err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("query failed: %v", err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("reading columns: %v", err))
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return errors.NewRuntimeFault(fmt.Sprintf("scanning row: %v", err))
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("iterating rows: %v", err))
	}
	return nil
}

// Query runs a query that returns rows, buffering the full result set.
// Callers that can process rows incrementally should prefer QueryEach.
func (m *DBManager) Query(connID, query string, args ...interface{}) ([]map[string]interface{}, error) {
	var results []map[string]interface{}
	err := m.QueryEach(connID, query, func(row map[string]interface{}) error {
		results = append(results, row)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// errStopIteration is QueryEach's internal early-exit signal; it never
// escapes QueryOne, which swallows it to report "row found, stop looking".
var errStopIteration = errors.NewRuntimeFault("stop iteration")

// QueryOne runs a query expecting a single row, scanning only that row
// off the wire rather than draining the whole result set through Query.
func (m *DBManager) QueryOne(connID, query string, args ...interface{}) (map[string]interface{}, error) {
	var first map[string]interface{}
	err := m.QueryEach(connID, query, func(row map[string]interface{}) error {
		first = row
		return errStopIteration
	}, args...)
	if err != nil && err != errStopIteration {
		return nil, err
	}
	if first == nil {
		return nil, errors.NewRuntimeFault("no rows returned")
	}
	return first, nil
}

// Transaction runs fn within a database transaction, committing on
// success and rolling back on any error fn returns.
func (m *DBManager) Transaction(connID string, fn func(*sql.Tx) error) error {
	conn, err := m.getConnection(connID)
	if err != nil {
		return err
	}
	conn.touch()

	tx, err := conn.DB.Begin()
	if err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.NewRuntimeFault(fmt.Sprintf("transaction failed: %v, rollback failed: %v", err, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("failed to commit transaction: %v", err))
	}
	return nil
}

// Close closes a specific connection.
func (m *DBManager) Close(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, exists := m.connections[connID]
	if !exists {
		return errors.NewRuntimeFault(fmt.Sprintf("connection '%s' not found", connID))
	}

	if err := conn.DB.Close(); err != nil {
		return errors.NewRuntimeFault(fmt.Sprintf("closing connection: %v", err))
	}

	delete(m.connections, connID)
	return nil
}

// CloseAll closes every open connection, continuing past individual
// close failures so one stuck connection can't strand the rest.
func (m *DBManager) CloseAll() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var failures []error
	for id, conn := range m.connections {
		if err := conn.DB.Close(); err != nil {
			failures = append(failures, errors.NewRuntimeFault(fmt.Sprintf("closing connection %s: %v", id, err)))
		}
	}
	m.connections = make(map[string]*DBConn)
	return failures
}

// ListConnections returns a snapshot of active connections.
func (m *DBManager) ListConnections() []map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]map[string]interface{}, 0, len(m.connections))
	for _, conn := range m.connections {
		list = append(list, map[string]interface{}{
			"id":       conn.ID,
			"type":     conn.Type,
			"created":  conn.Created,
			"lastUsed": conn.LastUsed,
		})
	}
	return list
}

func (c *DBConn) touch() {
	c.LastUsed = time.Now()
}

// getConnection retrieves a connection by ID.
func (m *DBManager) getConnection(connID string) (*DBConn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, exists := m.connections[connID]
	if !exists {
		return nil, errors.NewRuntimeFault(fmt.Sprintf("connection '%s' not found", connID))
	}
	return conn, nil
}
