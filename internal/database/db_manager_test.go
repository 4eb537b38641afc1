package database

import (
	"testing"

	"alto/internal/errors"
)

func newTestManager(t *testing.T) (*DBManager, string) {
	t.Helper()
	mgr := NewDBManager()
	id := "main"
	if err := mgr.Connect(id, "sqlite", "file::memory:?cache=shared"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { mgr.CloseAll() })
	return mgr, id
}

func TestConnectRejectsDuplicateID(t *testing.T) {
	mgr, id := newTestManager(t)
	err := mgr.Connect(id, "sqlite", "file::memory:?cache=shared")
	if err == nil {
		t.Fatal("expected an error reconnecting an existing ID")
	}
	if !errors.Is(err, errors.RuntimeFault) {
		t.Fatalf("err kind = %T, want a RuntimeFault AltoError", err)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	mgr := NewDBManager()
	err := mgr.Connect("x", "oracle", "whatever")
	if err == nil || !errors.Is(err, errors.RuntimeFault) {
		t.Fatalf("err = %v, want a RuntimeFault for an unsupported driver", err)
	}
}

func TestExecuteAndQueryRoundTrip(t *testing.T) {
	mgr, id := newTestManager(t)

	if _, err := mgr.Execute(id, `CREATE TABLE widgets (name TEXT, qty INTEGER)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	affected, err := mgr.Execute(id, `INSERT INTO widgets (name, qty) VALUES (?, ?)`, "bolt", int64(4))
	if err != nil {
		t.Fatalf("INSERT: %v", err)
	}
	if affected != 1 {
		t.Fatalf("rows affected = %d, want 1", affected)
	}

	rows, err := mgr.Query(id, `SELECT name, qty FROM widgets`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["name"] != "bolt" {
		t.Fatalf("name = %v, want bolt", rows[0]["name"])
	}
}

func TestQueryEachStopsEarlyWhenCallbackErrors(t *testing.T) {
	mgr, id := newTestManager(t)
	if _, err := mgr.Execute(id, `CREATE TABLE nums (n INTEGER)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := mgr.Execute(id, `INSERT INTO nums (n) VALUES (?)`, int64(i)); err != nil {
			t.Fatalf("INSERT: %v", err)
		}
	}

	seen := 0
	err := mgr.QueryEach(id, `SELECT n FROM nums ORDER BY n`, func(row map[string]interface{}) error {
		seen++
		return errStopIteration
	})
	if err != errStopIteration {
		t.Fatalf("err = %v, want errStopIteration", err)
	}
	if seen != 1 {
		t.Fatalf("callback invoked %d times, want exactly 1 (streaming should stop immediately)", seen)
	}
}

func TestQueryOneErrorsWhenNoRowsMatch(t *testing.T) {
	mgr, id := newTestManager(t)
	if _, err := mgr.Execute(id, `CREATE TABLE empty_table (n INTEGER)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	_, err := mgr.QueryOne(id, `SELECT n FROM empty_table`)
	if err == nil || !errors.Is(err, errors.RuntimeFault) {
		t.Fatalf("err = %v, want a RuntimeFault for zero matching rows", err)
	}
}

func TestQueryOnUnknownConnectionIsRuntimeFault(t *testing.T) {
	mgr := NewDBManager()
	_, err := mgr.Query("missing", "SELECT 1")
	if err == nil || !errors.Is(err, errors.RuntimeFault) {
		t.Fatalf("err = %v, want a RuntimeFault for an unknown connection", err)
	}
}
