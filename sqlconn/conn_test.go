package sqlconn

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/getpup/pupbase/core"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sqlconn_test.db")
}

func TestConn_WithTransaction_CommitsAndEmits(t *testing.T) {
	ctx := context.Background()
	emitter := core.NewEmitter()
	var signals []core.Signal
	for _, sig := range []core.Signal{core.SignalBegin, core.SignalEnd, core.SignalRollback, core.SignalFinally} {
		s := sig
		emitter.On(s, func(any) { signals = append(signals, s) })
	}

	conn := Open(NewConfig(tempDBPath(t)), emitter)

	err := conn.WithTransaction(ctx, func(tx core.DBTX) error {
		_, err := tx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	wantOrder := []core.Signal{core.SignalBegin, core.SignalEnd, core.SignalFinally}
	if len(signals) != len(wantOrder) {
		t.Fatalf("signals = %v, want %v", signals, wantOrder)
	}
	for i := range wantOrder {
		if signals[i] != wantOrder[i] {
			t.Errorf("signals[%d] = %v, want %v", i, signals[i], wantOrder[i])
		}
	}
}

func TestConn_WithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn := Open(NewConfig(tempDBPath(t)), nil)

	boom := fmt.Errorf("boom")
	err := conn.WithTransaction(ctx, func(tx core.DBTX) error {
		if _, err := tx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("WithTransaction error = %v, want %v", err, boom)
	}

	// The CREATE TABLE must have been rolled back.
	err = conn.WithTransaction(ctx, func(tx core.DBTX) error {
		_, err := tx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
		return err
	})
	if err != nil {
		t.Fatalf("expected table creation to succeed after rollback, got: %v", err)
	}
}

func TestConn_ReadOnly_RejectsWithTransaction(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	w := Open(NewConfig(path), nil)
	if err := w.WithTransaction(ctx, func(tx core.DBTX) error {
		_, err := tx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
		return err
	}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	r := OpenReader(NewConfig(path))
	if err := r.WithTransaction(ctx, func(tx core.DBTX) error { return nil }); err != ErrReadOnly {
		t.Errorf("WithTransaction on reader = %v, want %v", err, ErrReadOnly)
	}
}

func TestIsBusy(t *testing.T) {
	if IsBusy(nil) {
		t.Error("IsBusy(nil) = true, want false")
	}
	if !IsBusy(fmt.Errorf("sqlite: SQLITE_BUSY: database is locked")) {
		t.Error("IsBusy should detect SQLITE_BUSY")
	}
	if IsBusy(fmt.Errorf("some other error")) {
		t.Error("IsBusy should not match unrelated errors")
	}
}
