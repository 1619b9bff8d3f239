package sqlconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/getpup/pupbase/core"

	_ "modernc.org/sqlite"
)

// ErrReadOnly is returned by WithTransaction on a connection opened via
// OpenReader.
var ErrReadOnly = errors.New("sqlconn: connection is read-only")

// ErrBusyRetriesExhausted is returned when BEGIN IMMEDIATE is still busy
// after Config.MaxRetries retries.
var ErrBusyRetriesExhausted = errors.New("sqlconn: busy retry budget exhausted")

// Conn owns one writer connection to the embedded SQL engine (or, when
// opened via OpenReader, a read-only connection onto the same file). It
// lazily opens on first use and serializes write transactions in
// process via a mutex.
type Conn struct {
	config   Config
	readOnly bool
	emitter  *core.Emitter

	openOnce sync.Once
	openErr  error
	db       *sql.DB

	// reader is the lazily-opened companion read-only Conn sharing this
	// writer's file, used by Reader() so standalone reads never contend
	// with writeMu.
	readerOnce sync.Once
	reader     *Conn

	// writeMu serializes WithTransaction callers: at most one fn runs at
	// a time, mirroring the chained-promise discipline of the source
	// system without needing a promise library.
	writeMu sync.Mutex
}

// Open creates a writer Conn. The underlying *sql.DB is not opened until
// the first WithTransaction or Reader call.
func Open(config Config, emitter *core.Emitter) *Conn {
	if emitter == nil {
		emitter = core.NewEmitter()
	}
	return &Conn{config: config, emitter: emitter}
}

// OpenReader creates a read-only Conn onto the same file as an existing
// writer Conn. Reads proceed concurrently with an in-flight write
// transaction under WAL and see only committed state.
func OpenReader(config Config) *Conn {
	return &Conn{config: config, readOnly: true, emitter: core.NewEmitter()}
}

// Emitter returns the Emitter this Conn publishes begin/end/rollback/
// finally signals to. Callers that want those signals to reach the
// same listeners as a dispatch.Engine's own signals should pass this
// to dispatch.NewEngine, or simply leave that emitter argument nil —
// NewEngine defaults to its Conn's Emitter.
func (c *Conn) Emitter() *core.Emitter {
	return c.emitter
}

func (c *Conn) ensureOpen() error {
	c.openOnce.Do(func() {
		dsn := c.dsn()
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			c.openErr = fmt.Errorf("sqlconn: open %s: %w", c.config.Path, err)
			return
		}
		if !c.readOnly {
			db.SetMaxOpenConns(1)
		}
		if err := c.configure(db); err != nil {
			c.openErr = err
			return
		}
		c.db = db
	})
	return c.openErr
}

func (c *Conn) dsn() string {
	if c.readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", c.config.Path, c.config.BusyTimeout.Milliseconds())
	}
	return c.config.Path
}

func (c *Conn) configure(db *sql.DB) error {
	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA recursive_triggers = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", c.config.BusyTimeout.Milliseconds()),
	}
	if !c.readOnly && c.config.IncrementalAutoVacuum {
		pragmas = append(pragmas, "PRAGMA auto_vacuum = INCREMENTAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlconn: pragma %q: %w", p, err)
		}
	}
	return nil
}

// Reader returns a DBTX suitable for standalone reads outside a write
// transaction. For a reader Conn this is the connection itself; for a
// writer Conn it lazily opens a dedicated read-only handle onto the same
// file so reads never contend with the writer mutex.
func (c *Conn) Reader(ctx context.Context) (core.DBTX, error) {
	if c.readOnly {
		if err := c.ensureOpen(); err != nil {
			return nil, err
		}
		return c.db, nil
	}
	c.readerOnce.Do(func() {
		c.reader = OpenReader(c.config)
	})
	if err := c.reader.ensureOpen(); err != nil {
		return nil, err
	}
	return c.reader.db, nil
}

// WithTransaction runs fn inside a single BEGIN IMMEDIATE write
// transaction, retrying on SQLITE_BUSY with jittered backoff up to
// Config.MaxRetries times. Only one WithTransaction call executes at
// a time per Conn. It emits begin, then (on success) end and finally, or
// (on failure) rollback and finally.
func (c *Conn) WithTransaction(ctx context.Context, fn func(tx core.DBTX) error) error {
	if c.readOnly {
		return ErrReadOnly
	}
	if err := c.ensureOpen(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlconn: acquire connection: %w", err)
	}
	defer conn.Close()

	if err := c.beginImmediate(ctx, conn); err != nil {
		return err
	}
	c.emitter.Emit(core.SignalBegin, nil)

	runErr := fn(conn)
	if runErr != nil {
		c.rollback(ctx, conn)
		c.emitter.Emit(core.SignalRollback, nil)
		c.emitter.Emit(core.SignalFinally, nil)
		return runErr
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		c.rollback(ctx, conn)
		c.emitter.Emit(core.SignalRollback, nil)
		c.emitter.Emit(core.SignalFinally, nil)
		return fmt.Errorf("sqlconn: commit: %w", err)
	}

	c.emitter.Emit(core.SignalEnd, nil)
	c.emitter.Emit(core.SignalFinally, nil)
	return nil
}

func (c *Conn) beginImmediate(ctx context.Context, conn *sql.Conn) error {
	backoff := c.config.BaseBackoff
	for attempt := 0; ; attempt++ {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		if !IsBusy(err) || attempt >= c.config.MaxRetries {
			if IsBusy(err) {
				return fmt.Errorf("sqlconn: %w: %v", ErrBusyRetriesExhausted, err)
			}
			return fmt.Errorf("sqlconn: begin immediate: %w", err)
		}
		if c.config.Logger != nil {
			c.config.Logger.Debug(ctx, "begin immediate busy, retrying", "attempt", attempt, "backoff", backoff)
		}
		sleep := backoff + time.Duration(rand.Int63n(int64(backoff)+1))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Conn) rollback(ctx context.Context, conn *sql.Conn) {
	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		if c.config.Logger != nil {
			c.config.Logger.Error(ctx, "rollback failed", "error", err)
		}
	}
}

// IsBusy reports whether err represents SQLITE_BUSY / "database is
// locked" from the modernc.org/sqlite driver.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
