package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getpup/pupbase/core"
	"github.com/getpup/pupbase/queue"
	"github.com/getpup/pupbase/sqlconn"
	"github.com/getpup/pupbase/store"
)

// errNoWork is a sentinel returned by processNext's transaction closure
// when the queue has nothing left to process. It never escapes to a
// caller of Dispatch/HandledVersion.
var errNoWork = errors.New("dispatch: no work")

// Engine is the dispatch engine. It owns the writer connection for the
// lifetime of a dispatch, drives the preprocess -> reduce -> apply ->
// derive pipeline across every registered model, and
// persists the result back to the event queue and the metadata model in
// the same transaction.
type Engine struct {
	conn     *sqlconn.Conn
	queue    queue.Queue
	registry *core.Registry
	emitter  *core.Emitter
	metadata core.MetadataStore
	tables   *store.Tables
	config   Config

	wake    chan struct{}
	stopCh  chan struct{}
	stopped sync.Once

	mu       sync.Mutex
	waiters  map[int64][]chan struct{}
	outcomes map[int64]*core.Event
}

// NewEngine creates an Engine. Call Start to begin processing queued
// events in the background. A nil emitter defaults to conn's own
// Emitter, so listeners registered via On also see conn's
// begin/end/rollback/finally signals; pass an explicit emitter only to
// keep the Engine's signals separate from the Conn's.
func NewEngine(conn *sqlconn.Conn, q queue.Queue, registry *core.Registry, emitter *core.Emitter, metadata core.MetadataStore, tables *store.Tables, config Config) *Engine {
	if emitter == nil {
		emitter = conn.Emitter()
	}
	return &Engine{
		conn:     conn,
		queue:    q,
		registry: registry,
		emitter:  emitter,
		metadata: metadata,
		tables:   tables,
		config:   config,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		waiters:  make(map[int64][]chan struct{}),
		outcomes: make(map[int64]*core.Event),
	}
}

// Start launches the background worker loop that drains the queue. It
// returns immediately; the loop runs until ctx is done or Stop is
// called.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Stop halts the worker loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopped.Do(func() { close(e.stopCh) })
}

// On registers a listener for one of the Event Emitter's signals.
func (e *Engine) On(sig core.Signal, l core.Listener) {
	e.emitter.On(sig, l)
}

// Wake nudges the worker loop to check the queue immediately. The loop
// has no periodic poll: once idle it waits until Wake is called (or
// the engine stops). Dispatch calls this automatically; it is exposed
// for callers that seed the queue directly (e.g. queue.Set during
// replay) without going through Dispatch.
func (e *Engine) Wake() {
	e.signalWake()
}

func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		default:
		}

		progressed, err := e.tick(ctx)
		if err != nil {
			if e.config.Logger != nil {
				e.config.Logger.Error(ctx, "dispatch tick failed", "error", err)
			}
			select {
			case <-time.After(e.config.ErrorBackoff):
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			}
			continue
		}
		if progressed {
			continue
		}

		select {
		case <-e.wake:
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		}
	}
}

// tick processes at most one root event, returning progressed=true if
// one was found and processed (regardless of whether it handled or
// failed).
func (e *Engine) tick(ctx context.Context) (bool, error) {
	event, hadWork, err := e.processNext(ctx)
	if err != nil {
		return false, err
	}
	if !hadWork {
		return false, nil
	}
	e.notify(event)
	if event.Failed() {
		e.emitter.Emit(core.SignalError, event)
	} else {
		e.emitter.Emit(core.SignalResult, event)
	}
	return true, nil
}

// processNext dequeues and fully processes the next unhandled root
// event, if any. On a pipeline failure it rolls back the main
// transaction and persists the error in a second, independent
// transaction so the failure record survives even though every write
// the pipeline attempted did not. Either way it increments a
// "handled" or "failed" bookkeeping counter on the Metadata Model in
// the same transaction as AdvanceV.
func (e *Engine) processNext(ctx context.Context) (*core.Event, bool, error) {
	var (
		event          *core.Event
		hadWork        bool
		pipelineFailed bool
		pipelineErr    error
	)

	txErr := e.conn.WithTransaction(ctx, func(tx core.DBTX) error {
		v, err := e.metadata.GetV(ctx, tx)
		if err != nil {
			return err
		}
		next, err := e.queue.GetNext(ctx, tx, v)
		if err != nil {
			return err
		}
		if next == nil {
			return errNoWork
		}
		hadWork = true
		event = next

		// Replay: a row with queue.set events but no result re-derives
		// its subevents rather than preserving the previous run's.
		if event.Events != nil && event.Result == nil {
			event.Events = nil
		}

		st := e.tables.Bind(tx)
		if err := e.runNode(ctx, tx, st, event, 0, nil, "."+event.Type); err != nil {
			pipelineFailed = true
			pipelineErr = err
			return err
		}

		if err := e.queue.Set(ctx, tx, event); err != nil {
			return err
		}
		if err := e.metadata.AdvanceV(ctx, tx, event.V); err != nil {
			return err
		}
		_, err = e.metadata.IncrCounter(ctx, tx, "handled", 1)
		return err
	})

	if errors.Is(txErr, errNoWork) {
		return nil, false, nil
	}
	if !hadWork {
		return nil, false, txErr
	}

	if pipelineFailed {
		event.Result = nil
		event.Events = nil
		perr, ok := pipelineErr.(core.PipelineError)
		if !ok {
			perr = core.PipelineError{"_handle": pipelineErr.Error()}
		}
		event.Error = map[string]any(perr)

		// A failed event still advances V: the version is "consumed"
		// and the dense-v invariant must hold regardless of outcome.
		microErr := e.conn.WithTransaction(ctx, func(tx core.DBTX) error {
			if err := e.queue.Set(ctx, tx, event); err != nil {
				return err
			}
			if err := e.metadata.AdvanceV(ctx, tx, event.V); err != nil {
				return err
			}
			_, err := e.metadata.IncrCounter(ctx, tx, "failed", 1)
			return err
		})
		if microErr != nil {
			return nil, false, microErr
		}
		return event, true, nil
	}

	if txErr != nil {
		return nil, false, txErr
	}
	return event, true, nil
}

// Dispatch enqueues a new root event and blocks until it has been
// handled or failed. A nil ts means "use the current time"; a non-nil
// ts is used exactly as given, including zero.
func (e *Engine) Dispatch(ctx context.Context, typ string, data any, ts *int64) (*core.Event, error) {
	tsVal := time.Now().UnixMilli()
	if ts != nil {
		tsVal = *ts
	}

	var event *core.Event
	err := e.conn.WithTransaction(ctx, func(tx core.DBTX) error {
		created, err := e.queue.Add(ctx, tx, typ, data, tsVal)
		if err != nil {
			return err
		}
		event = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.signalWake()
	return e.HandledVersion(ctx, event.V)
}

// HandledVersion blocks until the event at v has been handled or
// failed, returning the terminal event. If it failed, the returned
// error is the event's PipelineError; callers that only need the event
// itself (e.g. to inspect the error map) can ignore it and read the
// returned event directly.
func (e *Engine) HandledVersion(ctx context.Context, v int64) (*core.Event, error) {
	e.mu.Lock()
	if event, ok := e.outcomes[v]; ok {
		e.mu.Unlock()
		return terminal(event)
	}
	ch := make(chan struct{})
	e.waiters[v] = append(e.waiters[v], ch)
	e.mu.Unlock()

	select {
	case <-ch:
		e.mu.Lock()
		event := e.outcomes[v]
		e.mu.Unlock()
		return terminal(event)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) notify(event *core.Event) {
	e.mu.Lock()
	e.outcomes[event.V] = event
	waiting := e.waiters[event.V]
	delete(e.waiters, event.V)
	e.mu.Unlock()

	for _, ch := range waiting {
		close(ch)
	}
}

func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func terminal(event *core.Event) (*core.Event, error) {
	if event.Failed() {
		return event, core.PipelineError(event.Error)
	}
	return event, nil
}
