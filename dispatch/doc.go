// Package dispatch implements the event dispatch engine: the
// preprocess -> reduce -> apply -> derive pipeline, driven depth-first
// over an explicit event tree rather than recursive handler calls.
//
// An Engine owns a single write connection (via sqlconn.Conn), the
// event queue, the model registry, and the reserved metadata model. It
// runs one background worker that processes root events strictly in
// version order, one at a time, each under its own write transaction.
// Dispatch enqueues a new root event and returns once that event has
// been handled or failed; HandledVersion exposes the same wait for a
// version enqueued elsewhere (e.g. by another process replaying the
// queue).
package dispatch
