// Package queue provides the append-only, monotonic Event Queue: add,
// getNext, set (upsert at a specified version), and getMaxV, backed by a
// dedicated table in the embedded SQL engine.
package queue
