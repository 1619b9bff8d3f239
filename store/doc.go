// Package store provides the read-only and transaction-scoped writable
// views over a model's document table: store.<model> and
// rwStore.<model>.
//
// Each model's rows live in their own table, one JSON document column
// per row (id plus the document). Partial updates and path queries use
// github.com/tidwall/sjson and github.com/tidwall/gjson to touch the
// document in place rather than round-tripping through
// encoding/json.Unmarshal/Marshal on every field access.
package store
