// Package migrations generates the SQL migration file for a pupbase
// database file: the fixed history and metadata tables plus one
// document table per model in a core.Registry. It targets only the
// embedded engine a dispatch.Engine actually runs against.
package migrations
