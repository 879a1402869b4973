// Package importer orchestrates an import run end to end: discovery or
// remote listing feeds selection items, a worker pool claims and processes
// them concurrently through identity resolution and duplicate matching, and
// the session is finalized by re-aggregating persisted item state so an
// interrupted run is always recoverable from the database alone.
package importer
