// Package catalog provides persistent storage for photoflow using SQLite.
// It owns the catalog of accepted media entries, import sessions and their
// selection items, and the thumbnail retry ledger. All worker coordination
// happens through conditional updates here; the database is the sole arbiter
// of who owns what.
package catalog
