// Package relica provides the message store implementation using the Relica
// query builder.
//
// Relica (github.com/coregx/relica) is a lightweight database query builder
// for Go. MessageStore works with any database/sql driver Relica supports;
// the embedded schema covers "sqlite3", "mysql" and "postgres".
//
// Example usage:
//
//	import (
//	    "github.com/coregx/p2pchat/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	store, err := relica.Open(ctx, "sqlite3", "./data/messages.db", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	key, err := store.Store(ctx, envelope)
//	recent, err := store.Recent(ctx, 50)
package relica
