// Package cli provides the interactive gophvote command-line client.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Anyone can list and inspect proposals; creating, voting, editing,
// deleting and exporting require a login first.
package cli
