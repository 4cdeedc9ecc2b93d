// Package cli provides the interactive gophevents command-line client.
//
// It wires configuration, the local session store, the API services and a
// REPL. On start it restores a saved login, if any, so the user does not
// have to type the password on every run.
//
// Key features:
//   - Account: register, verify, login, forgot/reset password, profile, logout
//   - Browse events: list, upcoming, past, search, show, statistics, participants
//   - Manage events: create, edit, delete, join, leave, upload an image
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
