// Package client contains the CLI's building blocks for talking to the
// gophevents backend.
//
// # Overview
//
//  1. The Client interface: every REST operation the CLI uses, from
//     registration and login through event management and image uploads.
//  2. HTTPClient, the JSON-over-HTTP implementation. It keeps the access
//     token from Login and sends it as a Bearer header.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that holds the login session between runs.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx responses come back as
// *APIError carrying the server's message; errors.Is matches them against
// ErrUnauthorized, ErrNotFound, ErrForbidden and ErrUnavailable by status.
package client
