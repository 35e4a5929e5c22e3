// Package cli provides the gophchat terminal front end.
//
// It wires configuration, local storage, the HTTP backend client and the
// client services, then either runs a single cobra subcommand or an
// interactive REPL. The front end only renders service state and forwards
// user intents; the services own all synchronization rules.
//
// Key features:
//   - Register / Login / Logout / WhoAmI
//   - List, create and open chat sessions
//   - Optimistic sending with retry of failed messages
//   - Document upload and questions against uploaded documents
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewRootCommand, App and runREPL for details.
package cli
