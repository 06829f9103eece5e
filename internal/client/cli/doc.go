// Package cli provides the interactive filekeeper command-line client.
//
// It wires configuration, the HTTP API client and a small REPL. Tokens live
// in memory only and are gone when the program exits.
//
// Commands:
//   - register / login / logout
//   - upload <local file>
//   - get <path>             print a stored file
//   - download <path> [out]  save a stored file locally
//   - status                 check that the server is reachable
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
