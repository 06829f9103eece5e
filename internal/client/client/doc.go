// Package client talks to the filekeeper HTTP API.
//
// # Overview
//
// HTTPClient wraps an *http.Client and keeps the tokens handed out by
// Register and Login in memory. Authenticated calls send the access token
// as a bearer token; when the server answers 401 and a refresh token is
// held, the call is retried once with the refresh token.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable, a 401 that survives the retry
// maps to ErrUnauthorized, and every other non-2xx answer is returned as an
// *APIError carrying the server's detail message. Calls that need a token
// before Login or Register return ErrNotLoggedIn.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context; the configured request timeout applies to the small JSON
// calls but not to Upload and Download, which stream and are bounded only by
// the context.
package client
