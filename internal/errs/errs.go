// Package errs defines the error types returned to HTTP clients.
//
// Every handler error is eventually converted into an HTTPError by the
// global error handler, so clients always see the same JSON shape:
// a stable code, a message, the status and optional field errors.
package errs
