// Package middleware holds the echo middleware wrapped around every route:
// request ids, the request-scoped logger, New Relic tracing, prometheus
// request metrics, per-IP rate limiting, CORS, panic recovery and the global
// error handler.
package middleware
