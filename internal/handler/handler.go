// Package handler is the HTTP layer between the router and the services.
//
// Handlers bind and validate the request through the validation package,
// call the scene service and hand the result to a response handler that
// renders an HTML page or writes raw bytes.
package handler
