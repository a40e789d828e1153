// Package validation binds and validates request payloads.
//
// Payloads declare their rules with `validate` struct tags (go-playground
// validator) and failures are turned into field-level errs.FieldError values
// the client can read.
package validation
