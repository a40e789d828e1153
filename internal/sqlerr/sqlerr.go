// Package sqlerr translates store driver errors into HTTP errors.
//
// Both store backends (pgx for PostgreSQL and database/sql for SQLite) report
// failures in their own vocabulary. HandleError folds them into the errs
// taxonomy so a dead database reads as 503 and a missing row as 404.
package sqlerr

import "fmt"

// Code is a driver-independent error category.
type Code string

const (
	Other                 Code = "other"
	ConnectionFailure     Code = "connection_failure"
	QueryCanceled         Code = "query_canceled"
	InsufficientResources Code = "insufficient_resources"
	UndefinedTable        Code = "undefined_table"
	UndefinedColumn       Code = "undefined_column"
	InvalidTextRep        Code = "invalid_text_representation"
	ForeignKeyViolation   Code = "foreign_key_violation"
	UniqueViolation       Code = "unique_violation"
	NotNullViolation      Code = "not_null_violation"
	CheckViolation        Code = "check_violation"
)

// Severity mirrors the PostgreSQL severity levels.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a normalized database error.
type Error struct {
	Code     Code
	Severity Severity

	// DatabaseCode is the raw SQLSTATE.
	DatabaseCode string
	Message      string

	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a SQLSTATE onto a Code. Whole classes are matched where the
// individual codes do not matter to callers.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "42P01":
		return UndefinedTable
	case "42703":
		return UndefinedColumn
	case "22P02":
		return InvalidTextRep
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "57014":
		return QueryCanceled
	case "57P01", "57P02", "57P03":
		return ConnectionFailure
	}

	if len(sqlState) >= 2 {
		switch sqlState[:2] {
		case "08":
			return ConnectionFailure
		case "53":
			return InsufficientResources
		}
	}

	return Other
}

// MapSeverity maps the severity string reported by PostgreSQL.
func MapSeverity(severity string) Severity {
	switch Severity(severity) {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return Severity(severity)
	default:
		return SeverityError
	}
}
