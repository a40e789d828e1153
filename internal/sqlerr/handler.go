package sqlerr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/deppfellow/rsweb/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const tablePrefix = "table:"

// ErrCode reports the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError converts a raw PostgreSQL error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// WithTable tags err with the table it came from, so a no-rows error can be
// reported as "<Entity> not found".
func WithTable(table string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s%s: %w", tablePrefix, table, err)
}

// getEntityName turns a table name like "persistent_objects" into "Persistent Object".
func getEntityName(tableName string) string {
	if tableName == "" {
		return "Record"
	}
	entity := tableName
	if strings.HasSuffix(entity, "s") && len(entity) > 1 {
		entity = entity[:len(entity)-1]
	}
	return humanizeText(entity)
}

func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

func tableFromMessage(msg string) string {
	_, rest, ok := strings.Cut(msg, tablePrefix)
	if !ok {
		return ""
	}
	table, _, _ := strings.Cut(rest, ":")
	return table
}

// isUnavailable reports whether err means the store could not be reached at all.
func isUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	var netErr *net.OpError

	return errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone)
}

// HandleError converts a store error into an *errs.HTTPError.
//
//   - *errs.HTTPError: returned unchanged
//   - context deadline / cancellation: 503
//   - unreachable store: 503
//   - missing schema (postgres 42P01, sqlite "no such table"): 503
//   - constraint violations: 400
//   - pgx.ErrNoRows / sql.ErrNoRows: 404
//   - anything else: 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.NewServiceUnavailableError("Store did not respond in time", true)
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		switch sqlErr.Code {
		case UndefinedTable, UndefinedColumn:
			return errs.NewServiceUnavailableError("Store schema missing", true)
		case ConnectionFailure, QueryCanceled, InsufficientResources:
			return errs.NewServiceUnavailableError("Store unavailable", true)
		case InvalidTextRep, ForeignKeyViolation, UniqueViolation, NotNullViolation, CheckViolation:
			code := strings.ToUpper(getEntityName(sqlErr.TableName)) + "_INVALID"
			code = strings.ReplaceAll(code, " ", "_")
			return errs.NewBadRequestError(
				fmt.Sprintf("The %s request is invalid", strings.ToLower(getEntityName(sqlErr.TableName))),
				true, &code, nil, nil,
			)
		default:
			return errs.NewInternalServerError()
		}
	}

	if isUnavailable(err) {
		return errs.NewServiceUnavailableError("Store unavailable", true)
	}

	if strings.Contains(err.Error(), "no such table") {
		return errs.NewServiceUnavailableError("Store schema missing", true)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		if table := tableFromMessage(err.Error()); table != "" {
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", getEntityName(table)), true, nil)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
