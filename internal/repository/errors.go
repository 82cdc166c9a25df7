// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish
// between client mistakes and database failures without inspecting
// driver specific errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNoFields is returned when a write carries no column to set.
// Handlers should translate this into an HTTP 400 response.
var ErrNoFields = errors.New("no fields to write")

// ErrInvalidField is returned when a record names a column the table does
// not have, tries to write the id column, or carries a non scalar value.
// It is always wrapped with the offending field name.
var ErrInvalidField = errors.New("invalid field")

// ErrAreaReference is returned when the database rejects a sub-area whose
// area_id points at no area. Handlers should translate this into 409.
var ErrAreaReference = errors.New("referenced area does not exist")

// mysqlFKViolation is ER_NO_REFERENCED_ROW_2.
const mysqlFKViolation = 1452

func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlFKViolation
}
