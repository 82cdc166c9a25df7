package model

// Record is a row of a table without a fixed schema (login, mensaje).  Keys
// are column names; values are JSON scalars.
type Record map[string]any

// Result is the outcome of a write statement, returned verbatim to clients
// of update, status and delete endpoints.
type Result struct {
	AffectedRows int64 `json:"affectedRows"`
	InsertID     int64 `json:"insertId"`
}
