package repository

import (
	"database/sql"
	"strings"

	"github.com/iliyamo/sigmmar-api/internal/model"
)

// setList accumulates the "col = ?" pairs of a partial UPDATE.  Column
// names are never taken from user input without being checked against
// the table first.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.cols = append(s.cols, col)
	s.args = append(s.args, v)
}

func (s *setList) len() int { return len(s.cols) }

func (s *setList) clause() string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = quote(c) + " = ?"
	}
	return strings.Join(parts, ", ")
}

// quote wraps an identifier in backticks; both MySQL and sqlite accept it.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// summarize converts a driver result of an UPDATE or DELETE into the
// summary returned to clients.
func summarize(res sql.Result) (model.Result, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{AffectedRows: n}, nil
}
