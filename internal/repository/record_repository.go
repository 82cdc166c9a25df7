package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/sigmmar-api/internal/model"
)

// ErrRecordNotFound is returned when a record lookup by id fails.
var ErrRecordNotFound = errors.New("record not found")

// RecordRepo serves tables whose columns are not known at compile time
// (login, mensaje).  The writable column set is read from the table once
// and every incoming record is checked against it, so column names in the
// generated SQL never come straight from a request.
type RecordRepo struct {
	db       *sql.DB
	table    string
	idColumn string

	mu      sync.Mutex
	columns map[string]bool
}

// NewRecordRepo builds a repository for table, keyed by idColumn.  Both
// names are trusted constants supplied by the caller.
func NewRecordRepo(db *sql.DB, table, idColumn string) *RecordRepo {
	return &RecordRepo{db: db, table: table, idColumn: idColumn}
}

// Columns returns the table's column set.  A successful lookup is cached
// for the life of the repository.
func (r *RecordRepo) Columns(ctx context.Context) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.columns != nil {
		return r.columns, nil
	}
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quote(r.table)+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("read %s columns: %w", r.table, err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	r.columns = cols
	return cols, nil
}

func (r *RecordRepo) List(ctx context.Context) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quote(r.table)+" ORDER BY "+quote(r.idColumn))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetByID returns ErrRecordNotFound when no row matches.
func (r *RecordRepo) GetByID(ctx context.Context, id int64) (model.Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quote(r.table)+" WHERE "+quote(r.idColumn)+" = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrRecordNotFound
	}
	return recs[0], nil
}

// Create inserts rec and returns the generated id.  A record without
// fields is rejected with ErrNoFields.
func (r *RecordRepo) Create(ctx context.Context, rec model.Record) (int64, error) {
	set, err := r.prepare(ctx, rec)
	if err != nil {
		return 0, err
	}
	if set.len() == 0 {
		return 0, ErrNoFields
	}
	quoted := make([]string, set.len())
	for i, c := range set.cols {
		quoted[i] = quote(c)
	}
	q := "INSERT INTO " + quote(r.table) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + placeholders(set.len()) + ")"
	res, err := r.db.ExecContext(ctx, q, set.args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table, err)
	}
	return res.LastInsertId()
}

// Update writes the fields of rec to the row with the given id.
func (r *RecordRepo) Update(ctx context.Context, id int64, rec model.Record) (model.Result, error) {
	set, err := r.prepare(ctx, rec)
	if err != nil {
		return model.Result{}, err
	}
	if set.len() == 0 {
		return model.Result{}, ErrNoFields
	}
	q := "UPDATE " + quote(r.table) + " SET " + set.clause() + " WHERE " + quote(r.idColumn) + " = ?"
	res, err := r.db.ExecContext(ctx, q, append(set.args, id)...)
	if err != nil {
		return model.Result{}, fmt.Errorf("update %s %d: %w", r.table, id, err)
	}
	return summarize(res)
}

func (r *RecordRepo) Delete(ctx context.Context, id int64) (model.Result, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+quote(r.table)+" WHERE "+quote(r.idColumn)+" = ?", id)
	if err != nil {
		return model.Result{}, fmt.Errorf("delete %s %d: %w", r.table, id, err)
	}
	return summarize(res)
}

// prepare validates rec against the table and returns its columns in a
// stable order with driver ready values.
func (r *RecordRepo) prepare(ctx context.Context, rec model.Record) (*setList, error) {
	cols, err := r.Columns(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := &setList{}
	for _, k := range keys {
		if k == r.idColumn {
			return nil, fmt.Errorf("%w: %s is read-only", ErrInvalidField, k)
		}
		if !cols[k] {
			return nil, fmt.Errorf("%w: unknown field %s", ErrInvalidField, k)
		}
		v, ok := driverValue(rec[k])
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string, number, boolean or null", ErrInvalidField, k)
		}
		set.add(k, v)
	}
	return set, nil
}

// driverValue maps a decoded JSON scalar onto a value database/sql accepts.
func driverValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, true
	case int:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		return f, err == nil
	}
	return nil, false
}

// scanRecords reads every row into a column-keyed map.  Text protocol
// values arrive as bytes; numeric columns are converted back to numbers
// so JSON output keeps their type.
func scanRecords(rows *sql.Rows) ([]model.Record, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := []model.Record{}
	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(model.Record, len(types))
		for i, ct := range types {
			rec[ct.Name()] = columnValue(vals[i], ct.DatabaseTypeName())
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	t := strings.ToUpper(dbType)
	switch {
	case strings.Contains(t, "INT"):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case strings.Contains(t, "DECIMAL"), strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"), t == "REAL":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
