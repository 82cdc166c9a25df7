// Package repository contains data access logic separated from HTTP handlers.
// This file holds the queries of the `area` table.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/sigmmar-api/internal/model"
)

// ErrAreaNotFound is returned when an area cannot be found in the DB.
var ErrAreaNotFound = errors.New("area not found")

const areaColumns = "area_id, area_nombre, area_descripcion, area_directorio_img, area_estado"

// AreaRepo encapsulates all database queries related to areas.
type AreaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewAreaRepo constructs an AreaRepo with the provided DB handle.
func NewAreaRepo(db *sql.DB) *AreaRepo {
	return &AreaRepo{db: db}
}

// List returns every area in id order.  The slice is empty, not nil, when
// the table has no rows.
func (r *AreaRepo) List(ctx context.Context) ([]*model.Area, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+areaColumns+" FROM area ORDER BY area_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Area{}
	for rows.Next() {
		a := new(model.Area)
		if err := rows.Scan(&a.ID, &a.Nombre, &a.Descripcion, &a.ImagePath, &a.Estado); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one area.  It returns ErrAreaNotFound if no row matches.
func (r *AreaRepo) GetByID(ctx context.Context, id int64) (*model.Area, error) {
	var a model.Area
	err := r.db.QueryRowContext(ctx, "SELECT "+areaColumns+" FROM area WHERE area_id = ?", id).
		Scan(&a.ID, &a.Nombre, &a.Descripcion, &a.ImagePath, &a.Estado)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAreaNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new area.  On success a.ID holds the generated id.
func (r *AreaRepo) Create(ctx context.Context, a *model.NewArea) error {
	const q = `INSERT INTO area (area_nombre, area_descripcion, area_directorio_img, area_estado)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.Nombre, a.Descripcion, a.ImagePath, a.Estado)
	if err != nil {
		return fmt.Errorf("insert area: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// Update writes only the fields present in u.  It returns ErrNoFields when
// u is empty.  A missing id is not an error: the summary reports zero rows.
func (r *AreaRepo) Update(ctx context.Context, id int64, u model.AreaUpdate) (model.Result, error) {
	var set setList
	if u.Nombre != nil {
		set.add("area_nombre", *u.Nombre)
	}
	if u.Descripcion != nil {
		set.add("area_descripcion", *u.Descripcion)
	}
	if u.ImagePath != nil {
		set.add("area_directorio_img", *u.ImagePath)
	}
	if set.len() == 0 {
		return model.Result{}, ErrNoFields
	}
	res, err := r.db.ExecContext(ctx, "UPDATE area SET "+set.clause()+" WHERE area_id = ?", append(set.args, id)...)
	if err != nil {
		return model.Result{}, fmt.Errorf("update area %d: %w", id, err)
	}
	return summarize(res)
}

// UpdateStatus changes only the status column.
func (r *AreaRepo) UpdateStatus(ctx context.Context, id int64, estado int) (model.Result, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE area SET area_estado = ? WHERE area_id = ?", estado, id)
	if err != nil {
		return model.Result{}, fmt.Errorf("update area %d status: %w", id, err)
	}
	return summarize(res)
}

// Delete removes an area.  Deleting a missing id affects zero rows.
func (r *AreaRepo) Delete(ctx context.Context, id int64) (model.Result, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM area WHERE area_id = ?", id)
	if err != nil {
		return model.Result{}, fmt.Errorf("delete area %d: %w", id, err)
	}
	return summarize(res)
}
