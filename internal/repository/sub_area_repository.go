package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/sigmmar-api/internal/model"
)

// ErrSubAreaNotFound is returned when a sub-area lookup fails.
var ErrSubAreaNotFound = errors.New("sub-area not found")

const subAreaColumns = "sub_id, area_id, sub_nombre, sub_descripcion, sub_directorio_img, sub_estado"

// SubAreaRepo provides the queries of the `sub_area` table.  The area_id
// reference is stored as given; only a database foreign key can reject it.
type SubAreaRepo struct {
	db *sql.DB
}

func NewSubAreaRepo(db *sql.DB) *SubAreaRepo {
	return &SubAreaRepo{db: db}
}

func scanSubArea(row interface{ Scan(...any) error }, s *model.SubArea) error {
	return row.Scan(&s.ID, &s.AreaID, &s.Nombre, &s.Descripcion, &s.ImagePath, &s.Estado)
}

func (r *SubAreaRepo) List(ctx context.Context) ([]*model.SubArea, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+subAreaColumns+" FROM sub_area ORDER BY sub_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.SubArea{}
	for rows.Next() {
		s := new(model.SubArea)
		if err := scanSubArea(rows, s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns ErrSubAreaNotFound when no row matches.
func (r *SubAreaRepo) GetByID(ctx context.Context, id int64) (*model.SubArea, error) {
	var s model.SubArea
	if err := scanSubArea(r.db.QueryRowContext(ctx, "SELECT "+subAreaColumns+" FROM sub_area WHERE sub_id = ?", id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubAreaNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a sub-area and stores the generated id in s.ID.
func (r *SubAreaRepo) Create(ctx context.Context, s *model.NewSubArea) error {
	const q = `INSERT INTO sub_area (area_id, sub_nombre, sub_descripcion, sub_directorio_img, sub_estado)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.AreaID, s.Nombre, s.Descripcion, s.ImagePath, s.Estado)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAreaReference
		}
		return fmt.Errorf("insert sub-area: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// Update writes only the fields present in u.
func (r *SubAreaRepo) Update(ctx context.Context, id int64, u model.SubAreaUpdate) (model.Result, error) {
	var set setList
	if u.AreaID != nil {
		set.add("area_id", *u.AreaID)
	}
	if u.Nombre != nil {
		set.add("sub_nombre", *u.Nombre)
	}
	if u.Descripcion != nil {
		set.add("sub_descripcion", *u.Descripcion)
	}
	if u.ImagePath != nil {
		set.add("sub_directorio_img", *u.ImagePath)
	}
	if set.len() == 0 {
		return model.Result{}, ErrNoFields
	}
	res, err := r.db.ExecContext(ctx, "UPDATE sub_area SET "+set.clause()+" WHERE sub_id = ?", append(set.args, id)...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Result{}, ErrAreaReference
		}
		return model.Result{}, fmt.Errorf("update sub-area %d: %w", id, err)
	}
	return summarize(res)
}

func (r *SubAreaRepo) UpdateStatus(ctx context.Context, id int64, estado int) (model.Result, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE sub_area SET sub_estado = ? WHERE sub_id = ?", estado, id)
	if err != nil {
		return model.Result{}, fmt.Errorf("update sub-area %d status: %w", id, err)
	}
	return summarize(res)
}

func (r *SubAreaRepo) Delete(ctx context.Context, id int64) (model.Result, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sub_area WHERE sub_id = ?", id)
	if err != nil {
		return model.Result{}, fmt.Errorf("delete sub-area %d: %w", id, err)
	}
	return summarize(res)
}
