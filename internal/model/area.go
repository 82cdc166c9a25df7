package model

// Status values shared by areas and sub-areas.
const (
	StatusInactive = 0
	StatusActive   = 1
)

// ValidStatus reports whether s is one of the two status flag values.
func ValidStatus(s int) bool {
	return s == StatusInactive || s == StatusActive
}

// Area mirrors a row of the `area` table.  Nullable text columns are
// pointers so that NULL round-trips as JSON null.
//
// Fields:
//  ID          – area_id, assigned by the database.
//  Nombre      – display name.
//  Descripcion – free text description.
//  ImagePath   – /media/<file> of the uploaded image.
//  Estado      – status flag, 1 active / 0 inactive.
type Area struct {
	ID          int64   `json:"area_id"`
	Nombre      *string `json:"area_nombre"`
	Descripcion *string `json:"area_descripcion"`
	ImagePath   *string `json:"area_directorio_img"`
	Estado      int     `json:"area_estado"`
}

// NewArea is the record written by a create request.  The JSON form is the
// create response: the new id plus the inserted fields.
type NewArea struct {
	ID          int64   `json:"id"`
	Nombre      *string `json:"area_nombre"`
	Descripcion *string `json:"area_descripcion"`
	ImagePath   string  `json:"area_directorio_img"`
	Estado      int     `json:"area_estado"`
}

// AreaUpdate carries the fields of an update request.  Nil fields are left
// out of the UPDATE statement.
type AreaUpdate struct {
	Nombre      *string
	Descripcion *string
	ImagePath   *string
}

// Empty reports whether the update touches no column.
func (u AreaUpdate) Empty() bool {
	return u.Nombre == nil && u.Descripcion == nil && u.ImagePath == nil
}
