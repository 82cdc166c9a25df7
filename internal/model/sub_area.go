package model

// SubArea mirrors a row of the `sub_area` table.  AreaID references an
// area but the reference is not checked by the application.
type SubArea struct {
	ID          int64   `json:"sub_id"`
	AreaID      *int64  `json:"area_id"`
	Nombre      *string `json:"sub_nombre"`
	Descripcion *string `json:"sub_descripcion"`
	ImagePath   *string `json:"sub_directorio_img"`
	Estado      int     `json:"sub_estado"`
}

// NewSubArea is the record written by a create request and its response.
type NewSubArea struct {
	ID          int64   `json:"id"`
	AreaID      *int64  `json:"area_id"`
	Nombre      *string `json:"sub_nombre"`
	Descripcion *string `json:"sub_descripcion"`
	ImagePath   string  `json:"sub_directorio_img"`
	Estado      int     `json:"sub_estado"`
}

// SubAreaUpdate carries the provided fields of an update request.
type SubAreaUpdate struct {
	AreaID      *int64
	Nombre      *string
	Descripcion *string
	ImagePath   *string
}

func (u SubAreaUpdate) Empty() bool {
	return u.AreaID == nil && u.Nombre == nil && u.Descripcion == nil && u.ImagePath == nil
}
