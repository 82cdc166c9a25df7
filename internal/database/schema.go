package database

import (
	"context"
	"database/sql"
	"fmt"
)

// bootstrap creates the four Sigmmar tables on an empty sqlite database.
// MySQL deployments own their schema; this is never run against them.
var bootstrap = []string{
	`CREATE TABLE IF NOT EXISTS area (
		area_id INTEGER PRIMARY KEY AUTOINCREMENT,
		area_nombre TEXT,
		area_descripcion TEXT,
		area_directorio_img TEXT,
		area_estado INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS sub_area (
		sub_id INTEGER PRIMARY KEY AUTOINCREMENT,
		area_id INTEGER,
		sub_nombre TEXT,
		sub_descripcion TEXT,
		sub_directorio_img TEXT,
		sub_estado INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS login (
		log_id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_usuario TEXT,
		log_contrasena TEXT,
		log_rol TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS mensaje (
		men_id INTEGER PRIMARY KEY AUTOINCREMENT,
		men_nombre TEXT,
		men_correo TEXT,
		men_telefono TEXT,
		men_asunto TEXT,
		men_contenido TEXT,
		men_fecha TEXT
	)`,
}

// Bootstrap applies the sqlite schema.  Statements are idempotent.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range bootstrap {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
