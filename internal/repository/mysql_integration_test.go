//go:build integration

// Runs the repositories against a disposable MySQL container.  Requires a
// reachable Docker daemon:
//
//	go test -tags integration ./internal/repository -run MySQL
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/iliyamo/sigmmar-api/internal/model"
)

var mysqlSchema = []string{
	`CREATE TABLE area (
		area_id INT AUTO_INCREMENT PRIMARY KEY,
		area_nombre VARCHAR(255),
		area_descripcion TEXT,
		area_directorio_img VARCHAR(255),
		area_estado TINYINT NOT NULL DEFAULT 1
	) ENGINE=InnoDB`,
	`CREATE TABLE sub_area (
		sub_id INT AUTO_INCREMENT PRIMARY KEY,
		area_id INT NULL,
		sub_nombre VARCHAR(255),
		sub_descripcion TEXT,
		sub_directorio_img VARCHAR(255),
		sub_estado TINYINT NOT NULL DEFAULT 1,
		CONSTRAINT fk_sub_area_area FOREIGN KEY (area_id) REFERENCES area (area_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE login (
		log_id INT AUTO_INCREMENT PRIMARY KEY,
		log_usuario VARCHAR(100),
		log_contrasena VARCHAR(255),
		log_rol VARCHAR(50)
	) ENGINE=InnoDB`,
	`CREATE TABLE mensaje (
		men_id INT AUTO_INCREMENT PRIMARY KEY,
		men_nombre VARCHAR(255),
		men_correo VARCHAR(255),
		men_telefono VARCHAR(50),
		men_asunto VARCHAR(255),
		men_contenido TEXT,
		men_fecha VARCHAR(50)
	) ENGINE=InnoDB`,
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}
	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=secret",
			"MYSQL_DATABASE=sigmmar",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		t.Fatalf("could not start mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(res) })

	dsn := fmt.Sprintf("root:secret@tcp(localhost:%s)/sigmmar?charset=utf8mb4&parseTime=true&loc=UTC", res.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var err error
		if db, err = sql.Open("mysql", dsn); err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("mysql not ready: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range mysqlSchema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db
}

func TestMySQLRepositories(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()

	areas := NewAreaRepo(db)
	a := &model.NewArea{Nombre: strPtr("Matemáticas"), ImagePath: "/media/1.png", Estado: model.StatusActive}
	if err := areas.Create(ctx, a); err != nil {
		t.Fatalf("create area: %v", err)
	}
	got, err := areas.GetByID(ctx, a.ID)
	if err != nil || *got.Nombre != "Matemáticas" {
		t.Fatalf("get area: %+v %v", got, err)
	}

	subs := NewSubAreaRepo(db)
	t.Run("sub-area with existing area", func(t *testing.T) {
		s := &model.NewSubArea{AreaID: &a.ID, Nombre: strPtr("Álgebra"), ImagePath: "/media/2.png", Estado: 1}
		if err := subs.Create(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
		if res, err := subs.UpdateStatus(ctx, s.ID, model.StatusInactive); err != nil || res.AffectedRows != 1 {
			t.Fatalf("status: %+v %v", res, err)
		}
	})

	t.Run("sub-area with missing area", func(t *testing.T) {
		missing := a.ID + 1000
		s := &model.NewSubArea{AreaID: &missing, Nombre: strPtr("Huérfana"), ImagePath: "/media/3.png", Estado: 1}
		if err := subs.Create(ctx, s); !errors.Is(err, ErrAreaReference) {
			t.Fatalf("expected ErrAreaReference, got %v", err)
		}
	})

	t.Run("dynamic records", func(t *testing.T) {
		logins := NewRecordRepo(db, "login", "log_id")
		id, err := logins.Create(ctx, model.Record{"log_usuario": "ana", "log_rol": "admin"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		rec, err := logins.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec["log_usuario"] != "ana" || rec["log_id"] != id {
			t.Errorf("unexpected record %#v", rec)
		}
		if _, err := logins.Create(ctx, model.Record{"nope": "x"}); !errors.Is(err, ErrInvalidField) {
			t.Errorf("expected ErrInvalidField, got %v", err)
		}
		if res, err := logins.Delete(ctx, id); err != nil || res.AffectedRows != 1 {
			t.Errorf("delete: %+v %v", res, err)
		}
	})
}
