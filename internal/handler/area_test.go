package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var imagePath = regexp.MustCompile(`^/media/\d+\.png$`)

func createArea(t *testing.T, f *fixture, nombre, descripcion string) map[string]any {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/areas",
		map[string]string{"area_nombre": nombre, "area_descripcion": descripcion},
		"area_img", "portada.png", []byte("\x89PNG-area"))
	rec := f.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create area: %d %s", rec.Code, rec.Body.String())
	}
	return decode[map[string]any](t, rec)
}

func TestAreaRoundTrip(t *testing.T) {
	f := newFixture(t)
	created := createArea(t, f, "Matemáticas", "Álgebra, cálculo y geometría")

	id := created["id"].(float64)
	if id < 1 {
		t.Fatalf("unexpected id %v", created["id"])
	}
	img, _ := created["area_directorio_img"].(string)
	if !imagePath.MatchString(img) {
		t.Fatalf("unexpected image path %q", img)
	}
	if created["area_estado"] != float64(1) {
		t.Fatalf("expected status 1, got %v", created["area_estado"])
	}
	if _, err := os.Stat(filepath.Join(f.mediaDir, strings.TrimPrefix(img, "/media/"))); err != nil {
		t.Fatalf("uploaded file not stored: %v", err)
	}

	rec := f.do(jsonRequest(http.MethodGet, fmt.Sprintf("/areas/%d", int(id)), ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[map[string]any](t, rec)
	want := map[string]any{
		"area_id":             id,
		"area_nombre":         "Matemáticas",
		"area_descripcion":    "Álgebra, cálculo y geometría",
		"area_directorio_img": img,
		"area_estado":         float64(1),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}

	rec = f.do(jsonRequest(http.MethodGet, "/media/"+strings.TrimPrefix(img, "/media/"), ""))
	if rec.Code != http.StatusOK || rec.Body.String() != "\x89PNG-area" {
		t.Fatalf("media: %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("media content type %q", ct)
	}

	if acts := f.events.actions(); len(acts) != 1 || acts[0] != "area:created" {
		t.Errorf("unexpected events %v", acts)
	}
}

func TestAreaCreateWithoutFile(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, http.MethodPost, "/areas", map[string]string{"area_nombre": "Sin imagen"}, "", "", nil)
	expectError(t, f.do(req), http.StatusBadRequest, "no image uploaded")

	expectError(t, f.do(jsonRequest(http.MethodPost, "/areas", `{"area_nombre":"JSON"}`)),
		http.StatusBadRequest, "no image uploaded")

	rec := f.do(jsonRequest(http.MethodGet, "/areas", ""))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected no rows, got %d %s", rec.Code, rec.Body.String())
	}
	entries, _ := os.ReadDir(f.mediaDir)
	if len(entries) != 0 {
		t.Errorf("no file should be stored, found %d", len(entries))
	}
	if len(f.events.actions()) != 0 {
		t.Errorf("failed creates must not publish events")
	}
}

func TestAreaUpdate(t *testing.T) {
	f := newFixture(t)
	created := createArea(t, f, "Física", "Mecánica")
	id := int(created["id"].(float64))
	img := created["area_directorio_img"].(string)

	rec := f.do(jsonRequest(http.MethodPut, fmt.Sprintf("/areas/%d", id), `{"area_descripcion":"Óptica"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if res := decode[map[string]any](t, rec); res["affectedRows"] != float64(1) {
		t.Fatalf("unexpected summary %v", res)
	}
	got := decode[map[string]any](t, f.do(jsonRequest(http.MethodGet, fmt.Sprintf("/areas/%d", id), "")))
	if got["area_nombre"] != "Física" || got["area_descripcion"] != "Óptica" || got["area_directorio_img"] != img {
		t.Fatalf("unexpected area after JSON update %v", got)
	}

	req := multipartRequest(t, http.MethodPut, fmt.Sprintf("/areas/%d", id),
		map[string]string{"area_nombre": "Física moderna"}, "area_img", "nueva.png", []byte("new"))
	if rec := f.do(req); rec.Code != http.StatusOK {
		t.Fatalf("multipart update: %d %s", rec.Code, rec.Body.String())
	}
	got = decode[map[string]any](t, f.do(jsonRequest(http.MethodGet, fmt.Sprintf("/areas/%d", id), "")))
	newImg, _ := got["area_directorio_img"].(string)
	if newImg == img || !imagePath.MatchString(newImg) {
		t.Fatalf("image not replaced: %q", newImg)
	}
	if got["area_nombre"] != "Física moderna" || got["area_estado"] != float64(1) {
		t.Fatalf("unexpected area after multipart update %v", got)
	}

	expectError(t, f.do(jsonRequest(http.MethodPut, fmt.Sprintf("/areas/%d", id), `{}`)),
		http.StatusBadRequest, "no fields to update")
	expectError(t, f.do(jsonRequest(http.MethodPut, fmt.Sprintf("/areas/%d", id), `{"area_directorio_img":"/etc/passwd"}`)),
		http.StatusBadRequest, "no fields to update")
	expectError(t, f.do(jsonRequest(http.MethodPut, fmt.Sprintf("/areas/%d", id), `{bad`)),
		http.StatusBadRequest, "invalid request body")
}

func TestAreaUpdateMissingIDDropsUpload(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, http.MethodPut, "/areas/999",
		map[string]string{"area_nombre": "Nadie"}, "area_img", "huerfana.png", []byte("orphan"))
	rec := f.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if res := decode[map[string]any](t, rec); res["affectedRows"] != float64(0) {
		t.Fatalf("unexpected summary %v", res)
	}
	if entries, _ := os.ReadDir(f.mediaDir); len(entries) != 0 {
		t.Fatalf("upload for a missing area was kept: %d files", len(entries))
	}
}

func TestAreaStatusOnlyChangesStatus(t *testing.T) {
	f := newFixture(t)
	created := createArea(t, f, "Química", "Orgánica")
	path := fmt.Sprintf("/areas/%d", int(created["id"].(float64)))

	before := f.do(jsonRequest(http.MethodGet, path, "")).Body.String()
	rec := f.do(jsonRequest(http.MethodPut, path+"/estado", `{"area_estado":0}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	after := f.do(jsonRequest(http.MethodGet, path, "")).Body.String()

	wantAfter := strings.Replace(before, `"area_estado":1`, `"area_estado":0`, 1)
	if after != wantAfter {
		t.Fatalf("status update changed more than the status:\nbefore %s\nafter  %s", before, after)
	}

	if rec := f.do(jsonRequest(http.MethodPut, path+"/estado", `{"area_estado":1.0}`)); rec.Code != http.StatusOK {
		t.Fatalf("status 1.0: %d %s", rec.Code, rec.Body.String())
	}
	expectError(t, f.do(jsonRequest(http.MethodPut, path+"/estado", `{"area_estado":0.5}`)),
		http.StatusBadRequest, "area_estado must be 0 or 1")
	expectError(t, f.do(jsonRequest(http.MethodPut, path+"/estado", `{"area_estado":2}`)),
		http.StatusBadRequest, "area_estado must be 0 or 1")
	expectError(t, f.do(jsonRequest(http.MethodPut, path+"/estado", `{}`)),
		http.StatusBadRequest, "area_estado must be 0 or 1")
}

func TestAreaDeleteTwice(t *testing.T) {
	f := newFixture(t)
	created := createArea(t, f, "Historia", "Universal")
	path := fmt.Sprintf("/areas/%d", int(created["id"].(float64)))

	for i, want := range []float64{1, 0} {
		rec := f.do(jsonRequest(http.MethodDelete, path, ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("delete %d: %d %s", i, rec.Code, rec.Body.String())
		}
		if res := decode[map[string]any](t, rec); res["affectedRows"] != want {
			t.Fatalf("delete %d: affectedRows %v, want %v", i, res["affectedRows"], want)
		}
	}
	expectError(t, f.do(jsonRequest(http.MethodGet, path, "")), http.StatusNotFound, "area not found")
}

func TestAreaInvalidID(t *testing.T) {
	f := newFixture(t)
	for _, req := range []*http.Request{
		jsonRequest(http.MethodGet, "/areas/abc", ""),
		jsonRequest(http.MethodPut, "/areas/0", `{"area_nombre":"x"}`),
		jsonRequest(http.MethodPut, "/areas/-1/estado", `{"area_estado":1}`),
		jsonRequest(http.MethodDelete, "/areas/1.5", ""),
	} {
		expectError(t, f.do(req), http.StatusBadRequest, "invalid id")
	}
}
