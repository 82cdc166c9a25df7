package media

import (
	"regexp"
	"sync"
	"testing"
	"time"
)

func TestNamerSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	n := &Namer{now: func() time.Time { return fixed }}

	a := n.Next("foto.png")
	b := n.Next("foto.png")
	if a != "1700000000000.png" {
		t.Fatalf("first name = %q", a)
	}
	if b != "1700000000001.png" {
		t.Fatalf("second name = %q", b)
	}
}

func TestNamerConcurrentUnique(t *testing.T) {
	n := NewNamer()
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := n.Next("x.jpg")
			mu.Lock()
			defer mu.Unlock()
			if seen[name] {
				t.Errorf("duplicate name %s", name)
			}
			seen[name] = true
		}()
	}
	wg.Wait()
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"a.png":          ".png",
		"photo.JPEG":     ".JPEG",
		"archive.tar.gz": ".gz",
		"noext":          "",
		"bad.p/ng":       "",
		"evil.ph p":      "",
		"dot.":           "",
	}
	for in, want := range cases {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
	name := NewNamer().Next("portada.webp")
	if !regexp.MustCompile(`^\d+\.webp$`).MatchString(name) {
		t.Errorf("unexpected name %q", name)
	}
}

func TestValidName(t *testing.T) {
	for _, ok := range []string{"1700000000000.png", "abc"} {
		if !ValidName(ok) {
			t.Errorf("%q should be valid", ok)
		}
	}
	for _, bad := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`, ".env", "x..png"} {
		if ValidName(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestNameFromPath(t *testing.T) {
	if name, ok := NameFromPath("/media/17.png"); !ok || name != "17.png" {
		t.Errorf("got %q %v", name, ok)
	}
	if _, ok := NameFromPath("/etc/17.png"); ok {
		t.Error("paths outside /media must be rejected")
	}
	if _, ok := NameFromPath("/media/../17.png"); ok {
		t.Error("traversal must be rejected")
	}
}
