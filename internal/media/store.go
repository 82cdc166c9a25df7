// Package media stores uploaded images and serves them back under /media.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// PathPrefix is the public URL prefix stored files are served under.
const PathPrefix = "/media/"

// ErrNotFound is returned by Open when no stored file has the given name.
var ErrNotFound = errors.New("media file not found")

// ErrExists is returned by Save when the name is already taken.
var ErrExists = errors.New("media file already exists")

// ErrInvalidName is returned for names that are not a single path element.
var ErrInvalidName = errors.New("invalid media file name")

// Object is an opened stored file.  Callers must Close it.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store is a flat namespace of uploaded files.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
	Remove(ctx context.Context, name string) error
}

// Namer generates `<epoch-millis><ext>` file names.  Names handed out by
// one Namer are strictly increasing: when two uploads land in the same
// millisecond the second one is pushed to the next millisecond.
type Namer struct {
	last atomic.Int64
	now  func() time.Time
}

func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// Next returns a fresh name carrying the extension of original.
func (n *Namer) Next(original string) string {
	ms := n.now().UnixMilli()
	for {
		prev := n.last.Load()
		next := ms
		if next <= prev {
			next = prev + 1
		}
		if n.last.CAS(prev, next) {
			return strconv.FormatInt(next, 10) + extension(original)
		}
	}
}

// extension returns the extension of name, dot included, or "" when it
// holds anything but ASCII letters and digits.
func extension(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// ValidName reports whether name can address a stored file.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// NameFromPath strips PathPrefix from a public path.  It reports false
// for paths that do not point into the media store.
func NameFromPath(p string) (string, bool) {
	if !strings.HasPrefix(p, PathPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(p, PathPrefix)
	return name, ValidName(name)
}
