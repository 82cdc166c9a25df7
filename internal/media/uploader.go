package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/config"
)

// ErrNoFile is returned when a request carries no file in the upload field.
var ErrNoFile = errors.New("no image uploaded")

// Uploader names incoming files and writes them to a Store.
type Uploader struct {
	store Store
	namer *Namer
}

const saveAttempts = 5

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, namer: NewNamer()}
}

// NewStore builds the backend selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case config.MediaMinio:
		return NewMinioStore(ctx, cfg)
	case config.MediaLocal, "":
		return NewLocalStore(cfg.Dir)
	}
	return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
}

// Save stores fh under a generated name and returns its public path,
// /media/<name>.
func (u *Uploader) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	// another process may have produced the same millisecond name
	for attempt := 0; attempt < saveAttempts; attempt++ {
		name := u.namer.Next(fh.Filename)
		err = u.store.Save(ctx, name, src, fh.Size, fh.Header.Get("Content-Type"))
		if err == nil {
			return PathPrefix + name, nil
		}
		if !errors.Is(err, ErrExists) {
			return "", err
		}
	}
	return "", err
}

// Discard removes a file previously returned by Save.  Failures are logged
// only.
func (u *Uploader) Discard(ctx context.Context, path string) {
	name, ok := NameFromPath(path)
	if !ok {
		return
	}
	if err := u.store.Remove(ctx, name); err != nil {
		log.WithError(err).WithField("file", name).Warn("remove orphaned upload")
	}
}
