package config

import log "github.com/sirupsen/logrus"

// Media backends accepted in MEDIA_BACKEND.
const (
	MediaLocal = "local"
	MediaMinio = "minio"
)

// MediaConfig describes where uploaded images are stored and how large an
// upload may be.  MaxBytes uses echo's BodyLimit syntax (e.g. "10M").
type MediaConfig struct {
	Backend  string
	Dir      string
	MaxBytes string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	Bucket      string
}

// LoadMediaConfig reads the MEDIA_* variables.  The MinIO settings are only
// required when MEDIA_BACKEND=minio.
func LoadMediaConfig() MediaConfig {
	cfg := MediaConfig{
		Backend:  envStr("MEDIA_BACKEND", MediaLocal),
		Dir:      envStr("MEDIA_DIR", "media"),
		MaxBytes: envStr("MEDIA_MAX_BYTES", "10M"),
	}
	switch cfg.Backend {
	case MediaLocal:
	case MediaMinio:
		cfg.S3Endpoint = must("MEDIA_S3_ENDPOINT")
		cfg.S3AccessKey = must("MEDIA_S3_ACCESS_KEY")
		cfg.S3SecretKey = must("MEDIA_S3_SECRET_KEY")
		cfg.Bucket = must("MEDIA_BUCKET")
	default:
		log.Fatalf("unsupported MEDIA_BACKEND: %q", cfg.Backend)
	}
	return cfg
}
