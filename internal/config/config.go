package config // package config loads application configuration from environment variables

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Driver names accepted in DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config holds the core runtime configuration.  Concern specific settings
// (media, cache, rate limiting, events, logging) live in their own loaders.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBDriver          string        // mysql or sqlite3
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name, or file path for sqlite3
	DBMaxOpenConns    int           // pool size
	DBMaxIdleConns    int           // idle connections kept in the pool
	DBConnMaxLifetime time.Duration // recycle connections after this long
	DBQueryTimeout    time.Duration // upper bound for a single statement

	CORSOrigins []string // allowed CORS origins

	LoginHashFields []string // login columns stored as bcrypt hashes
	BcryptCost      int      // bcrypt cost for hashed login columns
}

// Load reads an optional .env file and then the environment.  Required
// variables are enforced by must() and missing values stop the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env file")
	}

	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		Port:              envStr("APP_PORT", "3000"),
		DBDriver:          envStr("DB_DRIVER", DriverMySQL),
		DBPass:            os.Getenv("DB_PASS"),
		DBPort:            envStr("DB_PORT", "3306"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBQueryTimeout:    envDur("DB_QUERY_TIMEOUT", 5*time.Second),
		CORSOrigins:       envList("CORS_ORIGINS", "*"),
		LoginHashFields:   envList("LOGIN_HASH_FIELDS", ""),
		BcryptCost:        envInt("BCRYPT_COST", 10),
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBHost = must("DB_HOST")
		cfg.DBUser = must("DB_USER")
	case DriverSQLite:
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}
