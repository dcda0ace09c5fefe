package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log" // log is used to report configuration errors and halt execution
	"net"
	"os" // os provides access to environment variables
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The JWT secret is shared with the external
// authentication service that issues the tokens this core verifies.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	DBMaxConns     int           // connection pool size (open and idle)
	DBConnLifetime time.Duration // maximum lifetime of a pooled connection
	JWTSecret      string        // secret used to verify bearer tokens
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),      // environment (dev/test/prod)
		Port:           must("APP_PORT"),     // port to bind the HTTP server
		DBUser:         must("DB_USER"),      // database user
		DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:         must("DB_HOST"),      // database host
		DBPort:         must("DB_PORT"),      // database port
		DBName:         must("DB_NAME"),      // database name
		DBMaxConns:     envInt("DB_MAX_CONNS", 25),
		DBConnLifetime: envDur("DB_CONN_LIFETIME", 30*time.Minute),
		JWTSecret:      must("JWT_SECRET"), // shared token-verification secret
	}
}

// DSN builds the MySQL connection string from the DB fields.  parseTime
// maps DATETIME columns onto time.Time, and loc=UTC pins departure times
// and payment timestamps to one zone regardless of the server setting.
func (c Config) DSN() string {
	cred := c.DBUser
	if c.DBPass != "" {
		cred = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	addr := net.JoinHostPort(c.DBHost, c.DBPort)
	return fmt.Sprintf("%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC", cred, addr, c.DBName)
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
