package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Durations are derived from integer env
// values so .env files stay simple.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	BcryptCost       int           // bcrypt cost for password hashing
	SessionTTL       time.Duration // absolute session lifetime
	OTPRegisterTTL   time.Duration // registration code lifetime
	OTPDeleteTTL     time.Duration // deletion code lifetime
	LoginMaxFailed   int           // failed attempts allowed inside the window
	LoginBlockWindow time.Duration // trailing window for counting failures
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Tunables with safe
// defaults use intOr().
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		SessionTTL:       time.Duration(intOr("SESSION_TTL_HOURS", 24)) * time.Hour,
		OTPRegisterTTL:   time.Duration(intOr("OTP_REGISTER_TTL_MIN", 10)) * time.Minute,
		OTPDeleteTTL:     time.Duration(intOr("OTP_DELETE_TTL_MIN", 5)) * time.Minute,
		LoginMaxFailed:   intOr("LOGIN_MAX_FAILED", 5),
		LoginBlockWindow: time.Duration(intOr("LOGIN_BLOCK_WINDOW_MIN", 30)) * time.Minute,
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr returns the integer value of an env var, or def when unset or
// malformed.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}
