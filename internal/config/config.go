package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt formats the missing-variable error
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings joins the list of missing keys

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	LogLevel       string // zap level: debug, info, warn, error
	LogFormat      string // json or console
	MediaRoot      string // directory uploaded images are written to
	MediaURL       string // URL prefix under which MediaRoot is served

	EventsConsumer bool   // run the order.created consumer inside the server process
	EventsLogDir   string // directory the consumer appends orders.log to
}

// LoadDotEnv loads variables from a .env file in the working directory.  A
// missing file is not an error; variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads configuration values from environment variables and returns a
// Config.  Every required variable that is unset or empty is reported in
// the returned error so operators can fix them all at once.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:       must("APP_ENV"),      // environment (dev/test/prod)
		Port:      must("APP_PORT"),     // port to bind the HTTP server
		DBUser:    must("DB_USER"),      // database user
		DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:    must("DB_HOST"),      // database host
		DBPort:    must("DB_PORT"),      // database port
		DBName:    must("DB_NAME"),      // database name
		JWTSecret: must("JWT_SECRET"),   // secret used for signing JWTs

		LogLevel:     envStr("LOG_LEVEL", "info"),
		LogFormat:    envStr("LOG_FORMAT", "json"),
		MediaRoot:    envStr("MEDIA_ROOT", "media"),
		MediaURL:     envStr("MEDIA_URL", "/media/"),
		EventsLogDir: envStr("EVENTS_LOG_DIR", "logs"),

		EventsConsumer: envBool("EVENTS_CONSUMER_ENABLED", false),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.AccessTTLMin, err = positiveInt("ACCESS_TOKEN_TTL_MIN", 30); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTLDays, err = positiveInt("REFRESH_TOKEN_TTL_DAYS", 1); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = positiveInt("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}
	return cfg, nil
}

// positiveInt is like envInt but rejects values that are set yet unparsable
// or not positive instead of silently falling back to the default.
func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}
