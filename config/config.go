// Package config provides configuration management for the opledger service.
// Values come from environment variables (a `.env` file is loaded by main via godotenv),
// optionally seeded from a flat YAML file named by CONFIG_FILE. Environment variables
// always win over the file. All problems are collected and reported together so a
// misconfigured deployment fails once, with the full list.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// minSecretLen is the shortest HMAC secret accepted for signing tokens.
const minSecretLen = 16

// bcryptMaxPasswordBytes is the hard input limit of bcrypt.
const bcryptMaxPasswordBytes = 72

// DatabaseConfig holds the PostgreSQL connection settings.
// URL, when set, takes precedence over the individual fields.
type DatabaseConfig struct {
	URL           string
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	MaxSize       int
	RunMigrations bool
}

// DSN returns a postgres:// connection string usable by both pgx and golang-migrate.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName,
	)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // Lifetime of an issued token
	BcryptCost    int           // Work factor for password hashing
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	// StreamHeartbeat is the keep-alive interval of the operation feed.
	StreamHeartbeat    time.Duration
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// PolicyConfig is the credential validation policy applied at registration.
type PolicyConfig struct {
	UsernameMinLen int
	UsernameMaxLen int
	PasswordMinLen int
	PasswordMaxLen int
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
	Log      *LogConfig
	Policy   *PolicyConfig
}

// loader looks keys up in the environment first and in the optional file second.
// Problems are appended to errs instead of aborting on the first one.
type loader struct {
	file map[string]string
	errs []string
}

func (l *loader) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := l.file[key]
	return v, ok
}

func (l *loader) addErr(format string, args ...any) {
	l.errs = append(l.errs, fmt.Sprintf(format, args...))
}

func (l *loader) required(key string) string {
	value, ok := l.lookup(key)
	if !ok || value == "" {
		l.addErr("missing required environment variable: %s", key)
		return ""
	}
	return value
}

func (l *loader) optional(key, defaultValue string) string {
	if value, ok := l.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (l *loader) optionalInt(key string, defaultValue int) int {
	valueStr, ok := l.lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		l.addErr("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return value
}

func (l *loader) optionalBool(key string, defaultValue bool) bool {
	valueStr, ok := l.lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		l.addErr("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return value
}

// `time.ParseDuration` expects a string like "15m", "24h".
func (l *loader) optionalDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, ok := l.lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		l.addErr("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return value
}

func (l *loader) optionalList(key string, defaultValue []string) []string {
	valueStr, ok := l.lookup(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readFile parses a flat YAML mapping of KEY: value pairs.
// Non-string scalars are accepted and converted, e.g. `DB_PORT: 5432`.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// LoadConfig creates and returns an AppConfig by reading and validating the environment.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	l := &loader{}

	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		l.file = file
	}

	db := &DatabaseConfig{
		URL:           l.optional("DATABASE_URL", ""),
		Host:          l.optional("DB_HOST", "localhost"),
		Port:          l.optionalInt("DB_PORT", 5432),
		MaxSize:       l.optionalInt("DB_POOL_SIZE", 10),
		RunMigrations: l.optionalBool("RUN_MIGRATIONS", true),
	}
	if db.URL == "" {
		db.User = l.required("DB_USER")
		db.Password = l.required("DB_PASSWORD")
		db.DBName = l.required("DB_NAME")
	}
	if db.MaxSize < 1 || db.MaxSize > 100 {
		l.addErr("DB_POOL_SIZE must be between 1 and 100, got %d", db.MaxSize)
	}

	auth := &AuthConfig{
		JWTSecret:     l.required("JWT_SECRET"),
		TokenDuration: l.optionalDuration("JWT_TOKEN_DURATION", 24*time.Hour),
		BcryptCost:    l.optionalInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
	if auth.JWTSecret != "" && len(auth.JWTSecret) < minSecretLen {
		l.addErr("JWT_SECRET must be at least %d bytes long", minSecretLen)
	}
	if auth.TokenDuration <= 0 {
		l.addErr("JWT_TOKEN_DURATION must be positive, got %s", auth.TokenDuration)
	}
	if auth.BcryptCost < bcrypt.MinCost || auth.BcryptCost > bcrypt.MaxCost {
		l.addErr("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, auth.BcryptCost)
	}

	server := &ServerConfig{
		// Server port stays a string because it goes straight into the listen address.
		Port:               l.optional("PORT", "8080"),
		CORSAllowedOrigins: l.optionalList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RequestTimeout:     l.optionalDuration("REQUEST_TIMEOUT", 60*time.Second),
		StreamHeartbeat:    l.optionalDuration("STREAM_HEARTBEAT", 15*time.Second),
	}
	if server.RequestTimeout <= 0 {
		l.addErr("REQUEST_TIMEOUT must be positive, got %s", server.RequestTimeout)
	}
	if server.StreamHeartbeat <= 0 {
		l.addErr("STREAM_HEARTBEAT must be positive, got %s", server.StreamHeartbeat)
	}

	logCfg := &LogConfig{
		Level:  strings.ToLower(l.optional("LOG_LEVEL", "info")),
		Format: strings.ToLower(l.optional("LOG_FORMAT", "json")),
	}
	if logCfg.Format != "json" && logCfg.Format != "console" {
		l.addErr("LOG_FORMAT must be json or console, got '%s'", logCfg.Format)
	}

	policy := &PolicyConfig{
		UsernameMinLen: l.optionalInt("USERNAME_MIN_LEN", 3),
		UsernameMaxLen: l.optionalInt("USERNAME_MAX_LEN", 32),
		PasswordMinLen: l.optionalInt("PASSWORD_MIN_LEN", 6),
		PasswordMaxLen: l.optionalInt("PASSWORD_MAX_LEN", bcryptMaxPasswordBytes),
	}
	validatePolicy(l, policy)

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(l.errs, "\n- "))
	}

	return &AppConfig{
		Database: db,
		Auth:     auth,
		Server:   server,
		Log:      logCfg,
		Policy:   policy,
	}, nil
}

func validatePolicy(l *loader, p *PolicyConfig) {
	if p.UsernameMinLen < 1 || p.UsernameMinLen > p.UsernameMaxLen {
		l.addErr("USERNAME_MIN_LEN (%d) must be >= 1 and <= USERNAME_MAX_LEN (%d)", p.UsernameMinLen, p.UsernameMaxLen)
	}
	if p.PasswordMinLen < 1 || p.PasswordMinLen > p.PasswordMaxLen {
		l.addErr("PASSWORD_MIN_LEN (%d) must be >= 1 and <= PASSWORD_MAX_LEN (%d)", p.PasswordMinLen, p.PasswordMaxLen)
	}
	if p.PasswordMaxLen > bcryptMaxPasswordBytes {
		l.addErr("PASSWORD_MAX_LEN (%d) cannot exceed the bcrypt limit of %d bytes", p.PasswordMaxLen, bcryptMaxPasswordBytes)
	}
}
