package config

import (
	"os"
	"strconv"
	"strings"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string   // empty disables Redis (single instance, local notifications)
	StoreBackend   string   // mongo, postgres or memory
	WatchStore     bool     // follow external writes via change stream / LISTEN
	Port           string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	Host           string   // Raw HOST env (e.g. https://karmnik.example.com)
	AllowedHost    string   // Hostname only for strict host check (production only)
	Environment    string   // ENV: production, development, etc.
	Timezone       string
	WriteKeyHash   string // argon2id hash; when set, writes need X-Feeder-Key
	LogLevel       string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", ""), host} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", BackendMongo)))
	switch backend {
	case BackendMongo, BackendPostgres, BackendMemory:
	default:
		backend = BackendMongo
	}

	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/karmnik")),
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/karmnik?sslmode=disable"),
		RedisURI:       os.Getenv("REDIS_URI"),
		StoreBackend:   backend,
		WatchStore:     getEnvBool("WATCH_STORE", false),
		Host:           host,
		AllowedHost:    allowedHost,
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,
		Timezone:       getEnv("TIMEZONE", "Europe/Warsaw"),
		WriteKeyHash:   strings.TrimSpace(os.Getenv("WRITE_KEY_HASH")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	h := host
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// RedisEnabled reports whether a Redis URI was configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisURI) != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}
