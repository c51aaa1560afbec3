package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogMode  string // dev|prod
	SiteID   string

	HistoryDriver string // sql|redis|memory
	DBDriver      string // sqlite|postgres
	DBDSN         string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EnableUploads  bool
	BlobBasePath   string
	MaxUploadBytes int64

	QuestionCount   int
	MinUnitLength   int
	GenerateLatency time.Duration
	DefaultTitle    string
	RecentCount     int

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logMode := "dev"
	if mode == ModeOnline {
		logMode = "prod"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,
		LogMode:  envOr("LOG_MODE", logMode),
		SiteID:   envOr("SITE_ID", "local"),

		HistoryDriver: envOr("HISTORY_DRIVER", "sql"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		EnableUploads:  envBool("ENABLE_UPLOADS", true),
		BlobBasePath:   envOr("BLOB_BASE_PATH", "./data"),
		MaxUploadBytes: int64(envInt("MAX_UPLOAD_BYTES", 5<<20)),

		QuestionCount:   envInt("QUIZ_QUESTION_COUNT", 25),
		MinUnitLength:   envInt("QUIZ_MIN_UNIT_LENGTH", 20),
		GenerateLatency: envDuration("QUIZ_GENERATE_LATENCY", 0),
		DefaultTitle:    envOr("QUIZ_DEFAULT_TITLE", "Study Quiz"),
		RecentCount:     envInt("QUIZ_RECENT_COUNT", 3),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// CORSOrigins picks the origin list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
