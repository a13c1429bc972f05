package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	GoogleAudience     string
	AllowOrigins       []string
	LogstashTCPAddr    string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketPhotos  string
	MinIOBucketImports string
	MinIOBucketExports string
	SessionTTL         string
	PhotoMaxBytes      int64
	PhotoMaxDimension  int
	ImportMaxRows      int
	ImportMaxFileBytes int64
	HistoryLimit       int
	NameBlocklist      []string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	photoMax := int64(5 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("PHOTO_MAX_BYTES", "5242880"), 10, 64); err == nil && v > 0 {
		photoMax = v
	}

	importMaxFile := int64(5 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("IMPORT_MAX_FILE_BYTES", "5242880"), 10, 64); err == nil && v > 0 {
		importMaxFile = v
	}

	var blocklist []string
	if raw := strings.TrimSpace(getenv("NAME_BLOCKLIST", "")); raw != "" {
		blocklist = splitAndTrim(raw)
	}

	return Config{
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          must("JWT_SECRET"),
		GoogleAudience:     getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:       splitOrigins(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:    getenv("LOGSTASH_TCP_ADDR", ""),
		MinIOEndpoint:      must("MINIO_ENDPOINT"),
		MinIOAccessKey:     must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:     must("MINIO_SECRET_KEY"),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketPhotos:  getenv("MINIO_BUCKET_PHOTOS", "cardforge-photos"),
		MinIOBucketImports: getenv("MINIO_BUCKET_IMPORTS", "cardforge-imports"),
		MinIOBucketExports: getenv("MINIO_BUCKET_EXPORTS", "cardforge-exports"),
		SessionTTL:         getenv("SESSION_TTL", "24h"),
		PhotoMaxBytes:      photoMax,
		PhotoMaxDimension:  atoiDefault(getenv("PHOTO_MAX_DIMENSION", "1024"), 1024),
		ImportMaxRows:      atoiDefault(getenv("IMPORT_MAX_ROWS", "500"), 500),
		ImportMaxFileBytes: importMaxFile,
		HistoryLimit:       atoiDefault(getenv("HISTORY_LIMIT", "10"), 10),
		NameBlocklist:      blocklist,
	}
}

func atoiDefault(raw string, def int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return def
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitOrigins(input string) []string {
	out := splitAndTrim(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
