package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DB      DBConfig
	JWT     JWTConfig
	Server  ServerConfig
	Storage StorageConfig
	MinIO   MinIOConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret            string
	ExpirationSeconds int
}

type ServerConfig struct {
	Port string
	// PublicBaseURL is the externally visible origin, used to build photo URLs
	// when storage is local.
	PublicBaseURL string
}

type StorageConfig struct {
	// Backend selects the photo store: "local" or "minio".
	Backend   string
	UploadDir string
}

type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Load reads configuration from the environment. The token secret and the
// database credentials are required; the process exits when any is absent.
func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     mustEnv("DB_USER"),
			Password: mustEnv("DB_PASSWORD"),
			Name:     mustEnv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:            mustEnv("JWT_SECRET_TOKEN"),
			ExpirationSeconds: getEnvAsInt("JWT_EXPIRATION_SECONDS", 24*60*60),
		},
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "3000"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "local"),
			UploadDir: getEnv("UPLOAD_DIR", "uploads/sightings"),
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "geosight"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "geosight_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "geosight"),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func mustEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		fmt.Fprintf(os.Stderr, "The environment variable %q is missing.\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
