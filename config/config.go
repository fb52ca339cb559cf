package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"

	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerPort    string
	DBPath        string
	LogLevel      string
	SessionSecret string
}

func Load() *Config {
	return &Config{
		ServerPort:    envOrDefault("DARTS_PORT", ":8080"),
		DBPath:        envOrDefault("DARTS_DB_PATH", "./darts.db"),
		LogLevel:      envOrDefault("DARTS_LOG_LEVEL", "info"),
		SessionSecret: sessionSecret(),
	}
}

// sessionSecret prefers the environment so sessions survive restarts; a
// generated secret invalidates every cookie when the process restarts.
func sessionSecret() string {
	if secret := os.Getenv("DARTS_SESSION_SECRET"); secret != "" {
		return secret
	}
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate session secret")
	}
	return base64.StdEncoding.EncodeToString(bytes)
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
