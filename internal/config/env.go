package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds settings that only come from the environment.
type Env struct {
	SourceURL         string
	S3AccessKeyID     string
	S3SecretAccessKey string
	CORSOrigins       []string
}

// LoadEnv loads the given .env files, skipping missing ones, and reads the
// SALESDASH_* variables. Variables already set in the process win.
func LoadEnv(paths ...string) (Env, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Env{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return Env{
		SourceURL:         getEnv("SALESDASH_SOURCE_URL", ""),
		S3AccessKeyID:     getEnvFirst([]string{"SALESDASH_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvFirst([]string{"SALESDASH_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		CORSOrigins:       SplitCSV(getEnv("SALESDASH_CORS_ORIGINS", "")),
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		if value := getEnv(k, ""); value != "" {
			return value
		}
	}
	return fallback
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
