package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                      string
	SubmissionDurationSeconds int
	XPWinner                  int
	XPRunnerUp                int
	XPParticipation           int
	JWTSecret                 string
	AllowedOrigins            []string
	DBMaxOpenConns            int
	DBMaxIdleConns            int
	DBConnMaxLifetimeSeconds  int
	DBConnMaxIdleTimeSeconds  int
	OpenAIAPIKey              string
	OpenAIModel               string
}

func Default() Config {
	return Config{
		Port:                      "8080",
		SubmissionDurationSeconds: 180,
		XPWinner:                  15,
		XPRunnerUp:                8,
		XPParticipation:           3,
		JWTSecret:                 "caption-this-dev",
		AllowedOrigins:            []string{"http://localhost:3000", "http://localhost:5173"},
		DBMaxOpenConns:            10,
		DBMaxIdleConns:            10,
		DBConnMaxLifetimeSeconds:  300,
		DBConnMaxIdleTimeSeconds:  60,
		OpenAIModel:               "gpt-4o-mini",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("SUBMISSION_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SubmissionDurationSeconds = value
		}
	}
	if raw := os.Getenv("XP_WINNER"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.XPWinner = value
		}
	}
	if raw := os.Getenv("XP_RUNNER_UP"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.XPRunnerUp = value
		}
	}
	if raw := os.Getenv("XP_PARTICIPATION"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.XPParticipation = value
		}
	}
	if raw := os.Getenv("JWT_SECRET"); raw != "" {
		cfg.JWTSecret = raw
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0, 4)
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_TIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	return cfg
}
