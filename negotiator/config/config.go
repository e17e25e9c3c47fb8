package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	PromptsBaseURL     string
	PromptsAPIKey      string
	PromptsProjectID   string
	PromptsEnvironment string
	PromptName         string
	PersonaFile        string

	RecorderBaseURL string
	RecorderAPIKey  string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		// No .env file; system environment variables apply.
	}

	return Config{
		Port: getEnv("PORT", "8000"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,

		PromptsBaseURL:     getEnv("PROMPTS_BASE_URL", ""),
		PromptsAPIKey:      getEnv("PROMPTS_API_KEY", ""),
		PromptsProjectID:   getEnv("PROMPTS_PROJECT_ID", ""),
		PromptsEnvironment: getEnv("PROMPTS_ENVIRONMENT", "latest"),
		PromptName:         getEnv("PROMPT_NAME", "negotiator"),
		PersonaFile:        getEnv("PERSONA_FILE", ""),

		RecorderBaseURL: getEnv("RECORDER_BASE_URL", ""),
		RecorderAPIKey:  getEnv("RECORDER_API_KEY", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "negotiations"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
