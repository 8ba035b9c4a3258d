package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type AIConfig struct {
	OpenAIKey               string
	OpenAIBaseURL           string
	EmbeddingModel          string
	ChatModel               string
	VectorDimensions        int
	EmbeddingTimeoutSeconds int
	EmbeddingMaxAttempts    int
	BreakerEnabled          bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			OpenAIKey:               getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			EmbeddingModel:          getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:               getEnv("CHAT_MODEL", "gpt-4o-mini"),
			VectorDimensions:        getEnvAsInt("VECTOR_DIMENSIONS", 1536),
			EmbeddingTimeoutSeconds: getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 30),
			EmbeddingMaxAttempts:    getEnvAsInt("EMBEDDING_MAX_ATTEMPTS", 3),
			BreakerEnabled:          getEnvAsBool("EMBEDDING_BREAKER_ENABLED", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
