package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Extract ExtractConfig
	LLM     LLMConfig
	SMTP    SMTPConfig
	Rules   RulesConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr        string
	BodyLimit       string
	ShutdownTimeout time.Duration
}

// ExtractConfig holds document text extraction configuration
type ExtractConfig struct {
	Pdftotext     string
	Tesseract     string
	TesseractLang string
}

// LLMConfig holds Vertex AI / Gemini configuration
type LLMConfig struct {
	ProjectID   string
	Region      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// RulesConfig holds the coverage rule table configuration
type RulesConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
			BodyLimit:       getEnv("HTTP_BODY_LIMIT", "16M"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extract: ExtractConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		},
		LLM: LLMConfig{
			ProjectID:   getEnv("VERTEX_PROJECT_ID", ""),
			Region:      getEnv("VERTEX_REGION", "us-central1"),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			From:     getEnv("SMTP_FROM", ""),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		Rules: RulesConfig{
			Path: getEnv("RULES_PATH", "rules.json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.ProjectID == "" {
		return NewAppError("CONFIG_ERROR", "VERTEX_PROJECT_ID is required", nil)
	}
	if c.Rules.Path == "" {
		return NewAppError("CONFIG_ERROR", "RULES_PATH is required", nil)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", nil)
	}
	return nil
}
