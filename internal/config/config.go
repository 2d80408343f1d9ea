package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port       string
	AppBaseURL string // used to build verification links in emails

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret string

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// Completion API
	LLMAPIKey       string
	LLMAPIURL       string
	DefaultModel    string
	ChatPersona     string
	ChatWindowSize  int // messages of history sent per completion
	ChatTemperature float64

	// Speech synthesis API
	TTSAPIURL      string
	TTSAPIKey      string
	TTSModel       string
	TTSVoicesURL   string
	DefaultVoice   string

	// Voice cloning API
	CloneAPIURL   string
	CloneAPIKey   string
	CloneProvider string

	// Payment gateway
	PaystackAPIURL    string
	PaystackSecretKey string
}

func Load() *Config {
	windowSize, _ := strconv.Atoi(getEnv("CHAT_WINDOW_SIZE", "20"))
	temperature, _ := strconv.ParseFloat(getEnv("CHAT_TEMPERATURE", "0.5"), 64)
	return &Config{
		Port:              getEnv("PORT", "8090"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8090"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "voicechat_db"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		MailFrom:          getEnv("MAIL_FROM", "no-reply@voicechat.app"),
		LLMAPIKey:         getEnv("OPENAI_API_KEY", ""),
		LLMAPIURL:         getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		DefaultModel:      getEnv("DEFAULT_CHAT_MODEL", "gpt-4o-mini"),
		ChatPersona:       getEnv("CHAT_PERSONA", "You are a friendly, concise assistant."),
		ChatWindowSize:    windowSize,
		ChatTemperature:   temperature,
		TTSAPIURL:         getEnv("TTS_API_URL", "https://api.openai.com/v1/audio/speech"),
		TTSAPIKey:         getEnv("TTS_API_KEY", ""),
		TTSModel:          getEnv("TTS_MODEL", "tts-1"),
		TTSVoicesURL:      getEnv("TTS_VOICES_URL", ""),
		DefaultVoice:      getEnv("DEFAULT_VOICE", "alloy"),
		CloneAPIURL:       getEnv("CLONE_API_URL", ""),
		CloneAPIKey:       getEnv("CLONE_API_KEY", ""),
		CloneProvider:     getEnv("CLONE_PROVIDER", "elevenlabs"),
		PaystackAPIURL:    getEnv("PAYSTACK_API_URL", "https://api.paystack.co"),
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
