package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	DefaultProvider string

	Deepgram   ProviderConfig
	Daglo      ProviderConfig
	AssemblyAI ProviderConfig
	Whisper    WhisperConfig

	Summarizer SummarizerConfig

	SchedulerInterval time.Duration
}

// ProviderConfig configures a hosted transcription backend.
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	SubmitTimeout  time.Duration
	PollTimeout    time.Duration
	PollInterval   time.Duration
	MaxPollRetries int
}

func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// WhisperConfig configures the local inference adapter.
type WhisperConfig struct {
	BinaryPath string
	ModelPath  string
	Timeout    time.Duration
}

func (w WhisperConfig) Enabled() bool {
	return strings.TrimSpace(w.BinaryPath) != "" && strings.TrimSpace(w.ModelPath) != ""
}

// SummarizerConfig configures the optional transcript summarizer.
type SummarizerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (s SummarizerConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "scriba"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4318"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scriba"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		DefaultProvider: strings.ToLower(getenv("STT_DEFAULT_PROVIDER", "deepgram")),

		Deepgram: ProviderConfig{
			APIKey:        strings.TrimSpace(getenv("DEEPGRAM_API_KEY", "")),
			BaseURL:       getenv("DEEPGRAM_BASE_URL", "https://api.deepgram.com/v1/listen"),
			Model:         getenv("DEEPGRAM_MODEL", "nova-2"),
			SubmitTimeout: getenvDuration("DEEPGRAM_TIMEOUT", 5*time.Minute),
		},
		Daglo: ProviderConfig{
			APIKey:         strings.TrimSpace(getenv("DAGLO_API_KEY", "")),
			BaseURL:        getenv("DAGLO_BASE_URL", "https://apis.daglo.ai/stt/v1/async/transcripts"),
			SubmitTimeout:  getenvDuration("DAGLO_SUBMIT_TIMEOUT", 60*time.Second),
			PollTimeout:    getenvDuration("DAGLO_POLL_TIMEOUT", 30*time.Second),
			PollInterval:   getenvDuration("DAGLO_POLL_INTERVAL", 10*time.Second),
			MaxPollRetries: getenvInt("DAGLO_MAX_POLL_RETRIES", 30),
		},
		AssemblyAI: ProviderConfig{
			APIKey:         strings.TrimSpace(getenv("ASSEMBLYAI_API_KEY", "")),
			BaseURL:        getenv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com/v2"),
			SubmitTimeout:  getenvDuration("ASSEMBLYAI_SUBMIT_TIMEOUT", 120*time.Second),
			PollTimeout:    getenvDuration("ASSEMBLYAI_POLL_TIMEOUT", 30*time.Second),
			PollInterval:   getenvDuration("ASSEMBLYAI_POLL_INTERVAL", 5*time.Second),
			MaxPollRetries: getenvInt("ASSEMBLYAI_MAX_POLL_RETRIES", 120),
		},
		Whisper: WhisperConfig{
			BinaryPath: strings.TrimSpace(getenv("WHISPER_BINARY", "")),
			ModelPath:  strings.TrimSpace(getenv("WHISPER_MODEL", "")),
			Timeout:    getenvDuration("WHISPER_TIMEOUT", 15*time.Minute),
		},
		Summarizer: SummarizerConfig{
			APIKey:  strings.TrimSpace(getenv("SUMMARIZER_API_KEY", "")),
			BaseURL: getenv("SUMMARIZER_BASE_URL", "https://api.openai.com/v1"),
			Model:   getenv("SUMMARIZER_MODEL", "gpt-4o-mini"),
			Timeout: getenvDuration("SUMMARIZER_TIMEOUT", 60*time.Second),
		},
		SchedulerInterval: getenvDuration("SCHEDULER_INTERVAL", time.Hour),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
