package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/garnizeh/jobboard/internal/payments"
	"github.com/garnizeh/jobboard/internal/verifier"
	"github.com/garnizeh/jobboard/pkg/llm"
)

type Config struct {
	Addr            string          `yaml:"addr"`
	JWTSecret       string          `yaml:"jwt_secret"`
	APITimeout      time.Duration   `yaml:"timeout"`
	DatabasePath    string          `yaml:"database_path"`
	TokenDuration   time.Duration   `yaml:"token_duration"`
	FrontendBaseURL string          `yaml:"frontend_base_url"`
	DemoLogin       bool            `yaml:"demo_login"`
	NonceTTL        time.Duration   `yaml:"nonce_ttl"`
	RedisAddr       string          `yaml:"redis_addr"`
	RateLimit       int             `yaml:"rate_limit"`
	RateWindow      time.Duration   `yaml:"rate_window"`
	PendingTxTTL    time.Duration   `yaml:"pending_tx_ttl"`
	ChatPrice       float64         `yaml:"chat_price"`
	JobLinkPrice    float64         `yaml:"job_link_price"`
	Verifier        verifier.Config `yaml:"verifier"`
	Payments        payments.Config `yaml:"payments"`
	EngineConfig    EngineConfig    `yaml:"engine"`
	LLM             llm.Config      `yaml:"llm"`
}

type EngineConfig struct {
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	Persona    string        `yaml:"persona"`
	RecentJobs int           `yaml:"recent_jobs"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("JOBBOARD_ADDR", ":8080"),
		JWTSecret:       getEnv("JOBBOARD_JWT_SECRET", "supersecretkey"),
		APITimeout:      15 * time.Second,
		DatabasePath:    getEnv("JOBBOARD_DATABASE_PATH", "jobboard.db"),
		TokenDuration:   24 * time.Hour,
		FrontendBaseURL: getEnv("JOBBOARD_FRONTEND_BASE_URL", "http://localhost:3000"),
		DemoLogin:       getEnvBool("JOBBOARD_DEMO_LOGIN", false),
		NonceTTL:        5 * time.Minute,
		RedisAddr:       getEnv("JOBBOARD_REDIS_ADDR", ""),
		RateLimit:       100,
		RateWindow:      time.Minute,
		PendingTxTTL:    24 * time.Hour,
		ChatPrice:       0.5,
		JobLinkPrice:    1.0,
		Verifier: verifier.Config{
			BaseURL: getEnv("JOBBOARD_VERIFIER_BASE_URL", "https://developer.worldcoin.org"),
			AppID:   getEnv("JOBBOARD_VERIFIER_APP_ID", "app_staging"),
			APIKey:  getEnv("JOBBOARD_VERIFIER_API_KEY", ""),
			Action:  getEnv("JOBBOARD_VERIFIER_ACTION", "login"),
			Timeout: 10 * time.Second,
		},
		Payments: payments.Config{
			BaseURL: getEnv("JOBBOARD_PAYMENTS_BASE_URL", "https://developer.worldcoin.org/api/v2"),
			AppID:   getEnv("JOBBOARD_PAYMENTS_APP_ID", "app_staging"),
			APIKey:  getEnv("JOBBOARD_PAYMENTS_API_KEY", ""),
			Timeout: 10 * time.Second,
		},
		LLM: llm.DefaultConfig(),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}
