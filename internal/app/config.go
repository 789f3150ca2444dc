// Package app loads configuration and wires the caption server
// together: stores, engine, speech provider, background jobs and the
// HTTP router.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Speech provider names accepted in SPEECH_PROVIDER.
const (
	ProviderVosk     = "vosk"
	ProviderDeepgram = "deepgram"
	ProviderScript   = "script"
)

// Duration parses "20s" style values from both the environment and the
// YAML config file.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" yaml:"http_addr"`
	DataDir     string `env:"DATA_DIR" yaml:"data_dir"`
	SentryDSN   string `env:"SENTRY_DSN" yaml:"sentry_dsn"`
	Environment string `env:"ENVIRONMENT" yaml:"environment"`

	// Speech recognition
	Provider        string `env:"SPEECH_PROVIDER" yaml:"speech_provider"`
	PrimaryLanguage string `env:"PRIMARY_LANGUAGE" yaml:"primary_language"`
	SampleRate      int    `env:"SAMPLE_RATE" yaml:"sample_rate"`
	AudioChunkSize  int    `env:"AUDIO_CHUNK_SIZE" yaml:"audio_chunk_size"`
	VoskURL         string `env:"VOSK_URL" yaml:"vosk_url"`
	DeepgramAPIKey  string `env:"DEEPGRAM_API_KEY" yaml:"deepgram_api_key"`
	DeepgramModel   string `env:"DEEPGRAM_MODEL" yaml:"deepgram_model"`
	ScriptPath      string `env:"SCRIPT_PATH" yaml:"script_path"`

	// Audio capture
	CaptureCommand string `env:"CAPTURE_COMMAND" yaml:"capture_command"`
	AudioDevice    string `env:"AUDIO_DEVICE" yaml:"audio_device"`

	// Admin access
	AdminUsername  string `env:"ADMIN_USERNAME" yaml:"admin_username"`
	AdminPassword  string `env:"ADMIN_PASSWORD" yaml:"admin_password"`
	WebsocketToken string `env:"WEBSOCKET_TOKEN" yaml:"websocket_token"`

	// JWT authentication
	JWTSecret string   `env:"JWT_SECRET" yaml:"jwt_secret"`
	JWTExpiry Duration `env:"JWT_EXPIRY" yaml:"jwt_expiry"`

	// Notifications
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL" yaml:"discord_webhook_url"`

	// Background jobs
	SchedulerInterval   Duration `env:"SCHEDULER_INTERVAL" yaml:"scheduler_interval"`
	HealthCheckInterval Duration `env:"HEALTH_CHECK_INTERVAL" yaml:"health_check_interval"`
}

func defaults() Config {
	return Config{
		HTTPAddr:    ":8000",
		DataDir:     "data",
		Environment: "development",

		Provider:        ProviderVosk,
		PrimaryLanguage: "en-US",
		SampleRate:      16000,
		AudioChunkSize:  4000,
		VoskURL:         "ws://127.0.0.1:2700",
		DeepgramModel:   "nova-2",

		CaptureCommand: "arecord",

		AdminUsername: "admin",

		JWTExpiry: Duration(24 * time.Hour),

		SchedulerInterval:   Duration(20 * time.Second),
		HealthCheckInterval: Duration(60 * time.Second),
	}
}

// LoadConfig builds the configuration in three layers: built-in
// defaults, then the YAML file CONFIG_FILE points at (when set), then
// environment variable overrides.
func LoadConfig() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderVosk:
		if c.VoskURL == "" {
			return fmt.Errorf("config: VOSK_URL is required for the %s provider", ProviderVosk)
		}
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("config: DEEPGRAM_API_KEY is required for the %s provider", ProviderDeepgram)
		}
	case ProviderScript:
		if c.ScriptPath == "" {
			return fmt.Errorf("config: SCRIPT_PATH is required for the %s provider", ProviderScript)
		}
	default:
		return fmt.Errorf("config: unknown speech provider %q", c.Provider)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("config: SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.AudioChunkSize <= 0 {
		return fmt.Errorf("config: AUDIO_CHUNK_SIZE must be positive, got %d", c.AudioChunkSize)
	}
	return nil
}
