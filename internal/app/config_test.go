package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearConfigEnv blanks every variable LoadConfig reads so tests see
// only what they set themselves.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG_FILE", "HTTP_ADDR", "DATA_DIR", "SENTRY_DSN", "ENVIRONMENT",
		"SPEECH_PROVIDER", "PRIMARY_LANGUAGE", "SAMPLE_RATE", "AUDIO_CHUNK_SIZE",
		"VOSK_URL", "DEEPGRAM_API_KEY", "DEEPGRAM_MODEL", "SCRIPT_PATH",
		"CAPTURE_COMMAND", "AUDIO_DEVICE",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "WEBSOCKET_TOKEN",
		"JWT_SECRET", "JWT_EXPIRY", "DISCORD_WEBHOOK_URL",
		"SCHEDULER_INTERVAL", "HEALTH_CHECK_INTERVAL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "data")
	}
	if cfg.Provider != ProviderVosk {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderVosk)
	}
	if cfg.VoskURL != "ws://127.0.0.1:2700" {
		t.Errorf("VoskURL = %q", cfg.VoskURL)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.AdminUsername != "admin" {
		t.Errorf("AdminUsername = %q, want %q", cfg.AdminUsername, "admin")
	}
	if cfg.JWTExpiry.Std() != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry.Std())
	}
	if cfg.SchedulerInterval.Std() != 20*time.Second {
		t.Errorf("SchedulerInterval = %v, want 20s", cfg.SchedulerInterval.Std())
	}
	if cfg.HealthCheckInterval.Std() != 60*time.Second {
		t.Errorf("HealthCheckInterval = %v, want 60s", cfg.HealthCheckInterval.Std())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("SPEECH_PROVIDER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "dg-test-key")
	t.Setenv("PRIMARY_LANGUAGE", "cs-CZ")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("SCHEDULER_INTERVAL", "45s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.Provider != ProviderDeepgram {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderDeepgram)
	}
	if cfg.DeepgramAPIKey != "dg-test-key" {
		t.Errorf("DeepgramAPIKey = %q", cfg.DeepgramAPIKey)
	}
	if cfg.PrimaryLanguage != "cs-CZ" {
		t.Errorf("PrimaryLanguage = %q, want cs-CZ", cfg.PrimaryLanguage)
	}
	if cfg.JWTExpiry.Std() != 2*time.Hour {
		t.Errorf("JWTExpiry = %v, want 2h", cfg.JWTExpiry.Std())
	}
	if cfg.SchedulerInterval.Std() != 45*time.Second {
		t.Errorf("SchedulerInterval = %v, want 45s", cfg.SchedulerInterval.Std())
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		`http_addr: ":8100"`,
		`speech_provider: script`,
		`script_path: /srv/captions/demo.txt`,
		`jwt_expiry: 1h`,
		`admin_password: hunter2`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	// The environment still wins over the file.
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want env override :9999", cfg.HTTPAddr)
	}
	if cfg.Provider != ProviderScript {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderScript)
	}
	if cfg.ScriptPath != "/srv/captions/demo.txt" {
		t.Errorf("ScriptPath = %q", cfg.ScriptPath)
	}
	if cfg.JWTExpiry.Std() != time.Hour {
		t.Errorf("JWTExpiry = %v, want 1h", cfg.JWTExpiry.Std())
	}
	if cfg.AdminPassword != "hunter2" {
		t.Errorf("AdminPassword = %q", cfg.AdminPassword)
	}
	// Keys the file does not mention keep their defaults.
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "whisper" },
			wantErr: "unknown speech provider",
		},
		{
			name: "vosk without url",
			mutate: func(c *Config) {
				c.VoskURL = ""
			},
			wantErr: "VOSK_URL",
		},
		{
			name: "deepgram without key",
			mutate: func(c *Config) {
				c.Provider = ProviderDeepgram
			},
			wantErr: "DEEPGRAM_API_KEY",
		},
		{
			name: "script without path",
			mutate: func(c *Config) {
				c.Provider = ProviderScript
			},
			wantErr: "SCRIPT_PATH",
		},
		{
			name: "bad sample rate",
			mutate: func(c *Config) {
				c.SampleRate = 0
			},
			wantErr: "SAMPLE_RATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("d = %v, want 90s", d.Std())
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
