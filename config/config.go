// Package config handles application configuration: a JSON file with a
// schema version, migrated forward on load, with environment overrides
// applied last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const (
	appName        = "medidash"
	configFileName = "config.json"

	// CurrentVersion is the config schema version written by this build.
	CurrentVersion = 1
)

// Config is the application configuration.
type Config struct {
	Version int `json:"version"`

	Server ServerConfig `json:"server"`
	Speech SpeechConfig `json:"speech"`
	Auth   AuthConfig   `json:"auth"`

	// DataDir holds the on-disk key-value store. Empty means a directory
	// under the user data dir.
	DataDir string `json:"data_dir,omitempty" envconfig:"DATA_DIR"`

	// Legacy fields (deprecated, kept for migration)
	LegacyAssemblyAIKey string `json:"assemblyai_api_key,omitempty"`
	LegacyOpenAIKey     string `json:"openai_api_key,omitempty"`
	LegacyPort          int    `json:"port,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string   `json:"host" envconfig:"HOST"`
	Port           int      `json:"port" envconfig:"PORT"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" envconfig:"ALLOWED_ORIGINS"`
}

// SpeechConfig configures transcription providers.
type SpeechConfig struct {
	// AssemblyAIKey is the account API key for the realtime streaming
	// service. It stays server-side; clients receive short-lived tokens.
	AssemblyAIKey string `json:"assemblyai_api_key,omitempty" envconfig:"ASSEMBLYAI_API_KEY"`

	// OpenAIKey enables the batch transcription provider.
	OpenAIKey string `json:"openai_api_key,omitempty" envconfig:"OPENAI_API_KEY"`

	// WhisperModel selects the batch model. Empty means whisper-1.
	WhisperModel string `json:"whisper_model,omitempty" envconfig:"WHISPER_MODEL"`

	SampleRate  int  `json:"sample_rate,omitempty" envconfig:"SAMPLE_RATE"`
	FormatTurns bool `json:"format_turns" envconfig:"FORMAT_TURNS"`

	// Framing selects the outbound audio framing: "pcm" or "wav".
	Framing string `json:"framing,omitempty" envconfig:"FRAMING"`
}

// AuthConfig configures session token issuance.
type AuthConfig struct {
	// JWTSecret signs client session tokens. Required for the transcription
	// bridge; generated and persisted on first run when empty.
	JWTSecret string `json:"jwt_secret,omitempty" envconfig:"JWT_SECRET"`

	// TokenTTLMinutes bounds client session token lifetime.
	TokenTTLMinutes int `json:"token_ttl_minutes,omitempty" envconfig:"TOKEN_TTL_MINUTES"`
}

// DefaultPath returns the per-user config file path.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads configuration from path, migrates older versions forward, and
// applies MEDIDASH_* environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		if cfg.Version > CurrentVersion {
			return nil, fmt.Errorf("config version %d is newer than supported version %d", cfg.Version, CurrentVersion)
		}
		cfg.migrate()
		cfg.applyDefaults()
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(appName, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Save persists the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Speech: SpeechConfig{
			SampleRate:  16000,
			FormatTurns: true,
			Framing:     "pcm",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 60,
		},
	}
}

// migrate converts version 0 files, which carried flat top-level keys, into
// the current sectioned layout.
func (c *Config) migrate() {
	if c.Version >= CurrentVersion {
		return
	}

	if c.LegacyAssemblyAIKey != "" && c.Speech.AssemblyAIKey == "" {
		c.Speech.AssemblyAIKey = c.LegacyAssemblyAIKey
	}
	if c.LegacyOpenAIKey != "" && c.Speech.OpenAIKey == "" {
		c.Speech.OpenAIKey = c.LegacyOpenAIKey
	}
	if c.LegacyPort != 0 && c.Server.Port == 0 {
		c.Server.Port = c.LegacyPort
	}

	c.LegacyAssemblyAIKey = ""
	c.LegacyOpenAIKey = ""
	c.LegacyPort = 0
	c.Version = CurrentVersion
}

// applyDefaults fills zero values left by older or hand-edited files.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 16000
	}
	if c.Speech.Framing == "" {
		c.Speech.Framing = "pcm"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 60
	}
}
