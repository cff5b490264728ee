package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvCompletionURL overrides completion.url.
	EnvCompletionURL = "ASKAI_COMPLETION_URL"
	// EnvCorpus overrides corpus.source.
	EnvCorpus = "ASKAI_CORPUS"
)

// CorpusConfig locates the generated corpus file.
type CorpusConfig struct {
	// Source is a file path or an http(s) URL.
	Source      string `yaml:"source"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// CompletionConfig holds the completion proxy connection details.
type CompletionConfig struct {
	URL         string `yaml:"url"`
	HealthURL   string `yaml:"health_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type RetrievalConfig struct {
	Limit int `yaml:"limit"`
}

// SessionConfig tunes the ask cycle.
type SessionConfig struct {
	StageDelayMs       int `yaml:"stage_delay_ms"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs"`
}

// LogConfig configures the zap logger and its rotating file.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	SessionTTLMins int      `yaml:"session_ttl_mins"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Session    SessionConfig    `yaml:"session"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

func (c CorpusConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func (c SessionConfig) StageDelay() time.Duration {
	return time.Duration(c.StageDelayMs) * time.Millisecond
}

func (c SessionConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/askai/config.yaml.
// If neither exists, it writes defaults to ~/.config/askai/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "askai", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:     CorpusConfig{Source: "public/ask-ai-index.json", TimeoutSecs: 10},
		Completion: CompletionConfig{URL: "http://localhost:8787/api/ask", TimeoutSecs: 20},
		Retrieval:  RetrievalConfig{Limit: 5},
		Session:    SessionConfig{StageDelayMs: 250, RequestTimeoutSecs: 20},
		Log:        LogConfig{File: "askai.log", Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Server:     ServerConfig{Addr: ":8080", SessionTTLMins: 60},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Corpus.Source == "" {
		cfg.Corpus.Source = def.Corpus.Source
	}
	if cfg.Corpus.TimeoutSecs == 0 {
		cfg.Corpus.TimeoutSecs = def.Corpus.TimeoutSecs
	}
	if cfg.Completion.URL == "" {
		cfg.Completion.URL = def.Completion.URL
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = def.Completion.TimeoutSecs
	}
	if cfg.Retrieval.Limit <= 0 {
		cfg.Retrieval.Limit = def.Retrieval.Limit
	}
	// a zero stage delay is a valid setting, only negatives are reset
	if cfg.Session.StageDelayMs < 0 {
		cfg.Session.StageDelayMs = def.Session.StageDelayMs
	}
	if cfg.Session.RequestTimeoutSecs == 0 {
		cfg.Session.RequestTimeoutSecs = def.Session.RequestTimeoutSecs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.SessionTTLMins == 0 {
		cfg.Server.SessionTTLMins = def.Server.SessionTTLMins
	}
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCompletionURL)); v != "" {
		cfg.Completion.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCorpus)); v != "" {
		cfg.Corpus.Source = v
	}
}
