package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

const (
	StorageMemory    = "memory"
	StorageSQLite    = "sqlite"
	StorageFirestore = "firestore"
)

const envPrefix = "WEEKENDSHIP_"

type Config struct {
	Mode Mode   `yaml:"mode"`
	Port string `yaml:"port"`

	Log     LogConfig     `yaml:"log"`
	Model   ModelConfig   `yaml:"model"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	GCP     GCPConfig     `yaml:"gcp"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

type ModelConfig struct {
	Provider    string        `yaml:"provider"`
	Name        string        `yaml:"name"` // empty = provider default
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type GCPConfig struct {
	ProjectID string `yaml:"project"`
	Location  string `yaml:"location"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

type HTTPConfig struct {
	CORSOrigin   string `yaml:"cors_origin"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode: ModeLocal,
		Port: "8000",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Model: ModelConfig{
			Provider:    ProviderMock,
			Timeout:     60 * time.Second,
			MaxAttempts: 2,
		},
		GCP: GCPConfig{
			Location: "us-central1",
		},
		Storage: StorageConfig{
			Backend:    StorageMemory,
			SQLitePath: "data/weekendship.db",
		},
		HTTP: HTTPConfig{
			CORSOrigin: "http://localhost:5173",
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	if v == "1" || strings.EqualFold(v, "true") {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

// Load builds the config from defaults, then the YAML file at path (or
// $WEEKENDSHIP_CONFIG when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = Mode(getEnv("MODE", string(c.Mode)))

	// Cloud Run injects PORT; the prefixed variable still wins.
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	c.Port = getEnv("PORT", c.Port)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Model.Provider = getEnv("LLM_PROVIDER", c.Model.Provider)
	c.Model.Name = getEnv("MODEL_NAME", c.Model.Name)

	var err error
	if c.Model.Timeout, err = getDurationEnv("MODEL_TIMEOUT", c.Model.Timeout); err != nil {
		return err
	}
	if c.Model.MaxAttempts, err = getIntEnv("MODEL_MAX_ATTEMPTS", c.Model.MaxAttempts); err != nil {
		return err
	}

	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)

	c.GCP.ProjectID = getEnv("GCP_PROJECT", c.GCP.ProjectID)
	c.GCP.Location = getEnv("GCP_LOCATION", c.GCP.Location)
	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)

	c.HTTP.CORSOrigin = getEnv("CORS_ORIGIN", c.HTTP.CORSOrigin)
	c.HTTP.CookieSecure = getBoolEnv("COOKIE_SECURE", c.HTTP.CookieSecure)
	return nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal:
	case ModeGCP:
		if c.GCP.ProjectID == "" {
			errs = append(errs, errors.New("gcp project must be set in gcp mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}

	switch c.Model.Provider {
	case ProviderMock:
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai api key is required for the openai provider"))
		}
	case ProviderVertex:
		if c.GCP.ProjectID == "" {
			errs = append(errs, errors.New("gcp project is required for the vertex provider"))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini api key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}

	if c.Model.Timeout <= 0 {
		errs = append(errs, errors.New("model timeout must be positive"))
	}
	if c.Model.MaxAttempts < 1 {
		errs = append(errs, errors.New("model max attempts must be at least 1"))
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required for the sqlite backend"))
		}
	case StorageFirestore:
		if c.GCP.ProjectID == "" {
			errs = append(errs, errors.New("gcp project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
