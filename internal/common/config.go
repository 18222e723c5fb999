package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration, loaded defaults -> file(s)
// -> env -> CLI flag overrides, in that order.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Autofill  AutofillConfig  `toml:"autofill"`
	LLM       LLMConfig       `toml:"llm"`
	Logging   LoggingConfig   `toml:"logging"`
	Profile   ProfileConfig   `toml:"profile"`
	Resolver  ResolverDefaults `toml:"resolver"`
	Documents DocumentsConfig `toml:"documents"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig names the on-disk roots for the Storage Kernel (durable
// JSON) and the Company Fetch-Status Cache (ephemeral embedded KV).
type StorageConfig struct {
	DataDir    string `toml:"data_dir"`
	BadgerPath string `toml:"badger_path"`
}

// CompanyConfig is one entry in the ingestion target list. Industry,
// Priority, HQState, and Tags are not returned by any ATS API — they are
// annotated onto every job fetched for this company by the Ingestion
// Orchestrator.
type CompanyConfig struct {
	Name     string `toml:"name"`
	ATS      string `toml:"ats"`
	BoardURL string `toml:"board_url"`

	Industry string   `toml:"industry"`
	Priority int      `toml:"priority"`
	HQState  string   `toml:"hq_state"`
	Tags     []string `toml:"tags"`
}

// GeoConfig supplies the frame of reference the Normalizer's geo bucketing
// step scores every job's location against.
type GeoConfig struct {
	TargetState string   `toml:"target_state"`
	NeighborUSA []string `toml:"neighbor_states"`
	LocalCities []string `toml:"local_cities"`
}

// IngestionConfig tunes the ATS Ingestion Pipeline and Orchestrator.
type IngestionConfig struct {
	Companies         []CompanyConfig `toml:"companies"`
	WorkerPoolSize    int             `toml:"worker_pool_size"`
	SweepAfter        time.Duration   `toml:"sweep_after"` // a job not seen within this window is marked missing
	JDSummaryEnabled  bool            `toml:"jd_summary_enabled"`
	JDSummaryMinScore int             `toml:"jd_summary_min_score"`
	Geo               GeoConfig       `toml:"geo"`
}

// AutofillConfig tunes the headless-browser Autofill Engine.
type AutofillConfig struct {
	Headless       bool          `toml:"headless"`
	NavTimeout     time.Duration `toml:"nav_timeout"`
	StableTimeout  time.Duration `toml:"stable_timeout"`
	MaxRescans     int           `toml:"max_rescans"`
	ChromePoolSize int           `toml:"chrome_pool_size"`
	UserAgent      string        `toml:"user_agent"`
}

// LLMProvider selects the concrete Oracle adapter.
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderLocal  LLMProvider = "local"
)

// LLMConfig configures the Oracle adapter wired in internal/app.
type LLMConfig struct {
	Provider      LLMProvider `toml:"provider"`
	AnthropicKey  string      `toml:"anthropic_api_key"`
	ClaudeModel   string      `toml:"claude_model"`
	LocalBaseURL  string      `toml:"local_base_url"`
	LocalModel    string      `toml:"local_model"`
	Timeout       time.Duration `toml:"timeout"`
}

// LoggingConfig mirrors the ambient arbor-backed logging setup.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// ProfileConfig names the applicant profile JSON file consulted by the
// Answer Resolver.
type ProfileConfig struct {
	Path string `toml:"path"`
}

// DocumentsConfig names the directory of *.tmpl files the Document
// Templater loads at startup, one template per file named by its base
// filename without extension.
type DocumentsConfig struct {
	TemplateDir string `toml:"template_dir"`
}

// NewDefaultConfig returns the baseline configuration before any file or
// environment override is applied.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8787,
			Host: "localhost",
		},
		Storage: StorageConfig{
			DataDir:    "./data",
			BadgerPath: "./data/company-status",
		},
		Ingestion: IngestionConfig{
			WorkerPoolSize:    8,
			SweepAfter:        48 * time.Hour,
			JDSummaryEnabled:  false,
			JDSummaryMinScore: 70,
			Geo: GeoConfig{
				TargetState: "NC",
				NeighborUSA: []string{"VA", "SC", "TN", "GA"},
				LocalCities: []string{"raleigh", "durham", "cary", "chapel hill", "morrisville"},
			},
		},
		Autofill: AutofillConfig{
			Headless:       true,
			NavTimeout:     30 * time.Second,
			StableTimeout:  5 * time.Second,
			MaxRescans:     3,
			ChromePoolSize: 2,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		LLM: LLMConfig{
			Provider:     LLMProviderLocal,
			ClaudeModel:  "claude-haiku-4-5",
			LocalBaseURL: "http://localhost:11434",
			LocalModel:   "llama3.1",
			Timeout:      60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Profile: ProfileConfig{
			Path: "./data/profile.json",
		},
		Documents: DocumentsConfig{
			TemplateDir: "./templates",
		},
		Resolver: DefaultResolverDefaults(),
	}
}

// LoadFromFiles loads configuration from zero or more TOML files, applied
// in order (later files override earlier ones), then applies environment
// variable overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if port := os.Getenv("VELLUM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VELLUM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if dataDir := os.Getenv("VELLUM_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}
	if level := os.Getenv("VELLUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VELLUM_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.LLM.AnthropicKey = key
	}
	if provider := os.Getenv("VELLUM_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if baseURL := os.Getenv("VELLUM_LLM_LOCAL_BASE_URL"); baseURL != "" {
		config.LLM.LocalBaseURL = baseURL
	}
	if profilePath := os.Getenv("VELLUM_PROFILE_PATH"); profilePath != "" {
		config.Profile.Path = profilePath
	}
	if headless := os.Getenv("VELLUM_AUTOFILL_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Autofill.Headless = h
		}
	}
	if poolSize := os.Getenv("VELLUM_INGESTION_WORKERS"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil {
			config.Ingestion.WorkerPoolSize = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides, which take
// highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
