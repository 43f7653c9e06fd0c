package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	General struct {
		Provider string `koanf:"provider"`
		AI       string `koanf:"ai"`
		LogLevel string `koanf:"log_level"`
	} `koanf:"general"`

	GitLab struct {
		URL           string `koanf:"url"`
		Token         string `koanf:"token"`
		WebhookSecret string `koanf:"webhook_secret"`
	} `koanf:"gitlab"`

	AI map[string]AIConfig `koanf:"ai"`

	Review ReviewConfig `koanf:"review"`

	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`
}

// AIConfig configures one model backend.
type AIConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// ReviewConfig carries the tunable pipeline constants. Defaults match the
// values the pipeline was calibrated with; they are configurable for
// behavior compatibility, not for re-derivation.
type ReviewConfig struct {
	MoveSimilarityThreshold float64 `koanf:"move_similarity_threshold"`
	MaxPromptFindings       int     `koanf:"max_prompt_findings"`
	MaxCodeExcerpts         int     `koanf:"max_code_excerpts"`
	MaxPatchLines           int     `koanf:"max_patch_lines"`
	MaxCheckAnnotations     int     `koanf:"max_check_annotations"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.provider":                 "gitlab",
		"general.ai":                       "",
		"general.log_level":                "info",
		"server.port":                      8888,
		"review.move_similarity_threshold": 0.8,
		"review.max_prompt_findings":       8,
		"review.max_code_excerpts":         4,
		"review.max_patch_lines":           30,
		"review.max_check_annotations":     50,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./docreview.toml", "$HOME/.docreview.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix DOCREVIEW_
	k.Load(env.Provider("DOCREVIEW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "DOCREVIEW_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# docreview configuration

[general]
provider = "gitlab"
# Leave ai empty to run with the deterministic review path only.
ai = "gemini"
log_level = "info"

[gitlab]
url = "https://gitlab.example.com"
token = "your-gitlab-token"
webhook_secret = "your-webhook-secret"

[ai.gemini]
api_key = "your-gemini-api-key"
model = "gemini-2.5-flash"
temperature = 0.2

[server]
port = 8888
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.Provider == "" {
		return fmt.Errorf("provider is required")
	}

	switch config.General.Provider {
	case "gitlab":
		if config.GitLab.URL == "" {
			return fmt.Errorf("gitlab url is required")
		}
		if config.GitLab.Token == "" {
			return fmt.Errorf("gitlab token is required")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", config.General.Provider)
	}

	// An empty AI name is valid: the pipeline runs its deterministic path.
	if name := config.General.AI; name != "" {
		aiConfig, ok := config.AI[name]
		if !ok {
			return fmt.Errorf("configuration for AI provider %s not found", name)
		}
		if aiConfig.APIKey == "" && name != "ollama" {
			return fmt.Errorf("%s api_key is required", name)
		}
	}

	return nil
}
