// Package config loads server configuration from an optional YAML file with
// environment variable overrides, so containerized deployments can configure
// everything without a file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Skill resolution modes.
const (
	SkillsModeSkill        = "skill"        // in-band skill invocation
	SkillsModeInstructions = "instructions" // instruction documents from a directory
)

// ChatAPIConfig configures the external chat-history API.
type ChatAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ClaudeConfig configures the claude backend.
type ClaudeConfig struct {
	CLIPath        string   `yaml:"cli_path"`
	WorkDir        string   `yaml:"work_dir"`
	PermissionMode string   `yaml:"permission_mode"`
	AddDirs        []string `yaml:"add_dirs"`
}

// CodexConfig configures the codex backend.
type CodexConfig struct {
	CLIPath string `yaml:"cli_path"`
	WorkDir string `yaml:"work_dir"`
}

// SkillsConfig selects the profile resolution strategy.
type SkillsConfig struct {
	Mode            string `yaml:"mode"`
	InstructionsDir string `yaml:"instructions_dir"`
	DefaultProfile  string `yaml:"default_profile"`
}

// Config is the full server configuration.
type Config struct {
	Listen         string        `yaml:"listen"`
	Backend        string        `yaml:"backend"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	ChatAPI        ChatAPIConfig `yaml:"chat_api"`
	Claude         ClaudeConfig  `yaml:"claude"`
	Codex          CodexConfig   `yaml:"codex"`
	Skills         SkillsConfig  `yaml:"skills"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:         "0.0.0.0:5002",
		Backend:        "claude",
		TimeoutSeconds: 300,
		ChatAPI:        ChatAPIConfig{BaseURL: "http://localhost:5001"},
		Claude:         ClaudeConfig{CLIPath: "claude"},
		Codex:          CodexConfig{CLIPath: "codex"},
		Skills: SkillsConfig{
			Mode:           SkillsModeSkill,
			DefaultProfile: "default",
		},
	}
}

// Load reads configuration from path (skipped when empty or absent) and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if cfg.Backend != "claude" && cfg.Backend != "codex" {
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.Skills.Mode != SkillsModeSkill && cfg.Skills.Mode != SkillsModeInstructions {
		return nil, fmt.Errorf("unknown skills mode %q", cfg.Skills.Mode)
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		port := "5002"
		if p := os.Getenv("PORT"); p != "" {
			port = p
		}
		c.Listen = v + ":" + port
	} else if v := os.Getenv("PORT"); v != "" {
		c.Listen = "0.0.0.0:" + v
	}
	if v := os.Getenv("AGENT_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("CHAT_API_BASE_URL"); v != "" {
		c.ChatAPI.BaseURL = v
	}
	if v := os.Getenv("CHAT_API_TOKEN"); v != "" {
		c.ChatAPI.Token = v
	}
	if v := os.Getenv("CLAUDE_CLI_PATH"); v != "" {
		c.Claude.CLIPath = v
	}
	if v := os.Getenv("CODEX_CLI_PATH"); v != "" {
		c.Codex.CLIPath = v
	}
	if v := os.Getenv("CLAUDE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("INSTRUCTIONS_DIR"); v != "" {
		c.Skills.Mode = SkillsModeInstructions
		c.Skills.InstructionsDir = v
	}
}

// Timeout returns the turn deadline as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
