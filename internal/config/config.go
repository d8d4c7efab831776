package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fleet modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// Policies.
const (
	PolicyReactive = "reactive"
	PolicyGoal     = "goal"
)

// DefaultTickInterval is the pause between sequential ticks.
const DefaultTickInterval = time.Second

// Config holds all configuration for the fleet driver.
type Config struct {
	LogLevel string `yaml:"log_level"`

	API   API   `yaml:"api"`
	Fleet Fleet `yaml:"fleet"`
}

// API holds the city server connection parameters.
type API struct {
	ServerURL string `yaml:"server_url"`
	TeamName  string `yaml:"team_name"`
	TeamKey   string `yaml:"team_key"` // admin path segment for start/stop
	Token     string `yaml:"token"`    // Authorization header value

	RequestTimeout time.Duration `yaml:"request_timeout"`
	ValidateWorld  bool          `yaml:"validate_world"` // check world payloads against the JSON schema
}

// Fleet holds the driving parameters.
type Fleet struct {
	Mode         string        `yaml:"mode"`   // sequential | concurrent
	Policy       string        `yaml:"policy"` // reactive | goal
	TickInterval time.Duration `yaml:"tick_interval"`
	Seed         uint64        `yaml:"seed"` // 0 = random

	// Concurrent mode
	DecideOutsideLock bool `yaml:"decide_outside_lock"`
	TrackScore        bool `yaml:"track_score"`

	StopOnExit          bool `yaml:"stop_on_exit"`
	MaxSearchIterations int  `yaml:"max_search_iterations"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		API: API{
			ServerURL:      "http://127.0.0.1:8080/",
			TeamName:       "turing",
			RequestTimeout: 5 * time.Second,
		},
		Fleet: Fleet{
			Mode:                ModeSequential,
			Policy:              PolicyReactive,
			TickInterval:        DefaultTickInterval,
			MaxSearchIterations: 1 << 16,
		},
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
// FASTCITY_TOKEN overrides api.token.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if token := os.Getenv("FASTCITY_TOKEN"); token != "" {
		cfg.API.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects unknown modes and policies and non-positive intervals.
func (c Config) Validate() error {
	switch c.Fleet.Mode {
	case ModeSequential, ModeConcurrent:
	default:
		return fmt.Errorf("unknown fleet mode %q", c.Fleet.Mode)
	}
	switch c.Fleet.Policy {
	case PolicyReactive, PolicyGoal:
	default:
		return fmt.Errorf("unknown policy %q", c.Fleet.Policy)
	}
	if c.Fleet.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.Fleet.TickInterval)
	}
	if c.API.ServerURL == "" {
		return fmt.Errorf("api.server_url is required")
	}
	if c.API.TeamName == "" {
		return fmt.Errorf("api.team_name is required")
	}
	return nil
}
