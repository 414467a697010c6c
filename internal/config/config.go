package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultStateFile  = "/var/lib/kidlock/state.json"
	DefaultRequestDir = "/var/lib/kidlock/requests"
)

// AgentConfig holds daemon-wide settings.
type AgentConfig struct {
	PollInterval           int    `toml:"poll_interval"`            // seconds
	IdleThresholdMinutes   int    `toml:"idle_threshold_minutes"`   // 0 = idle detection disabled
	PauseAutoResumeMinutes int    `toml:"pause_auto_resume"`        // minutes
	TamperDetection        bool   `toml:"tamper_detection"`
	TamperThresholdSeconds int    `toml:"tamper_threshold_seconds"`
	Timezone               string `toml:"timezone"` // empty = system local
	StateFile              string `toml:"state_file"`
	RequestDir             string `toml:"request_dir"`
}

// UserPolicy is the per-user limit configuration. Schedule windows are
// kept as raw "HH:MM-HH:MM" strings; they are parsed at evaluation time
// so a malformed window fails open instead of failing the whole config.
type UserPolicy struct {
	// DailyMinutes is a pointer so an explicit 0 (unlimited) is
	// distinguishable from an absent key that inherits the default.
	DailyMinutes *int   `toml:"daily_minutes"`
	WeekdayHours string `toml:"weekday_hours"`
	WeekendHours string `toml:"weekend_hours"`
	Warnings     []int  `toml:"warnings"` // minutes-remaining thresholds
	Enabled      *bool  `toml:"enabled"`
}

// Limit returns the daily budget in minutes; 0 means unlimited.
func (p UserPolicy) Limit() int {
	if p.DailyMinutes == nil {
		return 0
	}
	return *p.DailyMinutes
}

type Config struct {
	Agent   AgentConfig           `toml:"agent"`
	Default UserPolicy            `toml:"default"`
	Users   map[string]UserPolicy `toml:"users"`
}

// SetDefault fills missing per-user values from the Default policy and
// applies daemon-wide fallbacks.
func (c *Config) SetDefault() {
	if c.Agent.PollInterval <= 0 {
		c.Agent.PollInterval = 10
	}
	if c.Agent.PauseAutoResumeMinutes <= 0 {
		c.Agent.PauseAutoResumeMinutes = 30
	}
	if c.Agent.TamperThresholdSeconds <= 0 {
		c.Agent.TamperThresholdSeconds = 60
	}
	if c.Agent.StateFile == "" {
		c.Agent.StateFile = DefaultStateFile
	}
	if c.Agent.RequestDir == "" {
		c.Agent.RequestDir = DefaultRequestDir
	}

	if c.Default.WeekdayHours == "" {
		c.Default.WeekdayHours = "00:00-23:59"
	}
	if c.Default.WeekendHours == "" {
		c.Default.WeekendHours = "00:00-23:59"
	}
	if c.Default.Warnings == nil {
		c.Default.Warnings = []int{10, 5, 1}
	}
	if c.Default.Enabled == nil {
		defaultVal := true
		c.Default.Enabled = &defaultVal
	}

	for username, policy := range c.Users {
		if policy.DailyMinutes == nil {
			policy.DailyMinutes = c.Default.DailyMinutes
		}
		if policy.WeekdayHours == "" {
			policy.WeekdayHours = c.Default.WeekdayHours
		}
		if policy.WeekendHours == "" {
			policy.WeekendHours = c.Default.WeekendHours
		}
		if policy.Warnings == nil {
			policy.Warnings = c.Default.Warnings
		}
		if policy.Enabled == nil {
			policy.Enabled = c.Default.Enabled
		}
		c.Users[username] = policy
	}
}

// ControlledUsers returns the configured usernames with enforcement
// enabled.
func (c *Config) ControlledUsers() []string {
	users := make([]string, 0, len(c.Users))
	for username, policy := range c.Users {
		if policy.Enabled != nil && !*policy.Enabled {
			continue
		}
		users = append(users, username)
	}
	return users
}

func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.SetDefault()
	return &cfg, nil
}

func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.SetDefault()
	return &cfg, nil
}
