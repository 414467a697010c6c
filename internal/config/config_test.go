package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleConfig = []byte(`
[agent]
poll_interval = 15
idle_threshold_minutes = 10
tamper_detection = true
timezone = "Europe/Berlin"

[default]
daily_minutes = 120
weekday_hours = "15:00-20:00"
weekend_hours = "09:00-21:00"
warnings = [15, 5]

[users.alice]
daily_minutes = 90

[users.bob]
weekday_hours = "16:00-19:00"

[users.carol]
enabled = false

[users.dave]
daily_minutes = 0
`)

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes(sampleConfig)
	assert.NoError(t, err)

	assert.Equal(t, 15, cfg.Agent.PollInterval)
	assert.Equal(t, 10, cfg.Agent.IdleThresholdMinutes)
	assert.True(t, cfg.Agent.TamperDetection)
	assert.Equal(t, "Europe/Berlin", cfg.Agent.Timezone)

	// agent fallbacks
	assert.Equal(t, 30, cfg.Agent.PauseAutoResumeMinutes)
	assert.Equal(t, 60, cfg.Agent.TamperThresholdSeconds)
	assert.Equal(t, DefaultStateFile, cfg.Agent.StateFile)
	assert.Equal(t, DefaultRequestDir, cfg.Agent.RequestDir)
}

func TestLoadFromBytesInheritance(t *testing.T) {
	cfg, err := LoadFromBytes(sampleConfig)
	assert.NoError(t, err)

	alice := cfg.Users["alice"]
	assert.Equal(t, 90, alice.Limit())
	assert.Equal(t, "15:00-20:00", alice.WeekdayHours)
	assert.Equal(t, "09:00-21:00", alice.WeekendHours)
	assert.Equal(t, []int{15, 5}, alice.Warnings)
	assert.True(t, *alice.Enabled)

	bob := cfg.Users["bob"]
	assert.Equal(t, 120, bob.Limit())
	assert.Equal(t, "16:00-19:00", bob.WeekdayHours)

	carol := cfg.Users["carol"]
	assert.False(t, *carol.Enabled)
}

func TestExplicitZeroLimitStaysUnlimited(t *testing.T) {
	cfg, err := LoadFromBytes(sampleConfig)
	assert.NoError(t, err)

	// daily_minutes = 0 means unlimited and must not inherit the default
	dave := cfg.Users["dave"]
	assert.NotNil(t, dave.DailyMinutes)
	assert.Equal(t, 0, dave.Limit())
}

func TestControlledUsers(t *testing.T) {
	cfg, err := LoadFromBytes(sampleConfig)
	assert.NoError(t, err)

	users := cfg.ControlledUsers()
	sort.Strings(users)
	assert.Equal(t, []string{"alice", "bob", "dave"}, users)
}

func TestSetDefaultEmptyConfig(t *testing.T) {
	cfg, err := LoadFromBytes(nil)
	assert.NoError(t, err)

	assert.Equal(t, 10, cfg.Agent.PollInterval)
	assert.Equal(t, "00:00-23:59", cfg.Default.WeekdayHours)
	assert.Equal(t, "00:00-23:59", cfg.Default.WeekendHours)
	assert.Equal(t, []int{10, 5, 1}, cfg.Default.Warnings)
	assert.True(t, *cfg.Default.Enabled)
	assert.Empty(t, cfg.ControlledUsers())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kidlock.toml")
	assert.NoError(t, os.WriteFile(path, sampleConfig, 0644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, 90, cfg.Users["alice"].Limit())
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadFromBytesMalformed(t *testing.T) {
	_, err := LoadFromBytes([]byte("[agent\npoll_interval = "))
	assert.Error(t, err)
}
