package vibesconfig

import (
	"fmt"

	"github.com/spf13/viper"
)

// PerAgentConfig toggles instrumentation for one agent type.
type PerAgentConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HostSettings is the settings-store surface the host consumes: recognized
// keys vibesEnabled, vibesAutoInit, vibesAssuranceLevel,
// vibesPerAgentConfig, vibesCheckBinaryPath. Loaded via viper + mapstructure, from
// `.vibes.yaml` plus VIBES_* environment overrides.
type HostSettings struct {
	Enabled         bool                      `mapstructure:"vibes_enabled"`
	AutoInit        bool                      `mapstructure:"vibes_auto_init"`
	AssuranceLevel  AssuranceLevel            `mapstructure:"vibes_assurance_level"`
	PerAgentConfig  map[string]PerAgentConfig `mapstructure:"vibes_per_agent_config"`
	CheckBinaryPath string                    `mapstructure:"vibes_check_binary_path"`
}

// knownInstrumentableAgents is the default-enabled set referenced by
// coordinator's process-spawn step 2: unknown agent types
// default to enabled iff they're in this set.
var knownInstrumentableAgents = map[string]bool{
	"claude-code": true,
	"codex":       true,
}

// LoadHostSettings loads settings from the process's viper instance
// (populated by cmd/vibesctl's cobra root from `.vibes.yaml` + VIBES_* env
// vars), applying defaults for anything unset.
func LoadHostSettings() (*HostSettings, error) {
	s := &HostSettings{}
	viper.SetDefault("vibes_enabled", true)
	viper.SetDefault("vibes_auto_init", true)
	if err := viper.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("vibesconfig: unmarshal host settings: %w", err)
	}
	applyHostDefaults(s)
	return s, nil
}

func applyHostDefaults(s *HostSettings) {
	if s.AssuranceLevel == "" {
		s.AssuranceLevel = AssuranceMedium
	}
	if s.PerAgentConfig == nil {
		s.PerAgentConfig = map[string]PerAgentConfig{}
	}
}

// AgentEnabled reports whether instrumentation is enabled for agentType,
// applying the "unknown agent types default to enabled iff known
// instrumentable" rule.
func (s *HostSettings) AgentEnabled(agentType string) bool {
	if cfg, ok := s.PerAgentConfig[agentType]; ok {
		return cfg.Enabled
	}
	return knownInstrumentableAgents[agentType]
}

// DefaultHostSettings returns settings with every default applied and
// nothing loaded from disk, used by tests and cmd/vibesctl's replay
// subcommand when no `.vibes.yaml` is present.
func DefaultHostSettings() *HostSettings {
	s := &HostSettings{Enabled: true, AutoInit: true}
	applyHostDefaults(s)
	return s
}
