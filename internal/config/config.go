package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Flush      FlushConfig      `mapstructure:"flush"`
	Network    NetworkConfig    `mapstructure:"network"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Collab     CollabConfig     `mapstructure:"collab"`

	// ICEServers is handed verbatim to browser peers for their direct
	// media path; the server itself never touches media.
	ICEServers []string `mapstructure:"ice_servers"`
}

// FlushConfig controls the speech-buffer flush cycle.
type FlushConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MinBytes int           `mapstructure:"min_bytes"`
}

// NetworkConfig controls the adaptation state machine.
type NetworkConfig struct {
	RecoveryDwell time.Duration `mapstructure:"recovery_dwell"`
	NudgeAfter    time.Duration `mapstructure:"nudge_after"`
}

// EngagementConfig controls the idle-participant nudge endpoint.
type EngagementConfig struct {
	IdleNudgeAfter time.Duration `mapstructure:"idle_nudge_after"`
	NudgeBelow     float64       `mapstructure:"nudge_below"`
}

// CollabConfig points at the external transcription and summarization
// collaborators. An empty URL disables that collaborator.
type CollabConfig struct {
	TranscriberURL string        `mapstructure:"transcriber_url"`
	SummarizerURL  string        `mapstructure:"summarizer_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 262144)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("flush.interval", "3s")
	v.SetDefault("flush.min_bytes", 1024)
	v.SetDefault("network.recovery_dwell", "10s")
	v.SetDefault("network.nudge_after", "30s")
	v.SetDefault("engagement.idle_nudge_after", "5m")
	v.SetDefault("engagement.nudge_below", 0.3)
	v.SetDefault("collab.timeout", "15s")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
