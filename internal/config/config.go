package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	TranscriptFormatNative   = "native"
	TranscriptFormatDeepgram = "deepgram"

	AudioBackendMiniaudio = "miniaudio"
	AudioBackendPortaudio = "portaudio"

	DisplayTUI = "tui"
	DisplayLog = "log"
)

type Config struct {
	TranscriptWSURL   string        `env:"TRANSCRIPT_WS_URL"`
	TranscriptFormat  string        `env:"TRANSCRIPT_FORMAT" envDefault:"native"`
	ReconnectInterval time.Duration `env:"RECONNECT_INTERVAL" envDefault:"3s"`

	RealtimeRelayURL string `env:"REALTIME_RELAY_URL"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`

	AudioBackend string `env:"AUDIO_BACKEND" envDefault:"miniaudio"`
	SampleRate   int    `env:"SAMPLE_RATE" envDefault:"24000"`

	AgentSpeaker      string   `env:"AGENT_SPEAKER" envDefault:"Aida"`
	AgentInstructions string   `env:"AGENT_INSTRUCTIONS"`
	AgentGreeting     string   `env:"AGENT_GREETING" envDefault:"Hello!"`
	WakePhrases       []string `env:"WAKE_PHRASES"`
	MutePhrases       []string `env:"MUTE_PHRASES"`
	AutoConnect       bool     `env:"AUTO_CONNECT" envDefault:"false"`

	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8090"`
	DisplayMode string `env:"DISPLAY_MODE" envDefault:"tui"`
	LogFile     string `env:"LOG_FILE"`
	TraceStdout bool   `env:"TRACE_STDOUT" envDefault:"false"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"aida.transcript"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile          string
	TranscriptWSURL  string
	RealtimeRelayURL string
	AudioBackend     string
	HTTPAddr         string
	DisplayMode      string
	AutoConnect      bool
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.TranscriptWSURL != "" {
		cfg.TranscriptWSURL = overrides.TranscriptWSURL
	}
	if overrides.RealtimeRelayURL != "" {
		cfg.RealtimeRelayURL = overrides.RealtimeRelayURL
	}
	if overrides.AudioBackend != "" {
		cfg.AudioBackend = overrides.AudioBackend
	}
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.DisplayMode != "" {
		cfg.DisplayMode = overrides.DisplayMode
	}
	if overrides.AutoConnect {
		cfg.AutoConnect = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and enums. The URLs may come from flags, so
// they are checked here instead of at parse time.
func (c *Config) Validate() error {
	if c.TranscriptWSURL == "" {
		return fmt.Errorf("TRANSCRIPT_WS_URL is required")
	}
	if c.RealtimeRelayURL == "" {
		return fmt.Errorf("REALTIME_RELAY_URL is required")
	}
	if err := oneOf("TRANSCRIPT_FORMAT", c.TranscriptFormat, TranscriptFormatNative, TranscriptFormatDeepgram); err != nil {
		return err
	}
	if err := oneOf("AUDIO_BACKEND", c.AudioBackend, AudioBackendMiniaudio, AudioBackendPortaudio); err != nil {
		return err
	}
	if err := oneOf("DISPLAY_MODE", c.DisplayMode, DisplayTUI, DisplayLog); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("RECONNECT_INTERVAL must be positive, got %s", c.ReconnectInterval)
	}
	if c.KafkaEnabled && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when KAFKA_ENABLED is set")
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %v, got %q", name, allowed, value)
	}
	return nil
}
