package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game GameConfig `yaml:"game"`
}

// GameConfig tunes the state machine without re-deriving it: every
// canonical duration is a constant here, not a literal in the
// controllers.
type GameConfig struct {
	Tick          string `yaml:"tick"`
	AutoSnapshots int    `yaml:"auto_snapshots"`
	Timers        struct {
		DomainAnswer         string `yaml:"domain_answer"`
		PassedAnswer         string `yaml:"passed_answer"`
		BuzzWindow           string `yaml:"buzz_window"`
		BuzzerAnswer         string `yaml:"buzzer_answer"`
		ResultDomainComplete string `yaml:"result_domain_complete"`
		ResultMidDomain      string `yaml:"result_mid_domain"`
		ShowAnswer           string `yaml:"show_answer"`
		ResumeDomainAnswer   string `yaml:"resume_domain_answer"`
		ResumeBuzzerFirst    string `yaml:"resume_buzzer_first"`
		ResumeBuzzerLater    string `yaml:"resume_buzzer_later"`
	} `yaml:"timers"`
}

// Timers are the resolved game durations.
type Timers struct {
	DomainAnswer         time.Duration
	PassedAnswer         time.Duration
	BuzzWindow           time.Duration
	BuzzerAnswer         time.Duration
	ResultDomainComplete time.Duration
	ResultMidDomain      time.Duration
	ShowAnswer           time.Duration
	ResumeDomainAnswer   time.Duration
	ResumeBuzzerFirst    time.Duration
	ResumeBuzzerLater    time.Duration
}

// DefaultTimers matches the observed production values.
func DefaultTimers() Timers {
	return Timers{
		DomainAnswer:         60 * time.Second,
		PassedAnswer:         30 * time.Second,
		BuzzWindow:           10 * time.Second,
		BuzzerAnswer:         20 * time.Second,
		ResultDomainComplete: 15 * time.Second,
		ResultMidDomain:      10 * time.Second,
		ShowAnswer:           20 * time.Second,
		ResumeDomainAnswer:   60 * time.Second,
		ResumeBuzzerFirst:    30 * time.Second,
		ResumeBuzzerLater:    20 * time.Second,
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Resolve applies config overrides on top of the default durations.
func (g GameConfig) Resolve() Timers {
	t := DefaultTimers()
	t.DomainAnswer = TTLDuration(g.Timers.DomainAnswer, t.DomainAnswer)
	t.PassedAnswer = TTLDuration(g.Timers.PassedAnswer, t.PassedAnswer)
	t.BuzzWindow = TTLDuration(g.Timers.BuzzWindow, t.BuzzWindow)
	t.BuzzerAnswer = TTLDuration(g.Timers.BuzzerAnswer, t.BuzzerAnswer)
	t.ResultDomainComplete = TTLDuration(g.Timers.ResultDomainComplete, t.ResultDomainComplete)
	t.ResultMidDomain = TTLDuration(g.Timers.ResultMidDomain, t.ResultMidDomain)
	t.ShowAnswer = TTLDuration(g.Timers.ShowAnswer, t.ShowAnswer)
	t.ResumeDomainAnswer = TTLDuration(g.Timers.ResumeDomainAnswer, t.ResumeDomainAnswer)
	t.ResumeBuzzerFirst = TTLDuration(g.Timers.ResumeBuzzerFirst, t.ResumeBuzzerFirst)
	t.ResumeBuzzerLater = TTLDuration(g.Timers.ResumeBuzzerLater, t.ResumeBuzzerLater)
	return t
}

// TickInterval returns the expiry sweep interval.
func (g GameConfig) TickInterval() time.Duration {
	return TTLDuration(g.Tick, time.Second)
}

// AutoSnapshotLimit returns how many auto-snapshots to retain.
func (g GameConfig) AutoSnapshotLimit() int {
	if g.AutoSnapshots <= 0 {
		return 10
	}
	return g.AutoSnapshots
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
