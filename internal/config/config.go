package config

import (
	"fmt"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-session-engine/internal/bank"
	"quiz-session-engine/internal/daily"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/scoring"
	"quiz-session-engine/internal/session"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		// File is a YAML bank file; empty uses the embedded default bank.
		File string `yaml:"file"`
		TTL  string `yaml:"ttl"`
	} `yaml:"bank"`
	Quiz  QuizConfig  `yaml:"quiz"`
	Daily DailyConfig `yaml:"daily"`
}

// QuizConfig carries the game-balance knobs of practice sessions.
type QuizConfig struct {
	QuestionsPerSession int            `yaml:"questions_per_session"`
	Strict              bool           `yaml:"strict"`
	MaxHints            int            `yaml:"max_hints"`
	FastCompletion      string         `yaml:"fast_completion"`
	Points              map[string]int `yaml:"points"`
	TimeLimits          map[string]int `yaml:"time_limits"`
}

type DailyConfig struct {
	Questions int    `yaml:"questions"`
	Salt      string `yaml:"salt"`
	Bank      string `yaml:"bank"`
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

// Session builds the session config, layering overrides on the defaults.
func (c Config) Session() (session.Config, error) {
	cfg := session.DefaultConfig()
	cfg.QuestionsPerSession = c.Quiz.QuestionsPerSession
	cfg.Strict = c.Quiz.Strict
	if c.Quiz.MaxHints != 0 {
		cfg.MaxHints = c.Quiz.MaxHints
	}
	if c.Quiz.FastCompletion != "" {
		cfg.FastCompletionSeconds = int(TTLDuration(c.Quiz.FastCompletion, time.Duration(cfg.FastCompletionSeconds)*time.Second) / time.Second)
	}

	balance := scoring.DefaultBalance()
	balance.Points = maps.Clone(balance.Points)
	for raw, points := range c.Quiz.Points {
		d := domain.Difficulty(raw)
		if !d.Valid() || points < 0 {
			return session.Config{}, fmt.Errorf("quiz.points: invalid entry %s=%d", raw, points)
		}
		balance.Points[d] = points
	}
	for raw, seconds := range c.Quiz.TimeLimits {
		d := domain.Difficulty(raw)
		if !d.Valid() || seconds < 1 {
			return session.Config{}, fmt.Errorf("quiz.time_limits: invalid entry %s=%d", raw, seconds)
		}
		if balance.TimeLimits == nil {
			balance.TimeLimits = make(map[domain.Difficulty]int)
		}
		balance.TimeLimits[d] = seconds
	}
	cfg.Balance = balance
	return cfg, nil
}

// DailyChallenge builds the daily challenge config over the given session config.
func (c Config) DailyChallenge(sess session.Config) daily.Config {
	return daily.Config{
		Questions: c.Daily.Questions,
		Salt:      c.Daily.Salt,
		Session:   sess,
	}
}

// DailyBank is the bank id daily questions are loaded from.
func (c Config) DailyBank() string {
	if c.Daily.Bank == "" {
		return bank.DailyBankID
	}
	return c.Daily.Bank
}
