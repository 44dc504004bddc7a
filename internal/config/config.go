// Package config loads screenwise configuration from defaults, an optional
// YAML file, a .env file and SCREENWISE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/progression"
	"github.com/abhisek/screenwise/internal/risk"
)

// DefaultSessionCap is the number of answers after which a session ends.
const DefaultSessionCap = 15

// Risk backends.
const (
	BackendRules = "rules"
	BackendModel = "model"
	BackendLLM   = "llm"
)

// Config is the complete runtime configuration.
type Config struct {
	DB          string            `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	Progression ProgressionConfig `yaml:"progression"`
	Session     SessionConfig     `yaml:"session"`
	Risk        RiskConfig        `yaml:"risk"`
	Models      ModelsConfig      `yaml:"models"`
	Questions   QuestionsConfig   `yaml:"questions"`
}

type LogConfig struct {
	Level  logging.Level `yaml:"level" validate:"oneof=debug info warn error"`
	Format string        `yaml:"format" validate:"oneof=console json"`
}

// ProgressionConfig selects response-time thresholds. Explicit thresholds
// win over the named profile.
type ProgressionConfig struct {
	Profile    string                  `yaml:"profile" validate:"oneof=lenient strict"`
	Thresholds *progression.Thresholds `yaml:"thresholds"`
}

type SessionConfig struct {
	Cap      int    `yaml:"cap" validate:"gte=1,lte=100"`
	AgeGroup string `yaml:"age_group"`
}

type RiskConfig struct {
	Backend     string           `yaml:"backend" validate:"oneof=rules model llm"`
	Calibration risk.Calibration `yaml:"calibration"`
}

// ModelsConfig points at learned model artifacts. An empty path disables
// the learned path for that site.
type ModelsConfig struct {
	SelectionPath string `yaml:"selection_path"`
	RiskPath      string `yaml:"risk_path"`
}

type QuestionsConfig struct {
	// LLM enables LLM question generation in front of the templates.
	LLM bool `yaml:"llm"`
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Log:         LogConfig{Level: logging.WarnLevel, Format: "console"},
		Progression: ProgressionConfig{Profile: progression.ProfileLenient},
		Session:     SessionConfig{Cap: DefaultSessionCap},
		Risk:        RiskConfig{Backend: BackendRules, Calibration: risk.DefaultCalibration()},
	}
}

// Thresholds resolves the progression thresholds.
func (c *Config) Thresholds() progression.Thresholds {
	if c.Progression.Thresholds != nil {
		return *c.Progression.Thresholds
	}
	th, err := progression.ProfileThresholds(c.Progression.Profile)
	if err != nil {
		return progression.Lenient
	}
	return th
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Risk.Backend == BackendModel && c.Models.RiskPath == "" {
		return fmt.Errorf("invalid config: risk backend %q needs models.risk_path", BackendModel)
	}
	return nil
}

// Load builds the configuration. path may be empty, in which case
// SCREENWISE_CONFIG is consulted; a missing file at an explicit path is
// an error.
func Load(path string) (*Config, error) {
	// .env is optional; existing environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("SCREENWISE_CONFIG")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"SCREENWISE_DB":              &cfg.DB,
		"SCREENWISE_LOG_FORMAT":      &cfg.Log.Format,
		"SCREENWISE_PROFILE":         &cfg.Progression.Profile,
		"SCREENWISE_AGE_GROUP":       &cfg.Session.AgeGroup,
		"SCREENWISE_RISK_BACKEND":    &cfg.Risk.Backend,
		"SCREENWISE_SELECTION_MODEL": &cfg.Models.SelectionPath,
		"SCREENWISE_RISK_MODEL":      &cfg.Models.RiskPath,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("SCREENWISE_LOG_LEVEL"); ok {
		cfg.Log.Level = logging.Level(strings.ToLower(v))
	}
	if v, ok := os.LookupEnv("SCREENWISE_SESSION_CAP"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCREENWISE_SESSION_CAP: %w", err)
		}
		cfg.Session.Cap = n
	}
	if v, ok := os.LookupEnv("SCREENWISE_QUESTIONS_LLM"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCREENWISE_QUESTIONS_LLM: %w", err)
		}
		cfg.Questions.LLM = b
	}
	return nil
}
