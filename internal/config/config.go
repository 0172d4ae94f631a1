// Package config loads the regime CLI configuration from YAML with defaults,
// environment overrides and struct validation.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/hmmgo/hmm"
	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

var validate = validator.New()

type Config struct {
	Training TrainingConfig `yaml:"training"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

type TrainingConfig struct {
	NStates       int     `yaml:"n_states" default:"2" validate:"gte=1,lte=8"`
	MaxIterations int     `yaml:"max_iterations" default:"100" validate:"gte=1"`
	Tolerance     float64 `yaml:"tolerance" default:"1e-6" validate:"gte=0"`
	Seed          uint64  `yaml:"seed" default:"42"`
	KeepHistory   bool    `yaml:"keep_history"`
}

type InputConfig struct {
	Path      string `yaml:"path"`
	Column    string `yaml:"column" default:"close" validate:"required"`
	HasHeader bool   `yaml:"has_header" default:"true"`
	// Returns selects how closes become observations: "pct" or "log".
	Returns string `yaml:"returns" default:"pct" validate:"oneof=pct log"`
}

type OutputConfig struct {
	ModelPath     string `yaml:"model_path"`
	PlotDir       string `yaml:"plot_dir"`
	ForecastSteps int    `yaml:"forecast_steps" default:"10" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
}

// Default returns a Config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "set config defaults")
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Keys missing from the file
// keep their defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with HMM_SEED,
// HMM_STATES and LOG_LEVEL.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HMM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError("HMM_SEED", "must be an unsigned integer", v)
		}
		c.Training.Seed = seed
	}
	if v := os.Getenv("HMM_STATES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.NewValidationError("HMM_STATES", "must be an integer", v)
		}
		c.Training.NStates = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration against its validate tags and reports
// the first violation as a ValidationError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return errors.NewValidationError(yamlPath(fe.StructNamespace()), errorMessage(fe), fe.Value())
	}
	return errors.Wrap(err, "validate config")
}

// TrainConfig converts the training section into an hmm.TrainConfig.
func (t TrainingConfig) TrainConfig() hmm.TrainConfig {
	return hmm.TrainConfig{
		NStates:       t.NStates,
		MaxIterations: t.MaxIterations,
		Tolerance:     t.Tolerance,
		Seed:          t.Seed,
		KeepHistory:   t.KeepHistory,
	}
}

// yamlPath converts "Config.Training.NStates" into "training.n_states".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}

	typ := reflect.TypeOf(Config{})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		f, ok := typ.FieldByName(p)
		if !ok {
			out = append(out, p)
			continue
		}
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "" {
			name = strings.ToLower(p)
		}
		out = append(out, name)
		typ = f.Type
	}
	return strings.Join(out, ".")
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
