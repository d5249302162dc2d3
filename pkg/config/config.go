// Package config loads and validates the YAML run configuration of the
// oddvibe tools.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/datasets"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/robust"
)

const (
	dirMode  = 0700
	fileMode = 0600
)

// Config is one run of the booster.
type Config struct {
	Seed           int64   `yaml:"seed" json:"seed"`
	Iterations     int     `yaml:"iterations" json:"iterations" validate:"gte=1"`
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate" validate:"gt=0,lte=1"`
	Policy         string  `yaml:"policy" json:"policy" validate:"oneof=cauchy welsch tukey huber"`
	Cutoff         float64 `yaml:"cutoff" json:"cutoff" validate:"gte=0"`
	MaxFeatures    int     `yaml:"max_features" json:"max_features" validate:"gte=0"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf" json:"min_samples_leaf" validate:"gte=1"`
	Bootstrap      bool    `yaml:"bootstrap" json:"bootstrap"`
	ScaleFloor     float64 `yaml:"scale_floor" json:"scale_floor" validate:"gte=0,lte=1"`
	LogLevel       string  `yaml:"log_level" json:"log_level" validate:"oneof=trace debug info warn error disabled"`

	// Data configures the synthetic generator used by the demo command.
	Data *datasets.CorruptedLinear `yaml:"data,omitempty" json:"data,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Seed:           1480561820,
		Iterations:     5000,
		LearningRate:   boost.DefaultLearningRate,
		Policy:         "cauchy",
		Cutoff:         0,
		MaxFeatures:    0,
		MinSamplesLeaf: 5,
		ScaleFloor:     boost.DefaultScaleFloor,
		LogLevel:       "warn",
	}
}

// Validate checks every field and returns a ValueError naming the first
// offending ones.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return errors.NewValueError(op, "config required")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return errors.NewValueError(op, strings.Join(msgs, "; "))
		}
		return errors.Wrap(err, op)
	}

	if c.Data != nil {
		if err := c.Data.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BoosterOptions translates the configuration into booster options.
func (c *Config) BoosterOptions() ([]boost.Option, error) {
	policy, err := robust.NewPolicy(c.Policy, c.Cutoff)
	if err != nil {
		return nil, err
	}
	return []boost.Option{
		boost.WithLearningRate(c.LearningRate),
		boost.WithPolicy(policy),
		boost.WithMaxFeatures(c.MaxFeatures),
		boost.WithMinSamplesLeaf(c.MinSamplesLeaf),
		boost.WithBootstrap(c.Bootstrap),
		boost.WithScaleFloor(c.ScaleFloor),
	}, nil
}

// NewBooster builds a booster from the configuration.
func (c *Config) NewBooster(extra ...boost.Option) (*boost.Booster, error) {
	opts, err := c.BoosterOptions()
	if err != nil {
		return nil, err
	}
	return boost.NewBooster(c.Seed, append(opts, extra...)...), nil
}

// Load reads a configuration file. Fields missing from the file keep their
// defaults; unknown fields are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	return Parse(b)
}

// Parse decodes a configuration document over the defaults and validates it.
func Parse(b []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path, creating the parent directory if needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}
