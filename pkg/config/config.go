// Package config loads the YAML settings shared by the engine and the
// drivers that run it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/param"
)

// Config is the root of a rackgo configuration file.
type Config struct {
	Engine Engine `yaml:"engine"`
	Log    Log    `yaml:"log"`
	Audio  Audio  `yaml:"audio"`
}

type Engine struct {
	SampleRate      float64 `yaml:"sampleRate"`
	BlockSize       int     `yaml:"blockSize"`
	Threads         int     `yaml:"threads"` // 0 means one per CPU
	CPUMeter        bool    `yaml:"cpuMeter"`
	SmoothingLambda float64 `yaml:"smoothingLambda"`
}

type Log struct {
	Level  string `yaml:"level"`
	Prefix string `yaml:"prefix"`
}

type Audio struct {
	Channels int           `yaml:"channels"`
	Output   string        `yaml:"output"`
	Duration time.Duration `yaml:"duration"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Engine: Engine{
			SampleRate:      48000,
			BlockSize:       256,
			CPUMeter:        true,
			SmoothingLambda: param.DefaultLambda,
		},
		Log: Log{
			Level:  "info",
			Prefix: "engine",
		},
		Audio: Audio{
			Channels: 2,
			Output:   "out.wav",
			Duration: 5 * time.Second,
		},
	}
}

// Load reads and validates the file at path. Keys missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.sampleRate must be positive, got %g", c.Engine.SampleRate))
	}
	if c.Engine.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.blockSize must be positive, got %d", c.Engine.BlockSize))
	}
	if c.Engine.Threads < 0 {
		errs = append(errs, fmt.Errorf("engine.threads must not be negative, got %d", c.Engine.Threads))
	}
	if c.Engine.SmoothingLambda <= 0 {
		errs = append(errs, fmt.Errorf("engine.smoothingLambda must be positive, got %g", c.Engine.SmoothingLambda))
	}
	if _, err := debug.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels))
	}
	if c.Audio.Duration < 0 {
		errs = append(errs, fmt.Errorf("audio.duration must not be negative, got %s", c.Audio.Duration))
	}
	return errors.Join(errs...)
}

// EngineConfig converts the engine section for engine.New.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		SampleRate:      c.Engine.SampleRate,
		Threads:         c.Engine.Threads,
		CPUMeter:        c.Engine.CPUMeter,
		SmoothingLambda: c.Engine.SmoothingLambda,
	}
}

// Logger builds a logger on stderr from the log section.
func (c *Config) Logger() *debug.Logger {
	l := debug.New(os.Stderr, c.Log.Prefix, debug.FlagLevel|debug.FlagPrefix)
	if level, err := debug.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(level)
	}
	return l
}

// Frames returns the render length in frames.
func (c *Config) Frames() int {
	return int(c.Audio.Duration.Seconds() * c.Engine.SampleRate)
}
