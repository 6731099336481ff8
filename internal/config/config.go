package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the application configuration. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	Bounds  BoundsConfig  `yaml:"bounds"`
	Timing  TimingConfig  `yaml:"timing"`
	Queue   QueueConfig   `yaml:"queue"`
	Tasks   TasksConfig   `yaml:"tasks"`
	Console ConsoleConfig `yaml:"console"`
	Monitor MonitorConfig `yaml:"monitor"`
	Log     LogConfig     `yaml:"log"`
}

// BoundsConfig holds the raw (mV) and physical (milli-degrees Celsius) ranges.
type BoundsConfig struct {
	RawLow        int64 `yaml:"raw_low"`
	RawHigh       int64 `yaml:"raw_high"`
	PhysLow       int64 `yaml:"phys_low"`
	PhysHigh      int64 `yaml:"phys_high"`
	StepMagnitude int64 `yaml:"step_magnitude"`
}

// TimingConfig holds the tick duration and the task periods, in ticks.
type TimingConfig struct {
	Tick             time.Duration `yaml:"tick"`
	Period           uint32        `yaml:"period"`
	ConsumerThrottle uint32        `yaml:"consumer_throttle"`
}

// QueueConfig contains sample channel parameters.
type QueueConfig struct {
	Length int `yaml:"length"`
}

// TasksConfig contains task priorities. Higher runs first.
type TasksConfig struct {
	ConsumerPriority int `yaml:"consumer_priority"`
	ProducerPriority int `yaml:"producer_priority"`
}

// ConsoleConfig selects the report sink. An empty port means stdout.
type ConsoleConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MonitorConfig contains the diagnostic monitor interval (0 = disabled).
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Bounds: BoundsConfig{
			RawLow:        0,
			RawHigh:       10000,
			PhysLow:       -25000,
			PhysHigh:      85000,
			StepMagnitude: (10000 - 0) / 20,
		},
		Timing: TimingConfig{
			Tick:             time.Millisecond,
			Period:           1000,
			ConsumerThrottle: 1000,
		},
		Queue: QueueConfig{
			Length: 1,
		},
		Tasks: TasksConfig{
			ConsumerPriority: 2,
			ProducerPriority: 1,
		},
		Console: ConsoleConfig{
			Port:     "",
			BaudRate: 115200,
		},
		Monitor: MonitorConfig{
			Interval: 10 * time.Second,
		},
		Log: LogConfig{
			File:  "",
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	b := c.Bounds
	switch {
	case b.StepMagnitude <= 0:
		return fmt.Errorf("%w: step_magnitude must be positive, got %d", ErrInvalid, b.StepMagnitude)
	case b.RawHigh <= b.RawLow:
		return fmt.Errorf("%w: raw_high (%d) must exceed raw_low (%d)", ErrInvalid, b.RawHigh, b.RawLow)
	case b.RawLow < 0 || b.RawHigh > math.MaxInt32-b.StepMagnitude:
		// values cross the queue as 32-bit words, including one step of overshoot
		return fmt.Errorf("%w: raw bounds [%d, %d] do not fit a 32-bit sample", ErrInvalid, b.RawLow, b.RawHigh)
	case b.PhysHigh <= b.PhysLow:
		return fmt.Errorf("%w: phys_high (%d) must exceed phys_low (%d)", ErrInvalid, b.PhysHigh, b.PhysLow)
	case c.Timing.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive", ErrInvalid)
	case c.Timing.Period == 0:
		return fmt.Errorf("%w: period must be at least one tick", ErrInvalid)
	case c.Timing.ConsumerThrottle == 0:
		return fmt.Errorf("%w: consumer_throttle must be at least one tick", ErrInvalid)
	case c.Queue.Length < 1:
		return fmt.Errorf("%w: queue length must be at least 1, got %d", ErrInvalid, c.Queue.Length)
	case c.Tasks.ConsumerPriority <= c.Tasks.ProducerPriority:
		return fmt.Errorf("%w: consumer_priority (%d) must exceed producer_priority (%d)",
			ErrInvalid, c.Tasks.ConsumerPriority, c.Tasks.ProducerPriority)
	}
	return nil
}

// ensureDefaults fills fields that a partial file leaves at their zero value.
// Bounds are taken as a whole: a zero raw_low or phys_low is legitimate.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Bounds == (BoundsConfig{}) {
		c.Bounds = def.Bounds
	}
	if c.Bounds.StepMagnitude == 0 {
		c.Bounds.StepMagnitude = (c.Bounds.RawHigh - c.Bounds.RawLow) / 20
	}

	if c.Timing.Tick == 0 {
		c.Timing.Tick = def.Timing.Tick
	}
	if c.Timing.Period == 0 {
		c.Timing.Period = def.Timing.Period
	}
	if c.Timing.ConsumerThrottle == 0 {
		c.Timing.ConsumerThrottle = def.Timing.ConsumerThrottle
	}

	if c.Queue.Length == 0 {
		c.Queue.Length = def.Queue.Length
	}

	if c.Tasks == (TasksConfig{}) {
		c.Tasks = def.Tasks
	}

	if c.Console.BaudRate == 0 {
		c.Console.BaudRate = def.Console.BaudRate
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
