package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/scheduler"
	"github.com/i474232898/temperature-monitor/internal/store"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. TEMPMON_ADDR.
	EnvPrefix = "TEMPMON_"
	// FileEnv names an optional YAML file layered between defaults and env.
	FileEnv = "TEMPMON_CONFIG"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

var validate = validator.New()

// AppConfig holds the settings of both the monitor and the viewer.
type AppConfig struct {
	Addr     string `koanf:"addr" validate:"required"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogJSON  bool   `koanf:"log_json"`

	// DataPath is the root under which ModData/<world>/temperaturemonitor lives.
	DataPath string `koanf:"data_path" validate:"required"`
	WorldID  string `koanf:"world_id" validate:"required"`
	FileName string `koanf:"file_name" validate:"required"`
	Channel  string `koanf:"channel" validate:"required"`

	// TickInterval is real time between clock polls; SampleGranule is
	// simulated time between samples.
	TickInterval    time.Duration `koanf:"tick_interval" validate:"gt=0"`
	SampleGranule   time.Duration `koanf:"sample_granule" validate:"gt=0"`
	PersistDebounce time.Duration `koanf:"persist_debounce" validate:"gte=0"`

	DaysPerMonth  int     `koanf:"days_per_month" validate:"min=1,max=31"`
	HoursPerDay   float64 `koanf:"hours_per_day" validate:"gt=0"`
	StartYear     int     `koanf:"start_year" validate:"gte=0"`
	SimSpeed      float64 `koanf:"sim_speed" validate:"gt=0"`
	SimStartHours float64 `koanf:"sim_start_hours" validate:"gte=0"`

	Source          string        `koanf:"source" validate:"oneof=synthetic http"`
	SourceURL       string        `koanf:"source_url" validate:"required_if=Source http"`
	SourceTimeout   time.Duration `koanf:"source_timeout" validate:"gt=0"`
	BaseTemperature float64       `koanf:"base_temperature"`

	SpawnX int `koanf:"spawn_x"`
	SpawnY int `koanf:"spawn_y"`
	SpawnZ int `koanf:"spawn_z"`

	// AdminToken guards the sensor write commands. Empty disables them.
	AdminToken string `koanf:"admin_token"`

	// ServerURL is where the viewer sends data requests.
	ServerURL      string        `koanf:"server_url" validate:"required,url"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

// Default returns the built-in defaults.
func Default() *AppConfig {
	cal := climate.DefaultCalendar()
	return &AppConfig{
		Addr:            ":8080",
		LogLevel:        "info",
		DataPath:        "data",
		WorldID:         "default",
		FileName:        store.DefaultFileName,
		Channel:         channel.DefaultName,
		TickInterval:    scheduler.DefaultTick,
		SampleGranule:   scheduler.DefaultGranule,
		DaysPerMonth:    cal.DaysPerMonth,
		HoursPerDay:     cal.HoursPerDay,
		StartYear:       cal.StartYear,
		SimSpeed:        60,
		Source:          "synthetic",
		SourceTimeout:   10 * time.Second,
		BaseTemperature: 8,
		SpawnY:          110,
		ServerURL:       "http://localhost:8080/api/v1",
		RequestTimeout:  10 * time.Second,
	}
}

// Load reads configuration layered as defaults, then the YAML file named by
// TEMPMON_CONFIG, then TEMPMON_* environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Component("config").Info("could not load .env file", "error", err)
	}

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and the calendar.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Calendar().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Calendar returns the configured simulated calendar.
func (c *AppConfig) Calendar() climate.Calendar {
	return climate.Calendar{DaysPerMonth: c.DaysPerMonth, HoursPerDay: c.HoursPerDay, StartYear: c.StartYear}
}

// Spawn returns the configured world spawn point.
func (c *AppConfig) Spawn() climate.Position {
	return climate.Position{X: c.SpawnX, Y: c.SpawnY, Z: c.SpawnZ}
}

// WorldDir returns the per-world data directory.
func (c *AppConfig) WorldDir() string {
	return store.WorldDir(c.DataPath, c.WorldID)
}
