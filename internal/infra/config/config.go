// Package config loads the dispatcher's runtime configuration from
// environment variables, with the constants table from the timing spec
// as defaults so a bare `env` overrides nothing by accident.
package config

import (
	"fmt"

	"github.com/caarlos0/env"

	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/domain"
)

// Config is the dispatcher process's full runtime configuration.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	NumElevators int `env:"NUM_ELEVATORS" envDefault:"4"`

	SchedulerPort int `env:"SCHEDULER_PORT" envDefault:"8000"`
	FloorPort     int `env:"FLOOR_PORT" envDefault:"8001"`
	CarPortBase   int `env:"CAR_PORT_BASE" envDefault:"9000"`

	TimeBetween1Floor     int `env:"TIME_BTWN_1_FLOOR" envDefault:"9"`
	TimeBetween2Floors    int `env:"TIME_BTWN_2_FLOORS" envDefault:"11"`
	TimeBetween3Floors    int `env:"TIME_BTWN_3_FLOORS" envDefault:"13"`
	TimeBetweenXPerFloor  int `env:"TIME_BTWN_X_FLOORS_PER_FLOOR" envDefault:"4"`
	TimeLoadUnloadPerRide int `env:"TIME_TO_LOAD_UNLOAD_1_PASSENGER" envDefault:"4"`
	TimeOpenCloseDoor     int `env:"TIME_TO_OPEN_CLOSE_DOOR" envDefault:"2"`
	RecoveryTime          int `env:"RECOVERY_TIME" envDefault:"5"`
	ElevatorCapacity      int `env:"ELEVATOR_CAPACITY" envDefault:"10"`

	MetricsEnabled   bool `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPort      int  `env:"METRICS_PORT" envDefault:"9100"`
	HealthEnabled    bool `env:"HEALTH_ENABLED" envDefault:"true"`
	HealthPort       int  `env:"HEALTH_PORT" envDefault:"9101"`
	WebSocketEnabled bool `env:"WEBSOCKET_ENABLED" envDefault:"true"`
	WebSocketPort    int  `env:"WEBSOCKET_PORT" envDefault:"9102"`

	ObservabilityEnabled bool `env:"OBSERVABILITY_ENABLED" envDefault:"true"`

	ShutdownGrace int `env:"SHUTDOWN_GRACE_UNITS" envDefault:"10"`
}

// InitConfig loads Config from the environment and validates it.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func validateConfiguration(cfg *Config) error {
	if cfg.NumElevators <= 0 || cfg.NumElevators > 1000 {
		return domain.NewValidationError("num elevators must be between 1 and 1000", nil).
			WithContext("num_elevators", cfg.NumElevators)
	}

	for _, p := range []struct {
		name  string
		value int
	}{
		{"scheduler_port", cfg.SchedulerPort},
		{"floor_port", cfg.FloorPort},
		{"car_port_base", cfg.CarPortBase},
		{"metrics_port", cfg.MetricsPort},
		{"health_port", cfg.HealthPort},
		{"websocket_port", cfg.WebSocketPort},
	} {
		if p.value <= 0 || p.value > 65535 {
			return domain.NewValidationError(fmt.Sprintf("%s must be between 1 and 65535", p.name), nil).
				WithContext(p.name, p.value)
		}
	}

	if cfg.CarPortBase+cfg.NumElevators > 65535 {
		return domain.NewValidationError("car port range exceeds the maximum port number", nil).
			WithContext("car_port_base", cfg.CarPortBase).
			WithContext("num_elevators", cfg.NumElevators)
	}

	if cfg.RecoveryTime <= 0 {
		return domain.NewValidationError("recovery time must be positive", nil).
			WithContext("recovery_time", cfg.RecoveryTime)
	}

	if cfg.ElevatorCapacity <= 0 {
		return domain.NewValidationError("elevator capacity must be positive", nil).
			WithContext("elevator_capacity", cfg.ElevatorCapacity)
	}

	return nil
}

// Timing builds the constants.Timing table this config describes, so the
// car actor's move/door/load durations follow overridden env values
// instead of the package-level defaults.
func (c *Config) Timing() constants.Timing {
	return constants.Timing{
		Between1Floor:     c.TimeBetween1Floor,
		Between2Floors:    c.TimeBetween2Floors,
		Between3Floors:    c.TimeBetween3Floors,
		BetweenXPerFloor:  c.TimeBetweenXPerFloor,
		LoadUnloadPerRide: c.TimeLoadUnloadPerRide,
		OpenCloseDoor:     c.TimeOpenCloseDoor,
		Recovery:          c.RecoveryTime,
	}
}

// CarPort returns the loopback port a given car id listens on.
func (c *Config) CarPort(carID int) int {
	return c.CarPortBase + carID
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}
