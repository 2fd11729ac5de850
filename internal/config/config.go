// Package config provides configuration management for arlock using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the ARLOCK_ prefix, and validation. It covers session
// behavior (feature descriptors, sensor placement distance), camera
// selection, the model catalog directory, bridge listen settings, and
// logging.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Camera  CameraConfig  `yaml:"camera" mapstructure:"camera"`
	Models  ModelsConfig  `yaml:"models" mapstructure:"models"`
	Bridge  BridgeConfig  `yaml:"bridge" mapstructure:"bridge"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

type SessionConfig struct {
	RequiredFeatures []string `yaml:"required_features" mapstructure:"required_features"`
	OptionalFeatures []string `yaml:"optional_features" mapstructure:"optional_features"`

	// PlaceDistance is how far in front of the camera the sensor
	// fallback places objects, in meters.
	PlaceDistance float64 `yaml:"place_distance" mapstructure:"place_distance"`
}

type CameraConfig struct {
	DeviceID string `yaml:"device_id" mapstructure:"device_id"`
	Width    int    `yaml:"width" mapstructure:"width"`
	Height   int    `yaml:"height" mapstructure:"height"`
}

type ModelsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type BridgeConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SetDefaults registers defaults on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("session.required_features", []string{"hit-test"})
	v.SetDefault("session.optional_features", []string{"anchors", "local-floor"})
	v.SetDefault("session.place_distance", 3.0)
	v.SetDefault("camera.width", 1280)
	v.SetDefault("camera.height", 720)
	v.SetDefault("models.dir", "./models")
	v.SetDefault("bridge.host", "localhost")
	v.SetDefault("bridge.port", 9223)
	v.SetDefault("bridge.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load unmarshals the global viper state into a validated Config.
func Load() (*Config, error) {
	SetDefaults(viper.GetViper())

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workaround for viper slice handling when values come from env.
	if viper.IsSet("session.required_features") && len(config.Session.RequiredFeatures) == 0 {
		config.Session.RequiredFeatures = viper.GetStringSlice("session.required_features")
	}
	if viper.IsSet("session.optional_features") && len(config.Session.OptionalFeatures) == 0 {
		config.Session.OptionalFeatures = viper.GetStringSlice("session.optional_features")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Session.PlaceDistance <= 0 {
		problems = append(problems, fmt.Sprintf("session.place_distance must be positive, got %v", c.Session.PlaceDistance))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		problems = append(problems, fmt.Sprintf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Bridge.Port < 0 || c.Bridge.Port > 65535 {
		problems = append(problems, fmt.Sprintf("bridge.port out of range: %d", c.Bridge.Port))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
