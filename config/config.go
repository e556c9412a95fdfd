// Package config loads the daemon configuration document: which control
// surfaces run, how to reach the broker, and how the rack is wired.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/open-rack-vent/orvcli/hardware"
)

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type MQTTConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Broker          string        `yaml:"broker"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

type Config struct {
	DeviceID      string               `yaml:"device_id"`
	Platform      hardware.Platform    `yaml:"platform"`
	PCBRevision   hardware.PCBRevision `yaml:"pcb_revision"`
	BlinkInterval time.Duration        `yaml:"blink_interval"`
	HTTP          HTTPConfig           `yaml:"http"`
	MQTT          MQTTConfig           `yaml:"mqtt"`
	WireMap       *hardware.WireMap    `yaml:"wire_map"`
}

// Load reads and validates the YAML config. Missing optional fields get
// defaults; environment variables override broker credentials so they can
// stay out of the file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	return finish(cfg)
}

// Default returns the configuration of the reference rack build.
func Default() Config {
	cfg, _ := finish(Config{})
	return cfg
}

func finish(cfg Config) (Config, error) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = "orv0"
	}
	if cfg.Platform == "" {
		cfg.Platform = hardware.PlatformBeagleBoneBlack
	}
	if cfg.PCBRevision == "" {
		cfg.PCBRevision = hardware.RevisionV100
	}
	if cfg.BlinkInterval <= 0 {
		cfg.BlinkInterval = time.Second
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = ":8000"
	}
	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://localhost:1883"
	}
	if cfg.MQTT.PublishInterval <= 0 {
		cfg.MQTT.PublishInterval = 30 * time.Second
	}
	if cfg.WireMap == nil {
		cfg.WireMap = hardware.DefaultWireMap()
	}

	if broker := os.Getenv("ORV_MQTT_BROKER"); broker != "" {
		cfg.MQTT.Broker = broker
	}
	if username := os.Getenv("ORV_MQTT_USERNAME"); username != "" {
		cfg.MQTT.Username = username
	}
	if password := os.Getenv("ORV_MQTT_PASSWORD"); password != "" {
		cfg.MQTT.Password = password
	}

	switch cfg.Platform {
	case hardware.PlatformBeagleBoneBlack, hardware.PlatformRaspberryPi:
	default:
		return Config{}, fmt.Errorf("unsupported platform: %q", cfg.Platform)
	}
	return cfg, nil
}
