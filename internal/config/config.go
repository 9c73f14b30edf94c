// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicScan   string
	TopicTF     string
	TopicParams string // prefix; updates arrive on TopicParams/<name>

	// Generator
	ScanRate   physic.Frequency // tick rate, e.g. "10Hz"
	ParamsFile string           // optional YAML parameter file
	LogTicks   bool

	// Web Server
	WebServerPort int
	PreviewSize   int // PNG preview edge length in pixels
}

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "scan-producer",
		MQTTClientIDConsole:  "scan-console",
		MQTTClientIDWeb:      "scan-web",
		TopicScan:            "dummy_scan",
		TopicTF:              "tf",
		TopicParams:          "scan_producer/params",
		ScanRate:             10 * physic.Hertz,
		WebServerPort:        8080,
		PreviewSize:          400,
	}
}

// TickInterval is the generator period derived from ScanRate.
func (c *Config) TickInterval() time.Duration {
	return c.ScanRate.Period()
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep the values from Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_SCAN":
		c.TopicScan = value
	case "TOPIC_TF":
		c.TopicTF = value
	case "TOPIC_PARAMS":
		c.TopicParams = strings.TrimSuffix(value, "/")

	// Generator
	case "SCAN_RATE":
		var f physic.Frequency
		if err := f.Set(value); err != nil {
			return fmt.Errorf("invalid SCAN_RATE %q: %w", value, err)
		}
		if f <= 0 {
			return fmt.Errorf("SCAN_RATE must be positive, got %s", f)
		}
		c.ScanRate = f
	case "PARAMS_FILE":
		c.ParamsFile = value
	case "LOG_TICKS":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_TICKS %q: %w", value, err)
		}
		c.LogTicks = b

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "PREVIEW_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PREVIEW_SIZE %q: %w", value, err)
		}
		if size < 64 || size > 4096 {
			return fmt.Errorf("PREVIEW_SIZE must be 64-4096, got %d", size)
		}
		c.PreviewSize = size

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicScan == "" {
		return fmt.Errorf("TOPIC_SCAN must not be empty")
	}
	if c.TopicTF == "" {
		return fmt.Errorf("TOPIC_TF must not be empty")
	}
	if c.TopicScan == c.TopicTF {
		return fmt.Errorf("TOPIC_SCAN and TOPIC_TF must differ (both %q)", c.TopicScan)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads the file; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
