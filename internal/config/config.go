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
	"time"
)

// GNSS source kinds.
const (
	SourceGpsd = "gpsd"
	SourceNMEA = "nmea"
	SourceSim  = "sim"
)

// Config holds all agent configuration values.
type Config struct {
	DeviceName string

	// GNSS
	GNSSSource         string
	GpsdAddr           string
	GpsdConnectTimeout time.Duration
	GpsdRxTimeout      time.Duration
	GPSSerialPort      string
	GPSBaudRate        int
	ReconnectDelay     time.Duration
	CellLevel          int

	// Simulated track for bench runs (GNSS_SOURCE=sim)
	SimLatitude  float64
	SimLongitude float64
	SimRadius    float64
	SimSpeed     float64

	// Time-series sink (disabled when InfluxURL is empty)
	InfluxURL         string
	InfluxToken       string
	InfluxOrg         string
	InfluxBucket      string
	InfluxMeasurement string

	// Relational sink (disabled when SQLDB is empty)
	SQLDB string

	// MQTT sink (disabled when MQTTBroker is empty)
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// DynamoDB sink (disabled when DynamoTable is empty)
	DynamoTable string
	AWSRegion   string

	SinkWriteTimeout time.Duration

	// I2C bus shared by the panel and the fuel gauge; "" picks the first bus
	I2CBus string

	// Display
	DisplayEnabled     bool
	DisplayMinInterval time.Duration
	DisplayMaxInterval time.Duration
	DisplayShowLoad    bool
	DisplayShiftFrames int

	// Battery
	BatteryEnabled          bool
	BatteryI2CAddr          uint16
	BatteryPollInterval     time.Duration
	BatteryFallbackInterval time.Duration
	BatterySettle           time.Duration
	BatteryCapacityOffset   float64
	BatteryCriticalPercent  float64
	ShutdownCommand         []string
	ShutdownDryRun          bool
	PowerLatchPin           string

	// Status server ("" disables)
	StatusAddr string
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		GNSSSource:         SourceGpsd,
		GpsdAddr:           "127.0.0.1:2947",
		GpsdConnectTimeout: 30 * time.Second,
		GpsdRxTimeout:      30 * time.Second,
		GPSSerialPort:      "/dev/serial0",
		GPSBaudRate:        9600,
		ReconnectDelay:     time.Second,
		CellLevel:          24,

		SimRadius: 200,
		SimSpeed:  10,

		InfluxMeasurement: "moto",
		MQTTClientID:      "motracker",
		MQTTTopic:         "motracker/fix",
		SinkWriteTimeout:  10 * time.Second,

		I2CBus: "1",

		DisplayEnabled:     true,
		DisplayMinInterval: 100 * time.Millisecond,
		DisplayMaxInterval: time.Second,
		DisplayShowLoad:    true,
		DisplayShiftFrames: 30,

		BatteryEnabled:          true,
		BatteryI2CAddr:          0x32,
		BatteryPollInterval:     10 * time.Second,
		BatteryFallbackInterval: 10 * time.Second,
		BatterySettle:           2 * time.Second,
		BatteryCriticalPercent:  15,
		ShutdownCommand:         []string{"/usr/bin/sudo", "/usr/bin/systemctl", "poweroff"},
	}
}

// Load reads the configuration file on top of Default.
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setValue sets a config field by key name.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "DEVICE_NAME":
		c.DeviceName = value

	// GNSS
	case "GNSS_SOURCE":
		c.GNSSSource = strings.ToLower(value)
	case "GPSD_ADDR":
		c.GpsdAddr = value
	case "GPSD_CONNECT_TIMEOUT_MS":
		c.GpsdConnectTimeout, err = parseMillis(key, value)
	case "GPSD_RX_TIMEOUT_MS":
		c.GpsdRxTimeout, err = parseMillis(key, value)
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value)
	case "RECONNECT_DELAY_MS":
		c.ReconnectDelay, err = parseMillis(key, value)
	case "CELL_LEVEL":
		c.CellLevel, err = parseInt(key, value)
	case "SIM_LAT":
		c.SimLatitude, err = parseFloat(key, value)
	case "SIM_LON":
		c.SimLongitude, err = parseFloat(key, value)
	case "SIM_RADIUS_M":
		c.SimRadius, err = parseFloat(key, value)
	case "SIM_SPEED_MPS":
		c.SimSpeed, err = parseFloat(key, value)

	// Sinks
	case "INFLUX_URL":
		c.InfluxURL = value
	case "INFLUX_TOKEN":
		c.InfluxToken = value
	case "INFLUX_ORG":
		c.InfluxOrg = value
	case "INFLUX_BUCKET":
		c.InfluxBucket = value
	case "INFLUX_MEASUREMENT":
		c.InfluxMeasurement = value
	case "SQL_DB":
		c.SQLDB = value
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value
	case "DYNAMO_TABLE":
		c.DynamoTable = value
	case "AWS_REGION":
		c.AWSRegion = value
	case "SINK_WRITE_TIMEOUT_MS":
		c.SinkWriteTimeout, err = parseMillis(key, value)

	case "I2C_BUS":
		c.I2CBus = value

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_MIN_INTERVAL_MS":
		c.DisplayMinInterval, err = parseMillis(key, value)
	case "DISPLAY_MAX_INTERVAL_MS":
		c.DisplayMaxInterval, err = parseMillis(key, value)
	case "DISPLAY_SHOW_LOAD":
		c.DisplayShowLoad, err = parseBool(key, value)
	case "DISPLAY_SHIFT_FRAMES":
		c.DisplayShiftFrames, err = parseInt(key, value)

	// Battery
	case "BATTERY_ENABLED":
		c.BatteryEnabled, err = parseBool(key, value)
	case "BATTERY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid BATTERY_I2C_ADDR %q: %w", value, perr)
		}
		c.BatteryI2CAddr = uint16(addr)
	case "BATTERY_POLL_INTERVAL_MS":
		c.BatteryPollInterval, err = parseMillis(key, value)
	case "BATTERY_FALLBACK_INTERVAL_MS":
		c.BatteryFallbackInterval, err = parseMillis(key, value)
	case "BATTERY_SETTLE_MS":
		c.BatterySettle, err = parseMillis(key, value)
	case "BATTERY_CAPACITY_OFFSET":
		c.BatteryCapacityOffset, err = parseFloat(key, value)
	case "BATTERY_CRITICAL_PERCENT":
		c.BatteryCriticalPercent, err = parseFloat(key, value)
	case "SHUTDOWN_COMMAND":
		c.ShutdownCommand = strings.Fields(value)
	case "SHUTDOWN_DRY_RUN":
		c.ShutdownDryRun, err = parseBool(key, value)
	case "POWER_LATCH_PIN":
		c.PowerLatchPin = value

	case "STATUS_ADDR":
		c.StatusAddr = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// parseMillis reads a millisecond count.
func parseMillis(key, value string) (time.Duration, error) {
	ms, err := parseInt(key, value)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("DEVICE_NAME is required")
	}
	switch c.GNSSSource {
	case SourceGpsd:
		if c.GpsdAddr == "" {
			return fmt.Errorf("GPSD_ADDR is required for GNSS_SOURCE=gpsd")
		}
	case SourceNMEA:
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required for GNSS_SOURCE=nmea")
		}
		if c.GPSBaudRate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
		}
	case SourceSim:
		if c.SimLatitude < -90 || c.SimLatitude > 90 || c.SimLongitude < -180 || c.SimLongitude > 180 {
			return fmt.Errorf("SIM_LAT/SIM_LON out of range: %v,%v", c.SimLatitude, c.SimLongitude)
		}
	default:
		return fmt.Errorf("GNSS_SOURCE must be %q, %q or %q, got %q", SourceGpsd, SourceNMEA, SourceSim, c.GNSSSource)
	}
	if c.CellLevel < 0 || c.CellLevel > 30 {
		return fmt.Errorf("CELL_LEVEL must be 0-30, got %d", c.CellLevel)
	}

	positive := []struct {
		key string
		d   time.Duration
	}{
		{"GPSD_CONNECT_TIMEOUT_MS", c.GpsdConnectTimeout},
		{"GPSD_RX_TIMEOUT_MS", c.GpsdRxTimeout},
		{"RECONNECT_DELAY_MS", c.ReconnectDelay},
		{"SINK_WRITE_TIMEOUT_MS", c.SinkWriteTimeout},
		{"DISPLAY_MIN_INTERVAL_MS", c.DisplayMinInterval},
		{"DISPLAY_MAX_INTERVAL_MS", c.DisplayMaxInterval},
		{"BATTERY_POLL_INTERVAL_MS", c.BatteryPollInterval},
		{"BATTERY_FALLBACK_INTERVAL_MS", c.BatteryFallbackInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.key, p.d)
		}
	}
	if c.DisplayMinInterval > c.DisplayMaxInterval {
		return fmt.Errorf("DISPLAY_MIN_INTERVAL_MS (%s) exceeds DISPLAY_MAX_INTERVAL_MS (%s)",
			c.DisplayMinInterval, c.DisplayMaxInterval)
	}
	if c.BatterySettle < 0 {
		return fmt.Errorf("BATTERY_SETTLE_MS must not be negative, got %s", c.BatterySettle)
	}
	if c.BatteryCriticalPercent < 0 || c.BatteryCriticalPercent > 100 {
		return fmt.Errorf("BATTERY_CRITICAL_PERCENT must be 0-100, got %v", c.BatteryCriticalPercent)
	}
	if c.BatteryEnabled && !c.ShutdownDryRun && len(c.ShutdownCommand) == 0 {
		return fmt.Errorf("SHUTDOWN_COMMAND is required when the battery governor is enabled")
	}
	if c.InfluxURL != "" && c.InfluxBucket == "" {
		return fmt.Errorf("INFLUX_BUCKET is required when INFLUX_URL is set")
	}
	if c.DynamoTable != "" && c.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION is required when DYNAMO_TABLE is set")
	}
	return nil
}
