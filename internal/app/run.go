// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motracker/internal/battery"
	"github.com/relabs-tech/motracker/internal/config"
	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/sinks"
	"github.com/relabs-tech/motracker/internal/system"
)

// RunAgent opens the hardware and sinks named by cfg and runs the agent
// until ctx is cancelled. A display or sink that cannot be opened is
// logged and left out; the agent still tracks with what remains.
func RunAgent(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	logger = loggerOrDefault(logger)
	parts := Parts{
		Source:  newSource(cfg),
		LoadAvg: system.LoadAvg,
	}

	needI2C := cfg.DisplayEnabled || cfg.BatteryEnabled
	if needI2C || cfg.PowerLatchPin != "" {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to initialize periph host: %w", err)
		}
	}

	if cfg.PowerLatchPin != "" {
		if err := holdLatch(cfg.PowerLatchPin); err != nil {
			logger.Printf("agent: %v", err)
		} else {
			logger.Printf("agent: power latch %s held high", cfg.PowerLatchPin)
		}
	}

	if needI2C {
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			logger.Printf("agent: I2C bus %q unavailable, running without display and battery governor: %v", cfg.I2CBus, err)
		} else {
			defer bus.Close()

			if cfg.DisplayEnabled {
				panel, err := openPanel(bus, cfg, logger)
				if err != nil {
					logger.Printf("agent: running without display: %v", err)
				} else {
					parts.Renderer = panel
				}
			}
			if cfg.BatteryEnabled {
				gauge := battery.NewI2CGauge(bus, cfg.BatteryI2CAddr)
				gauge.Settle = cfg.BatterySettle
				gauge.Offset = cfg.BatteryCapacityOffset
				parts.Gauge = gauge
				parts.Shutdown = &system.CommandShutdown{
					Command: cfg.ShutdownCommand,
					DryRun:  cfg.ShutdownDryRun,
					Logger:  logger,
				}
			}
		}
	}

	parts.Sinks = openSinks(ctx, cfg, logger)

	agent, err := NewAgent(cfg, parts, logger)
	if err != nil {
		for _, s := range parts.Sinks {
			s.Close()
		}
		return err
	}
	return agent.Run(ctx)
}

func newSource(cfg *config.Config) gps.Source {
	switch cfg.GNSSSource {
	case config.SourceNMEA:
		return &gps.NMEASource{PortName: cfg.GPSSerialPort, BaudRate: cfg.GPSBaudRate}
	case config.SourceSim:
		return &gps.SimSource{
			Latitude:  cfg.SimLatitude,
			Longitude: cfg.SimLongitude,
			Radius:    cfg.SimRadius,
			Speed:     cfg.SimSpeed,
			Interval:  time.Second,
		}
	}
	return &gps.GpsdSource{
		Addr:           cfg.GpsdAddr,
		ConnectTimeout: cfg.GpsdConnectTimeout,
		RxTimeout:      cfg.GpsdRxTimeout,
	}
}

// openSinks opens every sink the configuration enables.
func openSinks(ctx context.Context, cfg *config.Config, logger *log.Logger) []sinks.Sink {
	var out []sinks.Sink
	add := func(s sinks.Sink, err error) {
		if err != nil {
			logger.Printf("agent: sink disabled: %v", err)
			return
		}
		logger.Printf("agent: %s sink enabled", s.Name())
		out = append(out, s)
	}

	if cfg.InfluxURL != "" {
		add(sinks.NewInfluxSink(sinks.InfluxOptions{
			URL:         cfg.InfluxURL,
			Token:       cfg.InfluxToken,
			Org:         cfg.InfluxOrg,
			Bucket:      cfg.InfluxBucket,
			Measurement: cfg.InfluxMeasurement,
		}), nil)
	}
	if cfg.SQLDB != "" {
		s, err := sinks.OpenSQLSink(ctx, cfg.SQLDB)
		if err != nil {
			add(nil, err)
		} else {
			add(s, nil)
		}
	}
	if cfg.MQTTBroker != "" {
		s, err := sinks.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			add(nil, err)
		} else {
			add(s, nil)
		}
	}
	if cfg.DynamoTable != "" {
		s, err := sinks.NewDynamoSink(ctx, cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			add(nil, err)
		} else {
			add(s, nil)
		}
	}
	return out
}

func holdLatch(name string) error {
	pin, err := system.LatchPin(name)
	if err != nil {
		return err
	}
	return system.HoldPowerLatch(pin)
}

// RunPowerLatch drives the UPS latch pin high and holds it until ctx is
// cancelled.
func RunPowerLatch(ctx context.Context, pinName string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	if err := holdLatch(pinName); err != nil {
		return err
	}
	log.Printf("power_latch: %s held high", pinName)
	<-ctx.Done()
	return nil
}
