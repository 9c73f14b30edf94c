// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/scan_producer/internal/config"
	"github.com/relabs-tech/scan_producer/internal/generator"
	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
)

// consolePublisher prints every tick instead of sending it to a broker.
type consolePublisher struct {
	w io.Writer
}

func (p consolePublisher) PublishScan(s *scan.Scan) error {
	_, err := fmt.Fprintln(p.w, formatScan(s))
	return err
}

func (p consolePublisher) PublishTransform(t tf.Stamped) error {
	_, err := fmt.Fprintln(p.w, formatTransform(t))
	return err
}

// RunMockConsole runs the generator without MQTT and prints each tick to
// stdout until SIGINT/SIGTERM. Parameters come from the YAML file only.
func RunMockConsole(paramsPath string) error {
	cfg := config.Get()

	store, err := loadParams(paramsPath, cfg.ParamsFile)
	if err != nil {
		return err
	}

	gen := generator.New(store, consolePublisher{w: os.Stdout}, generator.Options{
		Interval: cfg.TickInterval(),
		LogTicks: cfg.LogTicks,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return runUntilSignal(ctx, cancel, gen.Run)
}
