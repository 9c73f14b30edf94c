// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/scan_producer/internal/app"
	"github.com/relabs-tech/scan_producer/internal/config"
)

func main() {
	configPath := flag.String("config", "./scan_config.txt", "path to configuration file")
	paramsPath := flag.String("params", "", "path to YAML parameter file (overrides PARAMS_FILE)")
	flag.Parse()

	log.Println("starting dummy scan producer (scan + tf → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunScanProducer(*paramsPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
