// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/earable_monitor/internal/app"
	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/orientation"
)

func main() {
	configPath := flag.String("config", "earable_config.txt", "path to config file")
	mock := flag.Bool("mock", false, "run the built-in mock source instead of subscribing to MQTT")
	alpha := flag.Float64("alpha", orientation.DefaultSmoothing, "smoothing factor for -mock")
	unwrap := flag.Bool("unwrap", true, "unwrap angles before smoothing for -mock")
	flag.Parse()

	if *mock {
		log.Println("starting earable console (mock source)")
		if err := app.RunMockConsole(*alpha, *unwrap); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	log.Println("starting earable console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
