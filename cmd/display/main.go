package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/earable_monitor/internal/app"
	"github.com/relabs-tech/earable_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "earable_config.txt", "path to config file")
	flag.Parse()

	log.Println("starting earable OLED display (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
