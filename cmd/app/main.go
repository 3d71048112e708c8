package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"TradeSage/internal/di"
	"TradeSage/pkg/config"
)

func main() {
	// Local overrides; absence is fine in containers
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s", cfg.Environment, cfg.Backend.Type)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)
	log.Printf("kafka: brokers=%v ticks=%s signals=%s", cfg.Kafka.Brokers, cfg.Kafka.TicksTopic, cfg.Kafka.SignalsTopic)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
