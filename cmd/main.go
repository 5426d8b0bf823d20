package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"QlistAPI/internal/config"
	"QlistAPI/internal/db"
	"QlistAPI/internal/logger"
	"QlistAPI/internal/resource"
	"QlistAPI/internal/router"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(*debugFlag)

	if err := db.InitPostgres(cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("postgres_connected", nil)

	// Redis only backs the category resolver cache; run without it if down.
	db.InitRedis(cfg.RedisAddr)
	if err := db.PingRedis(); err != nil {
		logger.Warn("redis_unavailable", map[string]any{"error": err.Error()})
		db.RDB = nil
	} else {
		logger.Info("redis_connected", nil)
	}

	if err := resource.InitRegistry(cfg.ResourcesDir); err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("resources_initialized", map[string]any{"count": len(resource.Registry)})

	router.InitRoutes(cfg)

	logger.Info("server_start", map[string]any{"port": cfg.Port})
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
