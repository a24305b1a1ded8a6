package main

import (
	"flag"
	"log/slog"
	"os"

	"cn-data/internal/app"
	"cn-data/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	configPath := flag.String("config", "config/cn-data.yaml", "config file path")
	flag.Parse()

	d, err := InitializeDaemon(app.ConfigPath(*configPath))
	if err != nil {
		slog.Error("failed to initialize daemon", "error", err)
		os.Exit(1)
	}

	if err := d.Run(); err != nil {
		slog.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}
