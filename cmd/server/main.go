package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/yauth/internal/app"
	"github.com/nfrund/yauth/internal/config"
	"github.com/nfrund/yauth/internal/logging"
)

func main() {
	logger := logging.New()

	cfg, err := config.New()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	injector := app.NewContainer(cfg, logger)
	runErr := app.Run(context.Background(), injector)
	_ = injector.Shutdown()

	if runErr != nil {
		slog.Error("Server stopped", "error", runErr)
		os.Exit(1)
	}
}
