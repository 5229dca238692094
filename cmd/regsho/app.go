package main

import (
	"log/slog"

	"regsho/internal/app"
)

// App holds application dependencies built by Wire.
type App struct {
	Config   *app.Config
	Logger   *slog.Logger
	Pipeline *app.Pipeline
}
