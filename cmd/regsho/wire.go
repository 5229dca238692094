//go:build wireinject
// +build wireinject

package main

import (
	"regsho/internal/app"
	"regsho/internal/archive"
	"regsho/internal/batch"

	"github.com/google/wire"
)

// InitializeApp builds App (Config, Logger, Pipeline) via Wire.
func InitializeApp(opts app.Options) (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideRowSaver,
		app.ProvideMetrics,
		app.ProvideReader,
		wire.Bind(new(batch.ArchiveReader), new(*archive.Reader)),
		app.ProvideCoordinator,
		app.ProvidePipeline,
		wire.Struct(new(App), "Config", "Logger", "Pipeline"),
	)
	return nil, nil
}
