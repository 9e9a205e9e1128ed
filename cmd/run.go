package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/metal-toolbox/stockroom/internal/configuration"
	"github.com/metal-toolbox/stockroom/internal/console"
	"github.com/metal-toolbox/stockroom/internal/inventory"
	"github.com/metal-toolbox/stockroom/internal/log"
	"github.com/metal-toolbox/stockroom/internal/metrics"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/metal-toolbox/stockroom/internal/profiling"
	"github.com/metal-toolbox/stockroom/internal/store"
	"github.com/metal-toolbox/stockroom/internal/version"
)

// client is everything a command needs once configuration is loaded.
type client struct {
	inv      *inventory.Inventory
	operator *console.Operator
	session  *console.Session
	shutdown func()
}

func newClient(ctx context.Context, args *model.Args, in io.Reader, out io.Writer) (context.Context, *client, error) {
	config, err := configuration.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return ctx, nil, err
	}

	log.SetLevel(config.LogLevel)
	log.SetOtelLogger(config.LogLevel)

	slog.Info("Configuration loaded", config.AsLogFields()...)

	if config.MetricsOptions.Address != "" {
		metrics.ListenAndServe(config.MetricsOptions.Address)
		version.ExportBuildInfoMetric()
	}

	if config.EnableProfiling {
		profiling.Enable()
	}

	ctx, otelShutdown := otelinit.InitOpenTelemetry(ctx, model.AppName)

	repository, err := store.NewRepository(ctx, config)
	if err != nil {
		slog.Error("Failed to create repository", "error", err)
		otelShutdown(ctx)

		return ctx, nil, err
	}

	operator := console.NewOperator(in, out)
	inv := inventory.New(repository, operator)

	slog.With(version.Current().AsLogFields()...).Debug("stockroom client ready")

	return ctx, &client{
		inv:      inv,
		operator: operator,
		session:  console.NewSession(inv, operator, out),
		shutdown: func() { otelShutdown(ctx) },
	}, nil
}
