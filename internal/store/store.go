package store

import (
	"context"
	"log/slog"

	"github.com/metal-toolbox/stockroom/internal/configuration"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/metal-toolbox/stockroom/internal/store/appscript"
	"github.com/metal-toolbox/stockroom/internal/store/dryrun"
)

type Repository interface {
	// Assets returns the full register.
	Assets(ctx context.Context) ([]model.Asset, error)

	// Mutate requests a custody transition for a single asset.
	Mutate(ctx context.Context, req *model.MutationRequest) (*model.MutationResult, error)
}

// NewRepository returns the register backend selected by the configuration.
func NewRepository(ctx context.Context, config *configuration.Configuration) (Repository, error) {
	if config.DryRun {
		slog.Warn("Running against the dry-run register")

		fixture := ""
		if config.DryRunOptions != nil {
			fixture = config.DryRunOptions.Fixture
		}

		repo, err := dryrun.New(fixture)
		if err != nil {
			return nil, err
		}

		return repo, nil
	}

	repo, err := appscript.New(ctx, config.EndpointOptions)
	if err != nil {
		return nil, err
	}

	return repo, nil
}
