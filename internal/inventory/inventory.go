// Package inventory holds the local shadow copy of the device register and
// reconciles it with the register's answers to custody transitions.
package inventory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/metal-toolbox/stockroom/internal/metrics"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/metal-toolbox/stockroom/internal/store"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	pkgName = "internal/inventory"

	CheckoutQuestion = "Who is receiving this device?"
)

// Operator is whoever drives the inventory: it answers prompts, receives
// blocking notices and owns the search entry point.
type Operator interface {
	// Prompt asks a question, ok is false when the operator cancels.
	Prompt(ctx context.Context, question string) (answer string, ok bool, err error)
	Notify(notice model.Notice)
	// FocusSearch returns input to the search entry point.
	FocusSearch()
}

// Inventory is the state container for one session.
type Inventory struct {
	repo     store.Repository
	operator Operator
	logger   *slog.Logger

	mu         sync.RWMutex
	assets     []model.Asset
	query      string
	loading    bool
	processing map[string]struct{}
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithLogger sets the operator-facing log.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Inventory) {
		inv.logger = logger
	}
}

// New returns an empty inventory in the loading state.
func New(repo store.Repository, operator Operator, opts ...Option) *Inventory {
	inv := &Inventory{
		repo:       repo,
		operator:   operator,
		logger:     slog.Default(),
		loading:    true,
		processing: map[string]struct{}{},
	}

	for _, opt := range opts {
		opt(inv)
	}

	inv.logger = inv.logger.With("component", "inventory")

	return inv
}

// Load replaces the collection with the register's contents. On failure the
// collection is left empty and the error is logged, not notified.
func (inv *Inventory) Load(ctx context.Context) error {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "Inventory.Load")
	defer span.End()

	start := time.Now()
	assets, err := inv.repo.Assets(ctx)
	metrics.ObserveLoad(time.Since(start), err)

	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.loading = false

	if err != nil {
		inv.assets = nil
		span.SetStatus(codes.Error, err.Error())
		inv.logger.Error("Error fetching asset data", "error", err)

		return errors.Wrap(model.ErrLoad, err.Error())
	}

	inv.assets = assets
	metrics.AssetsLoaded.Set(float64(len(assets)))
	span.SetAttributes(attribute.Int("assets", len(assets)))
	inv.logger.Info("Asset data loaded", "assets", len(assets))

	return nil
}

// Apply runs a custody transition for the asset with the given id and patches
// the local record with the register's answer.
//
// The returned error wraps one of model.ErrAborted, model.ErrValidation,
// model.ErrBusy, model.ErrRejected or model.ErrTransport. Every failure that
// concerns the operator has already been notified when Apply returns.
func (inv *Inventory) Apply(ctx context.Context, id string, action model.Action) (err error) {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "Inventory.Apply")
	defer span.End()

	span.SetAttributes(
		attribute.String("asset_id", id),
		attribute.String("action", string(action)),
	)

	defer func() {
		metrics.RegisterMutation(action, err)

		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if action != model.ActionCheckin && action != model.ActionCheckout {
		return errors.Wrap(model.ErrInvalidAction, string(action))
	}

	// a busy record offers no action, so it is refused before any prompt
	if inv.Processing(id) {
		return errors.Wrap(model.ErrBusy, id)
	}

	var user string

	if action == model.ActionCheckout {
		user, err = inv.receivingUser(ctx)
		if err != nil {
			return err
		}
	}

	if !inv.markProcessing(id) {
		return errors.Wrap(model.ErrBusy, id)
	}
	defer inv.clearProcessing(id)

	req := &model.MutationRequest{
		ID:     inv.requestID(id),
		Action: action,
		User:   user,
	}

	logger := inv.logger.With(req.AsLogFields()...)
	logger.Info("Sending update")

	result, err := inv.repo.Mutate(ctx, req)
	if err != nil {
		logger.Error("Update failed", "error", err)
		inv.operator.Notify(model.Notice{Kind: model.NoticeNetwork, Message: model.NetworkErrorMessage})

		return errors.Wrap(model.ErrTransport, err.Error())
	}

	if !result.Success {
		logger.Warn("Update rejected", "message", result.Message)
		inv.operator.Notify(model.Notice{Kind: model.NoticeRejected, Message: result.Message})

		return errors.Wrap(model.ErrRejected, result.Message)
	}

	if !inv.patch(req.ID, result) {
		logger.Warn("Update accepted for an asset missing from the local copy")
	}

	logger.Info("Update complete", "status", result.NewStatus)

	// scanner mode, ready for the next scan
	inv.SetQuery("")
	inv.operator.FocusSearch()

	return nil
}

func (inv *Inventory) receivingUser(ctx context.Context) (string, error) {
	answer, ok, err := inv.operator.Prompt(ctx, CheckoutQuestion)
	if err != nil {
		return "", errors.Wrap(model.ErrAborted, err.Error())
	}

	if !ok {
		return "", model.ErrAborted
	}

	user := strings.TrimSpace(answer)
	if user == "" {
		inv.operator.Notify(model.Notice{Kind: model.NoticeValidation, Message: model.MissingUserMessage})
		return "", model.ErrValidation
	}

	return user, nil
}

// requestID returns the id of the first local record matching id, so that the
// request carries the register's own identifier.
func (inv *Inventory) requestID(id string) model.AssetID {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if idx := inv.indexOf(id); idx >= 0 {
		return inv.assets[idx].ID
	}

	return model.NewAssetID(id)
}

// patch applies a successful result to the first matching record. Only status
// and user change, an omitted user keeps the current holder.
func (inv *Inventory) patch(id model.AssetID, result *model.MutationResult) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	idx := inv.indexOf(id.String())
	if idx < 0 {
		return false
	}

	asset := &inv.assets[idx]
	asset.SetStatus(result.NewStatus)

	if result.NewUser != nil {
		asset.User = *result.NewUser
	}

	return true
}

// indexOf must be called with mu held.
func (inv *Inventory) indexOf(id string) int {
	for i := range inv.assets {
		if inv.assets[i].ID.String() == id {
			return i
		}
	}

	return -1
}

func (inv *Inventory) markProcessing(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, busy := inv.processing[id]; busy {
		return false
	}

	inv.processing[id] = struct{}{}

	return true
}

func (inv *Inventory) clearProcessing(id string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	delete(inv.processing, id)
}

// Processing reports whether a transition is in flight for id.
func (inv *Inventory) Processing(id string) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	_, busy := inv.processing[id]

	return busy
}

func (inv *Inventory) Loading() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	return inv.loading
}

func (inv *Inventory) Query() string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	return inv.query
}

func (inv *Inventory) SetQuery(query string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.query = query
}

// Lookup returns a copy of the first record with the given id.
func (inv *Inventory) Lookup(id string) (model.Asset, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	idx := inv.indexOf(id)
	if idx < 0 {
		return model.Asset{}, false
	}

	return inv.assets[idx], true
}

// Snapshot returns a deep copy of the collection.
func (inv *Inventory) Snapshot() []model.Asset {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	assets, err := model.CloneAssets(inv.assets)
	if err != nil {
		inv.logger.Error("Snapshot copy failed", "error", err)
		return nil
	}

	return assets
}
