package dryrun

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
)

var (
	errFixture = errors.New("dryrun fixture error")
)

// Store is a simulated register, held in memory.
type Store struct {
	mu     sync.Mutex
	assets []model.Asset
}

// New creates a simulated register from a JSON fixture, or from the built in
// sample register when no fixture is given.
func New(fixture string) (*Store, error) {
	if fixture == "" {
		return NewFromAssets(defaultAssets()), nil
	}

	b, err := os.ReadFile(fixture)
	if err != nil {
		return nil, errors.Wrap(errFixture, err.Error())
	}

	var assets []model.Asset
	if err := json.Unmarshal(b, &assets); err != nil {
		return nil, errors.Wrap(errFixture, err.Error())
	}

	return NewFromAssets(assets), nil
}

// NewFromAssets creates a simulated register holding a copy of assets.
func NewFromAssets(assets []model.Asset) *Store {
	dup, err := model.CloneAssets(assets)
	if err != nil {
		// a slice of plain structs always copies
		panic(err)
	}

	return &Store{assets: dup}
}

// Assets simulates returning the full register
func (s *Store) Assets(_ context.Context) ([]model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.CloneAssets(s.assets)
}

// Mutate simulates a custody transition
func (s *Store) Mutate(_ context.Context, req *model.MutationRequest) (*model.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.find(req.ID)
	if idx < 0 {
		return rejected("Asset not found"), nil
	}

	asset := &s.assets[idx]

	switch req.Action {
	case model.ActionCheckout:
		if asset.Kind != model.StatusStockRoom {
			return rejected("Already checked out"), nil
		}

		user := strings.TrimSpace(req.User)
		if user == "" {
			return rejected("No user supplied"), nil
		}

		asset.SetStatus(model.StatusValueInUse)
		asset.User = user
	case model.ActionCheckin:
		if asset.Kind != model.StatusInUse {
			return rejected("Asset is not checked out"), nil
		}

		asset.SetStatus(model.StatusValueStockRoom)
		asset.User = ""
	default:
		return rejected("Unknown action: " + string(req.Action)), nil
	}

	user := asset.User

	return &model.MutationResult{
		Success:   true,
		NewStatus: asset.Status,
		NewUser:   &user,
	}, nil
}

func (s *Store) find(id model.AssetID) int {
	for i := range s.assets {
		if s.assets[i].ID.Equal(id) {
			return i
		}
	}

	return -1
}

func rejected(msg string) *model.MutationResult {
	return &model.MutationResult{Message: msg}
}

func defaultAssets() []model.Asset {
	assets := []model.Asset{
		{ID: model.NewAssetID("1"), Serial: "PF3KX2B1", AssetTag: "HX-10021", User: "Dana Ortiz", LeaseEnd: "2026-03-31", Description: "ThinkPad T14 Gen 3"},
		{ID: model.NewAssetID("2"), Serial: "PF3KX2C7", AssetTag: "HX-10022", LeaseEnd: "2026-03-31", Description: "ThinkPad T14 Gen 3"},
		{ID: model.NewAssetID("3"), Serial: "C02FK1ZQMD6M", AssetTag: "HX-10040", User: "Sam Lee", LeaseEnd: "2025-11-30", Description: "MacBook Pro 14"},
		{ID: model.NewAssetID("4"), Serial: "5CG1234XYZ", AssetTag: "HX-10051", LeaseEnd: "2025-08-31", Description: "EliteBook 840 G8, cracked hinge"},
		{ID: model.NewAssetID("5"), Serial: "R58N91ABCDE", AssetTag: "HX-20007", LeaseEnd: "2027-01-31", Description: "Galaxy Tab Active3"},
	}

	statuses := []string{
		model.StatusValueInUse,
		model.StatusValueStockRoom,
		model.StatusValueInUse,
		"Faulty - Repair",
		"Retired",
	}

	for i := range assets {
		assets[i].SetStatus(statuses[i])
	}

	return assets
}
