package inventory

import (
	"strings"

	"github.com/metal-toolbox/stockroom/internal/model"
)

// Display caps, these bound rendering only.
const (
	BrowseWindow = 12
	SearchWindow = 60
)

// View is what gets rendered for the current query.
type View struct {
	Query string
	// Matches is the size of the full filtered set.
	Matches int
	// Shown is the capped display window, in collection order.
	Shown   []model.Asset
	Loading bool
	// Busy holds the ids with a transition in flight.
	Busy map[string]bool
}

// Empty reports whether the "no results" state applies.
func (v *View) Empty() bool {
	return !v.Loading && v.Matches == 0
}

// Matches reports whether the asset matches the query, case-insensitively, on
// serial, user or asset tag. An empty query matches everything.
func Matches(asset *model.Asset, query string) bool {
	if query == "" {
		return true
	}

	q := strings.ToLower(query)

	for _, field := range []string{asset.Serial, asset.User, asset.AssetTag} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}

	return false
}

// Filter returns the assets matching query in their original order.
func Filter(assets []model.Asset, query string) []model.Asset {
	matched := make([]model.Asset, 0, len(assets))

	for i := range assets {
		if Matches(&assets[i], query) {
			matched = append(matched, assets[i])
		}
	}

	return matched
}

// Window caps the matches for display.
func Window(query string, matches []model.Asset) []model.Asset {
	limit := SearchWindow
	if query == "" {
		limit = BrowseWindow
	}

	if len(matches) > limit {
		return matches[:limit]
	}

	return matches
}

// View filters the collection with the current query.
func (inv *Inventory) View() *View {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	matches := Filter(inv.assets, inv.query)

	busy := make(map[string]bool, len(inv.processing))
	for id := range inv.processing {
		busy[id] = true
	}

	return &View{
		Query:   inv.query,
		Matches: len(matches),
		Shown:   Window(inv.query, matches),
		Loading: inv.loading,
		Busy:    busy,
	}
}
