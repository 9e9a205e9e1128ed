package inventory

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	asset := newAsset("1", "PF3KX2B1", "Dana Ortiz", "HX-10021", model.StatusValueInUse)
	asset.Description = "ThinkPad carrying case"

	cases := map[string]bool{
		"":         true,
		"pf3kx":    true,
		"DANA":     true,
		"ortiz":    true,
		"hx-100":   true,
		"10021":    true,
		"thinkpad": false,
		"2026":     false,
		"in use":   false,
		"Dana Lee": false,
	}

	for query, want := range cases {
		t.Run(query, func(t *testing.T) {
			assert.Equal(t, want, Matches(&asset, query))
		})
	}
}

func TestMatchesEmptyFields(t *testing.T) {
	asset := newAsset("1", "", "", "", model.StatusValueStockRoom)

	assert.True(t, Matches(&asset, ""))
	assert.False(t, Matches(&asset, "a"))
}

func manyAssets(n int) []model.Asset {
	assets := make([]model.Asset, 0, n)

	for i := 0; i < n; i++ {
		user := ""
		if i%2 == 0 {
			user = "Team Even"
		}

		assets = append(assets, newAsset(fmt.Sprint(i), fmt.Sprintf("SN%04d", i), user, fmt.Sprintf("TAG-%04d", i), model.StatusValueStockRoom))
	}

	return assets
}

func TestFilterKeepsOrder(t *testing.T) {
	assets := manyAssets(10)

	matched := Filter(assets, "even")

	require.Len(t, matched, 5)

	for i, asset := range matched {
		assert.Equal(t, fmt.Sprint(i*2), asset.ID.String())
	}

	assert.Equal(t, assets, Filter(assets, ""))
}

func TestWindow(t *testing.T) {
	assets := manyAssets(100)

	browse := Window("", assets)
	assert.Len(t, browse, BrowseWindow)
	assert.Equal(t, assets[:BrowseWindow], browse)

	search := Window("sn", assets)
	assert.Len(t, search, SearchWindow)

	few := Window("", assets[:3])
	assert.Len(t, few, 3)
}

func TestView(t *testing.T) {
	inv := loaded(t, &fakeRepository{assets: manyAssets(100)}, &fakeOperator{})

	view := inv.View()
	assert.Equal(t, 100, view.Matches)
	assert.Len(t, view.Shown, BrowseWindow)
	assert.False(t, view.Empty())

	inv.SetQuery("EVEN")
	view = inv.View()
	assert.Equal(t, "EVEN", view.Query)
	assert.Equal(t, 50, view.Matches)
	assert.Len(t, view.Shown, 50)

	inv.SetQuery("SN00")
	view = inv.View()
	assert.Equal(t, 100, view.Matches)
	assert.Len(t, view.Shown, SearchWindow)

	for _, asset := range view.Shown {
		assert.True(t, strings.HasPrefix(asset.Serial, "SN00"))
	}

	inv.SetQuery("nothing like this")
	view = inv.View()
	assert.Equal(t, 0, view.Matches)
	assert.True(t, view.Empty())
}

func TestViewWhileLoading(t *testing.T) {
	inv := New(&fakeRepository{}, &fakeOperator{})

	view := inv.View()
	assert.True(t, view.Loading)
	assert.False(t, view.Empty())

	require.Nil(t, inv.Load(context.Background()))
	assert.True(t, inv.View().Empty())
}
