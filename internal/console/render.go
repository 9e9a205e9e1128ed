package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/metal-toolbox/stockroom/internal/inventory"
	"github.com/metal-toolbox/stockroom/internal/model"
)

const (
	placeholder = "-"

	LoadingMessage = "Syncing Asset Data..."
	EmptyMessage   = "No assets found"
)

// Render prints the view as a table, one row per shown asset.
func Render(w io.Writer, view *inventory.View) error {
	if view.Loading {
		_, err := fmt.Fprintln(w, LoadingMessage)
		return err
	}

	if view.Empty() {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSERIAL\tUSER\tASSET TAG\tLEASE END\tACTION\tDESCRIPTION")

	for i := range view.Shown {
		asset := &view.Shown[i]

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			asset.ID.String(),
			badge(asset),
			orPlaceholder(asset.Serial),
			orPlaceholder(asset.User),
			orPlaceholder(asset.AssetTag),
			orPlaceholder(asset.LeaseEnd),
			actionLabel(asset, view.Busy[asset.ID.String()]),
			asset.Description,
		)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if view.Matches > len(view.Shown) {
		_, err := fmt.Fprintf(w, "showing %d of %d\n", len(view.Shown), view.Matches)
		return err
	}

	return nil
}

func badge(asset *model.Asset) string {
	switch asset.Kind {
	case model.StatusFaulty:
		return "!" + asset.Status
	case model.StatusOther:
		return "~" + orPlaceholder(asset.Status)
	default:
		return asset.Status
	}
}

func actionLabel(asset *model.Asset, busy bool) string {
	action, ok := asset.Kind.AvailableAction()
	if !ok {
		return placeholder
	}

	if busy {
		return "Updating..."
	}

	switch action {
	case model.ActionCheckin:
		return ":in"
	default:
		return ":out"
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}

	return s
}
