package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/metal-toolbox/stockroom/internal/inventory"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
)

const (
	cmdQuit     = ":q"
	cmdClear    = ":clear"
	cmdCheckin  = ":in"
	cmdCheckout = ":out"
	cmdHelp     = ":help"

	ReadyMessage = "Ready for next scan."
)

var (
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrActionUnavailable = errors.New("action not available for asset status")
)

const helpText = `type or scan a tag, serial or user to search
  :in <id>     check a device in
  :out <id>    check a device out
  :clear       clear the search
  :q           quit`

// Session is the scanner-mode loop: every line is either a search or a
// command, and after a successful action the search is cleared.
type Session struct {
	inv      *inventory.Inventory
	operator *Operator
	out      io.Writer
}

func NewSession(inv *inventory.Inventory, operator *Operator, out io.Writer) *Session {
	return &Session{
		inv:      inv,
		operator: operator,
		out:      out,
	}
}

// Run reads lines until EOF, ":q" or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if err := s.render(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(s.out, SearchPrompt)

		line, err := s.operator.ReadLine(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			fmt.Fprintln(s.out)
			return nil
		}

		if err != nil {
			return err
		}

		quit, err := s.handle(ctx, strings.TrimSpace(line))
		if err != nil {
			return err
		}

		if quit {
			return nil
		}
	}
}

func (s *Session) handle(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)

	if len(fields) == 0 || !strings.HasPrefix(fields[0], ":") {
		s.inv.SetQuery(line)
		return false, s.render()
	}

	switch fields[0] {
	case cmdQuit:
		return true, nil
	case cmdClear:
		s.inv.SetQuery("")
		return false, s.render()
	case cmdCheckin, cmdCheckout:
		if len(fields) != 2 {
			fmt.Fprintf(s.out, "usage: %s <id>\n", fields[0])
			return false, nil
		}

		action := model.ActionCheckin
		if fields[0] == cmdCheckout {
			action = model.ActionCheckout
		}

		_ = s.Act(ctx, fields[1], action)

		if s.operator.takeFocus() {
			fmt.Fprintln(s.out, ReadyMessage)
		}

		return false, s.render()
	case cmdHelp:
		fmt.Fprintln(s.out, helpText)
		return false, nil
	default:
		fmt.Fprintf(s.out, "unknown command %s\n%s\n", fields[0], helpText)
		return false, nil
	}
}

// Act only offers the action the asset's status allows, the same way a card
// only shows the button that applies to it.
func (s *Session) Act(ctx context.Context, id string, action model.Action) error {
	asset, ok := s.inv.Lookup(id)
	if !ok {
		fmt.Fprintf(s.out, "No asset with id %s\n", id)
		return errors.Wrap(ErrUnknownAsset, id)
	}

	available, ok := asset.Kind.AvailableAction()
	if !ok || available != action {
		fmt.Fprintf(s.out, "Cannot %s asset %s with status %q\n", action, id, asset.Status)
		return errors.Wrapf(ErrActionUnavailable, "%s on %q", action, asset.Status)
	}

	err := s.inv.Apply(ctx, id, action)

	switch {
	case err == nil:
		updated, _ := s.inv.Lookup(id)
		fmt.Fprintf(s.out, "%s is now %s\n", orPlaceholder(updated.Serial), updated.Status)
	case errors.Is(err, model.ErrBusy):
		fmt.Fprintf(s.out, "Asset %s is being updated\n", id)
	default:
		// already notified
		slog.Debug("action did not complete", "asset_id", id, "action", action, "error", err)
	}

	return err
}

func (s *Session) render() error {
	return Render(s.out, s.inv.View())
}
