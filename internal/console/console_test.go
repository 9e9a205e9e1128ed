package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/metal-toolbox/stockroom/internal/inventory"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/metal-toolbox/stockroom/internal/store/dryrun"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegister() []model.Asset {
	assets := []model.Asset{
		{ID: model.NewAssetID("1"), Serial: "PF3KX2B1", AssetTag: "HX-10021", User: "Dana Ortiz", Description: "ThinkPad"},
		{ID: model.NewAssetID("2"), Serial: "PF3KX2C7", AssetTag: "HX-10022", Description: "ThinkPad"},
		{ID: model.NewAssetID("3"), Serial: "5CG1234X", AssetTag: "HX-10051", Description: "EliteBook"},
		{ID: model.NewAssetID("4"), Serial: "R58N91AB", AssetTag: "HX-20007", Description: "Tablet"},
	}

	statuses := []string{model.StatusValueInUse, model.StatusValueStockRoom, "Faulty - Repair", "Retired"}
	for i := range assets {
		assets[i].SetStatus(statuses[i])
	}

	return assets
}

type harness struct {
	inv      *inventory.Inventory
	operator *Operator
	session  *Session
	out      *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	out := &bytes.Buffer{}
	operator := NewOperator(strings.NewReader(input), out)
	inv := inventory.New(dryrun.NewFromAssets(sampleRegister()), operator)
	require.Nil(t, inv.Load(context.Background()))

	return &harness{
		inv:      inv,
		operator: operator,
		session:  NewSession(inv, operator, out),
		out:      out,
	}
}

func TestPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	operator := NewOperator(strings.NewReader("Alex Kim\r\n.\n"), out)

	answer, ok, err := operator.Prompt(context.Background(), "Who?")
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Alex Kim", answer)
	assert.Contains(t, out.String(), "Who?")

	_, ok, err = operator.Prompt(context.Background(), "Who?")
	require.Nil(t, err)
	assert.False(t, ok)

	// input exhausted
	_, ok, err = operator.Prompt(context.Background(), "Who?")
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestPromptQueuedAnswer(t *testing.T) {
	out := &bytes.Buffer{}
	operator := NewOperator(strings.NewReader("from input\n"), out)
	operator.Answer("from flag")

	answer, ok, err := operator.Prompt(context.Background(), "Who?")
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from flag", answer)
	assert.Empty(t, out.String())

	answer, _, _ = operator.Prompt(context.Background(), "Who?")
	assert.Equal(t, "from input", answer)
}

func TestPromptCancelledContext(t *testing.T) {
	operator := NewOperator(strings.NewReader("Alex\n"), io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := operator.Prompt(ctx, "Who?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNotify(t *testing.T) {
	out := &bytes.Buffer{}
	operator := NewOperator(strings.NewReader(""), out)

	operator.Notify(model.Notice{Kind: model.NoticeRejected, Message: "Already checked out"})
	operator.Notify(model.Notice{Kind: model.NoticeNetwork, Message: model.NetworkErrorMessage})

	assert.Equal(t, "Error: Already checked out\nNetwork Error\n", out.String())
}

func TestRender(t *testing.T) {
	h := newHarness(t, "")

	out := &bytes.Buffer{}
	require.Nil(t, Render(out, h.inv.View()))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "SERIAL")
	assert.Contains(t, lines[1], "Dana Ortiz")
	assert.Contains(t, lines[1], ":in")
	assert.Contains(t, lines[2], ":out")
	assert.Contains(t, lines[3], "!Faulty - Repair")
	assert.Contains(t, lines[4], "~Retired")
	assert.NotContains(t, lines[3], ":in")
	assert.NotContains(t, lines[3], ":out")
}

func TestRenderStates(t *testing.T) {
	out := &bytes.Buffer{}

	require.Nil(t, Render(out, &inventory.View{Loading: true}))
	assert.Equal(t, LoadingMessage+"\n", out.String())

	out.Reset()
	require.Nil(t, Render(out, &inventory.View{}))
	assert.Equal(t, EmptyMessage+"\n", out.String())

	out.Reset()
	asset := sampleRegister()[0]
	view := &inventory.View{
		Matches: 30,
		Shown:   []model.Asset{asset},
		Busy:    map[string]bool{"1": true},
	}
	require.Nil(t, Render(out, view))
	assert.Contains(t, out.String(), "Updating...")
	assert.Contains(t, out.String(), "showing 1 of 30")
}

func TestActCheckout(t *testing.T) {
	h := newHarness(t, "Alex Kim\n")

	require.Nil(t, h.session.Act(context.Background(), "2", model.ActionCheckout))

	asset, _ := h.inv.Lookup("2")
	assert.Equal(t, model.StatusInUse, asset.Kind)
	assert.Equal(t, "Alex Kim", asset.User)
	assert.Contains(t, h.out.String(), inventory.CheckoutQuestion)
	assert.Contains(t, h.out.String(), "PF3KX2C7 is now In Use")
}

func TestActUnavailable(t *testing.T) {
	h := newHarness(t, "")

	err := h.session.Act(context.Background(), "1", model.ActionCheckout)
	assert.True(t, errors.Is(err, ErrActionUnavailable))

	err = h.session.Act(context.Background(), "3", model.ActionCheckin)
	assert.True(t, errors.Is(err, ErrActionUnavailable))

	err = h.session.Act(context.Background(), "99", model.ActionCheckin)
	assert.True(t, errors.Is(err, ErrUnknownAsset))

	assert.Equal(t, sampleRegister(), h.inv.Snapshot())
}

func TestActRejectedBlankUser(t *testing.T) {
	h := newHarness(t, "   \n")

	err := h.session.Act(context.Background(), "2", model.ActionCheckout)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Contains(t, h.out.String(), model.MissingUserMessage)
	assert.Equal(t, sampleRegister(), h.inv.Snapshot())
}

func TestSessionScannerMode(t *testing.T) {
	input := strings.Join([]string{
		"pf3kx",
		":in 1",
		":out 2",
		"Sam Lee",
		":help",
		":q",
		"never read",
	}, "\n")

	h := newHarness(t, input)

	require.Nil(t, h.session.Run(context.Background()))

	one, _ := h.inv.Lookup("1")
	assert.Equal(t, model.StatusStockRoom, one.Kind)
	assert.Equal(t, "", one.User)

	two, _ := h.inv.Lookup("2")
	assert.Equal(t, model.StatusInUse, two.Kind)
	assert.Equal(t, "Sam Lee", two.User)

	assert.Equal(t, "", h.inv.Query())
	assert.Equal(t, 2, strings.Count(h.out.String(), ReadyMessage))
	assert.Contains(t, h.out.String(), ":clear")

	line, err := h.operator.ReadLine(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "never read", line)
}

func TestSessionCancelledCheckoutKeepsSearch(t *testing.T) {
	h := newHarness(t, "c7\n:out 2\n.\n")

	require.Nil(t, h.session.Run(context.Background()))

	assert.Equal(t, "c7", h.inv.Query())
	assert.NotContains(t, h.out.String(), ReadyMessage)

	two, _ := h.inv.Lookup("2")
	assert.Equal(t, model.StatusStockRoom, two.Kind)
}

func TestSessionSearchAndClear(t *testing.T) {
	h := newHarness(t, "hx-2\n:clear\n:bogus\n:in\n")

	require.Nil(t, h.session.Run(context.Background()))

	assert.Equal(t, "", h.inv.Query())
	assert.Contains(t, h.out.String(), "unknown command :bogus")
	assert.Contains(t, h.out.String(), "usage: :in <id>")
}

func TestSessionEndsWhenCancelledWaitingForInput(t *testing.T) {
	reader, writer := io.Pipe()
	t.Cleanup(func() { writer.Close() })

	out := &bytes.Buffer{}
	operator := NewOperator(reader, io.Discard)
	inv := inventory.New(dryrun.NewFromAssets(sampleRegister()), operator)
	require.Nil(t, inv.Load(context.Background()))

	session := NewSession(inv, operator, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- session.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not return after cancel")
	}
}

func TestPromptCancelledWaitingForInput(t *testing.T) {
	reader, writer := io.Pipe()
	t.Cleanup(func() { writer.Close() })

	operator := NewOperator(reader, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok, err := operator.Prompt(ctx, inventory.CheckoutQuestion)

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
