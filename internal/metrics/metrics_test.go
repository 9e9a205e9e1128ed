package metrics

import (
	"testing"
	"time"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		OutcomeSucceeded: nil,
		OutcomeRejected:  errors.Wrap(model.ErrRejected, "Already checked out"),
		OutcomeTransport: errors.Wrap(model.ErrTransport, "connection refused"),
		OutcomeAborted:   model.ErrAborted,
		OutcomeBusy:      errors.Wrap(model.ErrBusy, "42"),
		OutcomeInvalid:   model.ErrValidation,
	}

	for want, err := range cases {
		assert.Equal(t, want, Outcome(err), want)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatal(err)
	}

	return m.GetCounter().GetValue()
}

func TestRegisterMutation(t *testing.T) {
	counter := MutationsTotal.WithLabelValues(string(model.ActionCheckin), OutcomeRejected)
	before := counterValue(t, counter)

	RegisterMutation(model.ActionCheckin, errors.Wrap(model.ErrRejected, "nope"))

	assert.Equal(t, before+1, counterValue(t, counter))
}

func histogramCount(t *testing.T, state string) uint64 {
	t.Helper()

	m := &dto.Metric{}
	if err := LoadDuration.WithLabelValues(state).(prometheus.Histogram).Write(m); err != nil {
		t.Fatal(err)
	}

	return m.GetHistogram().GetSampleCount()
}

func TestObserveLoad(t *testing.T) {
	failed := histogramCount(t, LoadFailed)
	succeeded := histogramCount(t, OutcomeSucceeded)

	ObserveLoad(time.Second, errors.New("invalid character '<' looking for beginning of value"))
	ObserveLoad(time.Second, nil)

	assert.Equal(t, failed+1, histogramCount(t, LoadFailed))
	assert.Equal(t, succeeded+1, histogramCount(t, OutcomeSucceeded))
	assert.Equal(t, uint64(0), histogramCount(t, OutcomeTransport))
}
