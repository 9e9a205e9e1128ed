package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ReadHeaderTimeout = 2 * time.Second

	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeInvalid   = "invalid"
	OutcomeAborted   = "aborted"
	OutcomeBusy      = "busy"

	// LoadFailed covers every failed fetch, transport and decode alike.
	LoadFailed = "failed"
)

var (
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_mutations_total",
			Help: "A counter metric to measure custody transitions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockroom_load_duration_seconds",
			Help:    "A histogram of the time taken to fetch the register.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)

	AssetsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockroom_assets_loaded",
			Help: "The number of assets held by the last successful load.",
		},
	)
)

// ListenAndServe exposes prometheus metrics on address.
func ListenAndServe(address string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: ReadHeaderTimeout,
		}

		if err := server.ListenAndServe(); err != nil {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()

	slog.Info("metrics enabled", "endpoint", address+"/metrics")
}

// ObserveLoad records the duration of a register fetch.
func ObserveLoad(d time.Duration, err error) {
	state := OutcomeSucceeded
	if err != nil {
		state = LoadFailed
	}

	LoadDuration.With(prometheus.Labels{"state": state}).Observe(d.Seconds())
}

// RegisterMutation counts a transition by its outcome.
func RegisterMutation(action model.Action, err error) {
	MutationsTotal.With(
		prometheus.Labels{
			"action":  string(action),
			"outcome": Outcome(err),
		},
	).Inc()
}

// Outcome maps a transition error onto a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, model.ErrRejected):
		return OutcomeRejected
	case errors.Is(err, model.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, model.ErrAborted):
		return OutcomeAborted
	case errors.Is(err, model.ErrBusy):
		return OutcomeBusy
	default:
		return OutcomeInvalid
	}
}
