// Package appscript is the client for the spreadsheet web-app that owns the
// device register. The endpoint answers GET with the full register and POST
// with the outcome of a single custody transition.
package appscript

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/metal-toolbox/stockroom/internal/configuration"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	pkgName = "internal/store/appscript"

	// the web-app runtime does not answer CORS preflights, plain text
	// bodies are what it accepts from every client.
	contentType = "text/plain;charset=utf-8"

	requestIDHeader = "X-Request-ID"

	// cap on error bodies kept for logs
	maxErrorBody = 512
)

// Store is the register web-app client.
type Store struct {
	url    string
	client *retryablehttp.Client
	logger *slog.Logger
}

// New returns a register client for the configured endpoint.
func New(ctx context.Context, cfg *configuration.EndpointOptions) (*Store, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.Wrap(ErrEndpointConfig, "missing endpoint url")
	}

	logger := slog.With("component", "appscript")

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	if cfg.OAuth != nil && cfg.OAuth.Enabled {
		var err error

		base, err = newOAuthClient(ctx, cfg, base)
		if err != nil {
			return nil, err
		}
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = base
	client.RetryMax = cfg.RetryMax
	client.CheckRetry = retryReads
	client.Logger = logger
	// hand the last response back instead of a generic give up error,
	// status handling happens in this package.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Store{
		url:    cfg.URL,
		client: client,
		logger: logger,
	}, nil
}

// newOAuthClient wraps the base client with client credential tokens,
// the token endpoint is discovered from the issuer.
func newOAuthClient(ctx context.Context, cfg *configuration.EndpointOptions, base *http.Client) (*http.Client, error) {
	// the discovery request goes through the instrumented client too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	provider, err := oidc.NewProvider(ctx, cfg.OAuth.IssuerEndpoint)
	if err != nil {
		return nil, errors.Wrap(ErrEndpointConfig, "oidc discovery: "+err.Error())
	}

	oauthConfig := clientcredentials.Config{
		ClientID:       cfg.OAuth.ClientID,
		ClientSecret:   cfg.OAuth.ClientSecret,
		TokenURL:       provider.Endpoint().TokenURL,
		Scopes:         cfg.OAuth.ClientScopes,
		EndpointParams: map[string][]string{},
	}

	if cfg.OAuth.AudienceEndpoint != "" {
		oauthConfig.EndpointParams["audience"] = []string{cfg.OAuth.AudienceEndpoint}
	}

	client := oauthConfig.Client(ctx)
	client.Timeout = base.Timeout

	return client, nil
}

type noRetryKey struct{}

// retryReads applies the default policy to register reads only, transitions
// are sent once.
func retryReads(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Value(noRetryKey{}) != nil {
		return false, ctx.Err()
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Assets fetches the whole register.
func (s *Store) Assets(ctx context.Context) ([]model.Asset, error) {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "appscript.Assets")
	defer span.End()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(ErrRequest, err.Error())
	}

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var assets []model.Asset
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	span.SetAttributes(attribute.Int("assets", len(assets)))

	return assets, nil
}

// Mutate posts a custody transition. A decoded result with Success false is
// returned without error, the caller decides how to surface it.
func (s *Store) Mutate(ctx context.Context, mreq *model.MutationRequest) (*model.MutationResult, error) {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "appscript.Mutate")
	defer span.End()

	span.SetAttributes(
		attribute.String("asset_id", mreq.ID.String()),
		attribute.String("action", string(mreq.Action)),
	)

	payload, err := json.Marshal(mreq)
	if err != nil {
		return nil, errors.Wrap(ErrRequest, err.Error())
	}

	ctx = context.WithValue(ctx, noRetryKey{}, true)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(ErrRequest, err.Error())
	}

	req.Header.Set("Content-Type", contentType)

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	result := &model.MutationResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	span.SetAttributes(attribute.Bool("success", result.Success))

	return result, nil
}

func (s *Store) do(req *retryablehttp.Request) ([]byte, error) {
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	trace.SpanFromContext(req.Context()).SetAttributes(attribute.String("request_id", requestID))

	logger := s.logger.With("request_id", requestID, "method", req.Method)

	resp, err := s.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}

		logger.Debug("request failed", "error", err)
		return nil, errors.Wrap(ErrRequest, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(ErrRequest, "read body: "+err.Error())
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Debug("unexpected response", "status", resp.StatusCode, "body", truncate(body))
		return nil, errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
	}

	logger.Debug("request complete", "status", resp.StatusCode, "bytes", len(body))

	return body, nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}

	return s
}
