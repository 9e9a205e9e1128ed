package configuration

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jeremywohl/flatten"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = "stockroom"
)

// Configuration holds application configuration read from a YAML or set by env variables.
// nolint:govet // prefer readability over field alignment optimization for this case.
type Configuration struct {
	// LogLevel is the app verbose logging level.
	// one of - info, debug, trace
	LogLevel string `mapstructure:"log_level"`

	// DryRun serves the register from memory instead of the endpoint.
	DryRun bool `mapstructure:"dry_run"`

	// DryRunOptions configures the in-memory register.
	DryRunOptions *DryRunOptions `mapstructure:"dryrun"`

	// EndpointOptions defines the register web-app client configuration parameters.
	EndpointOptions *EndpointOptions `mapstructure:"endpoint"`

	// MetricsOptions defines where the prometheus endpoint listens.
	MetricsOptions *MetricsOptions `mapstructure:"metrics"`

	EnableProfiling bool `mapstructure:"enable_profiling"`
}

// EndpointOptions defines configuration for the register web-app client.
type EndpointOptions struct {
	URL string `mapstructure:"url"`

	// Timeout bounds a single request, zero waits for the transport.
	Timeout time.Duration `mapstructure:"timeout"`

	// RetryMax is the number of retries after a failed register read,
	// transitions are never retried.
	RetryMax int `mapstructure:"retry_max"`

	OAuth *OAuthOptions `mapstructure:"oauth"`
}

// OAuthOptions configures client credential tokens for deployments that
// front the web-app with an identity provider.
type OAuthOptions struct {
	Enabled          bool     `mapstructure:"enabled"`
	IssuerEndpoint   string   `mapstructure:"issuer_endpoint"`
	AudienceEndpoint string   `mapstructure:"audience_endpoint"`
	ClientID         string   `mapstructure:"client_id"`
	ClientSecret     string   `mapstructure:"client_secret"`
	ClientScopes     []string `mapstructure:"scopes"`
}

type DryRunOptions struct {
	// Fixture is a JSON file holding the initial register, empty uses a built in sample.
	Fixture string `mapstructure:"fixture"`
}

type MetricsOptions struct {
	// Address the metrics endpoint listens on, empty disables it.
	Address string `mapstructure:"address"`
}

// New creates an empty configuration struct.
func New() *Configuration {
	config := &Configuration{}

	// these are initialized here so viper can read in configuration from env vars
	// once https://github.com/spf13/viper/pull/1429 is merged, this can go.
	config.EndpointOptions = &EndpointOptions{OAuth: &OAuthOptions{}}
	config.DryRunOptions = &DryRunOptions{}
	config.MetricsOptions = &MetricsOptions{}

	return config
}

func (c *Configuration) AsLogFields() []any {
	return []any{
		"logLevel", c.LogLevel,
		"dryRun", c.DryRun,
		"endpoint", c.EndpointOptions.URL,
		"timeout", c.EndpointOptions.Timeout.String(),
		"retryMax", c.EndpointOptions.RetryMax,
		"oauth", c.EndpointOptions.OAuth.Enabled,
		"metricsAddress", c.MetricsOptions.Address,
		"enableProfiling", c.EnableProfiling,
	}
}

// LoadArgs applies command line flags, these win over file and env values.
func (c *Configuration) LoadArgs(args *model.Args) {
	if args.LogLevel != "" {
		c.LogLevel = args.LogLevel
	}

	if args.Endpoint != "" {
		c.EndpointOptions.URL = args.Endpoint
	}

	if args.DryRun {
		c.DryRun = true
	}

	if args.EnableProfiling {
		c.EnableProfiling = true
	}
}

// Load the application configuration
// Reads in the configFile when available and overrides from environment variables.
func Load(args *model.Args) (*Configuration, error) {
	viperConfig := viper.New()
	viperConfig.SetConfigType("yaml")
	viperConfig.SetEnvPrefix(model.AppName)
	viperConfig.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConfig.AutomaticEnv()

	if err := readInFile(viperConfig, args.ConfigFile); err != nil {
		return nil, err
	}

	config := New()

	if err := config.envBindVars(viperConfig); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
	}

	if err := viperConfig.Unmarshal(config); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "Unmarshal error: "+err.Error())
	}

	config.LoadArgs(args)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// readInFile reads the given file, or stockroom.yaml from the working
// directory when it exists.
func readInFile(viperConfig *viper.Viper, path string) error {
	if path == "" {
		viperConfig.AddConfigPath(".")
		viperConfig.SetConfigName(defaultConfigName)

		err := viperConfig.ReadInConfig()
		if err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil
			}

			return errors.Wrap(model.ErrConfig, "ReadInConfig error: "+err.Error())
		}

		return nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return errors.Wrap(model.ErrConfig, err.Error())
	}
	defer fh.Close()

	if err = viperConfig.ReadConfig(fh); err != nil {
		return errors.Wrap(model.ErrConfig, "ReadConfig error: "+err.Error())
	}

	return nil
}

// envBindVars binds environment variables to the struct
// without a configuration file being unmarshalled,
// this is a workaround for a viper bug,
//
// This can be replaced by the solution in https://github.com/spf13/viper/pull/1429
// once that PR is merged.
func (c *Configuration) envBindVars(viperConfig *viper.Viper) error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(c, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten configuration")
	}

	for k := range flat {
		if err := viperConfig.BindEnv(k); err != nil {
			return errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}

// nolint:gocyclo // parameter validation is cyclomatic
func (c *Configuration) validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.EndpointOptions.RetryMax < 0 {
		return errors.Wrap(model.ErrConfig, "endpoint.retry_max must not be negative")
	}

	if c.DryRun {
		return nil
	}

	if c.EndpointOptions.URL == "" {
		return errors.Wrap(model.ErrConfig, "missing parameter: endpoint.url")
	}

	u, err := url.Parse(c.EndpointOptions.URL)
	if err != nil {
		return errors.Wrap(model.ErrConfig, "endpoint URL error: "+err.Error())
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Wrap(model.ErrConfig, "endpoint URL must be http or https")
	}

	oauth := c.EndpointOptions.OAuth
	if !oauth.Enabled {
		return nil
	}

	if oauth.IssuerEndpoint == "" {
		return errors.Wrap(model.ErrConfig, "endpoint.oauth.issuer_endpoint not defined")
	}

	if oauth.ClientID == "" {
		return errors.Wrap(model.ErrConfig, "endpoint.oauth.client_id not defined")
	}

	if oauth.ClientSecret == "" {
		return errors.Wrap(model.ErrConfig, "endpoint.oauth.client_secret not defined")
	}

	if len(oauth.ClientScopes) == 0 {
		return errors.Wrap(model.ErrConfig, "endpoint.oauth.scopes not defined")
	}

	return nil
}
