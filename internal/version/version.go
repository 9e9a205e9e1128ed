package version

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// set with ldflags at build time
var (
	GitCommit  string
	GitBranch  string
	GitSummary string
	BuildDate  string
	AppVersion string
)

type Version struct {
	GitCommit     string `json:"git_commit"`
	GitBranch     string `json:"git_branch"`
	GitSummary    string `json:"git_summary"`
	BuildDate     string `json:"build_date"`
	AppVersion    string `json:"app_version"`
	GoVersion     string `json:"go_version"`
	RetryableHTTP string `json:"retryablehttp_version"`
}

func Current() *Version {
	return &Version{
		GitBranch:     GitBranch,
		GitCommit:     GitCommit,
		GitSummary:    GitSummary,
		BuildDate:     BuildDate,
		AppVersion:    AppVersion,
		GoVersion:     runtime.Version(),
		RetryableHTTP: dependencyVersion("github.com/hashicorp/go-retryablehttp"),
	}
}

func (v *Version) AsMap() map[string]any {
	return map[string]any{
		"git_commit":            v.GitCommit,
		"git_branch":            v.GitBranch,
		"git_summary":           v.GitSummary,
		"build_date":            v.BuildDate,
		"app_version":           v.AppVersion,
		"go_version":            v.GoVersion,
		"retryablehttp_version": v.RetryableHTTP,
	}
}

func (v *Version) AsLogFields() []any {
	fields := make([]any, 0, 14)
	for k, val := range v.AsMap() {
		fields = append(fields, k, val)
	}

	return fields
}

func dependencyVersion(path string) string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, d := range buildInfo.Deps {
		if strings.EqualFold(d.Path, path) {
			return d.Version
		}
	}

	return ""
}

// ExportBuildInfoMetric sets a gauge labelled with build information.
func ExportBuildInfoMetric() {
	buildInfo := promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockroom_build_info",
			Help: "A metric with a constant '1' value, labeled by version, revision, branch and go version.",
		},
		[]string{"branch", "goversion", "revision", "version"},
	)

	buildInfo.WithLabelValues(
		GitBranch,
		runtime.Version(),
		GitCommit,
		AppVersion,
	).Set(1)
}
