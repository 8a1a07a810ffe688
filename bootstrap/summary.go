package bootstrap

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/version"
)

// Summary describes how the runtime came up.
type Summary struct {
	serviceName      string
	version          string
	startupDuration  time.Duration
	migrated         int
	telemetryEnabled bool
	endpoint         string
	build            version.Info
}

// NewSummary creates a summary for a service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// SetBuild records the binary's build information.
func (s *Summary) SetBuild(info version.Info) {
	s.build = info
}

// SetMigrated records how many entries the promotion moved.
func (s *Summary) SetMigrated(n int) {
	s.migrated = n
}

// SetTelemetry records whether OTLP export is on and where it goes.
func (s *Summary) SetTelemetry(enabled bool, endpoint string) {
	s.telemetryEnabled = enabled
	s.endpoint = endpoint
}

// Write prints the summary and the dependencies currently cached in r,
// grouped by feature.
func (s *Summary) Write(w io.Writer, r *di.Registry) {
	fmt.Fprintf(w, "\n%s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())
	if s.build.GoVersion != "" {
		fmt.Fprintf(w, "   build %s (%s)\n", s.build.Short(), s.build.GoVersion)
	}
	fmt.Fprintln(w)

	telemetry := "disabled"
	if s.telemetryEnabled {
		telemetry = "otlp " + s.endpoint
	}
	fmt.Fprintf(w, "Registry %q\n", r.Name())
	fmt.Fprintf(w, "   ├── telemetry: %s\n", telemetry)
	fmt.Fprintf(w, "   └── migrated at promotion: %d\n", s.migrated)

	entries := r.Entries()
	if len(entries) == 0 {
		fmt.Fprintf(w, "\nDependencies\n   └── none resolved yet\n\n")
		return
	}

	fmt.Fprintf(w, "\nDependencies (%d)\n", len(entries))
	features := groupByFeature(entries)
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	slices.Sort(names)

	for i, name := range names {
		last := i == len(names)-1
		fmt.Fprintf(w, "   %s %s\n", branch(last), name)
		group := features[name]
		for j, e := range group {
			indent := "│  "
			if last {
				indent = "   "
			}
			line := fmt.Sprintf("%s [%s]", e.ID, e.Type)
			if e.Overrides > 0 {
				line += fmt.Sprintf(" overridden x%d", e.Overrides)
			}
			fmt.Fprintf(w, "   %s %s %s\n", indent, branch(j == len(group)-1), line)
		}
	}
	fmt.Fprintln(w)
}

func groupByFeature(entries []di.EntryInfo) map[string][]di.EntryInfo {
	out := make(map[string][]di.EntryInfo)
	for _, e := range entries {
		out[e.Name] = append(out[e.Name], e)
	}
	return out
}

func branch(last bool) string {
	if last {
		return "└──"
	}
	return "├──"
}
