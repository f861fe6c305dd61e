package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/engine"
	"github.com/edquist/osg-configure/pkg/sections"
	"github.com/edquist/osg-configure/pkg/system"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

var (
	// Global flags
	configDir   string
	rootDir     string
	templateDir string
	logLevel    string
	jsonOutput  bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "osg-configure",
		Short: "osg-configure - OSG CE configuration tool",
		Long: `osg-configure reads the INI files in the configuration directory,
cross-validates the settings of every enabled section, and renders the
service configuration files for an OSG Compute Entrypoint.

Sections are independent blocks (Site Information, Gateway, batch systems,
Squid, Info Services...) that can each be enabled, disabled, or set to
ignore. Settings cascade between sections through a shared attribute set.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "/etc/osg/config.d", "directory holding the INI configuration files")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "prefix prepended to every written file (for testing)")
	rootCmd.PersistentFlags().StringVar(&templateDir, "template-dir", "/usr/share/osg-configure/templates", "directory holding render templates")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newAttributesCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// newLogger builds the run logger from the global flags.
func newLogger() (*telemetry.Logger, error) {
	format := "console"
	if jsonOutput {
		format = "json"
	}
	return telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  logLevel,
		Format: format,
		Output: "stderr",
	})
}

// loadSource reads and merges every INI file in the configuration
// directory.
func loadSource() (config.Source, error) {
	src, err := config.LoadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configDir, err)
	}
	return src, nil
}

// newEngine builds an engine over the full section catalog.
func newEngine(log *telemetry.Logger, metrics *telemetry.Metrics, policy engine.RenderPolicy) (*engine.Engine, error) {
	return engine.New(sections.Catalog(), engine.Options{
		Facts:        system.NewLocalFacts(),
		Paths:        sections.Paths{Root: rootDir, TemplateDir: templateDir},
		Logger:       log,
		Metrics:      metrics,
		RenderPolicy: policy,
	})
}

// printDiagnostics writes the run's diagnostics to stderr, one line each.
func printDiagnostics(eng *engine.Engine) {
	for _, d := range eng.Diagnostics() {
		where := d.Section
		if d.Option != "" {
			where += "." + d.Option
		}
		fmt.Fprintf(os.Stderr, "%-7s %s: %s\n", d.Severity, where, d.Message)
	}
}

// summarize prints the per-section outcome and returns an error when the
// run failed, so the process exits non-zero.
func summarize(result *engine.RunResult) error {
	for _, st := range result.Sections {
		status := "ok"
		if st.Err != nil {
			status = st.Err.Error()
		} else if !st.ParseOK || !st.ValidateOK || !st.RenderOK {
			status = "failed"
		}
		fmt.Printf("%-18s %-9s %s\n", st.Name, st.State, status)
	}
	if !result.OK() {
		return fmt.Errorf("configuration run %s failed", result.RunID)
	}
	return nil
}
