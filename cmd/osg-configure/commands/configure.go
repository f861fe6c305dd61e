package commands

import (
	"github.com/spf13/cobra"

	"github.com/edquist/osg-configure/pkg/engine"
)

func newConfigureCommand() *cobra.Command {
	var haltOnInvalid bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Parse, cross-validate and write the service configuration",
		Long: `Run the full pipeline: resolve every enabled section, cross-validate
the resolved settings, and write the rendered configuration files.

Hand-edited target files are backed up with a .pre-configure suffix before
they are replaced. Re-running against unchanged input rewrites nothing.`,
		Example: `  # Configure from the default directory
  osg-configure configure

  # Trial run against a scratch tree
  osg-configure configure --config-dir ./config.d --root /tmp/osg-test`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			src, err := loadSource()
			if err != nil {
				return err
			}
			policy := engine.RenderSkipInvalid
			if haltOnInvalid {
				policy = engine.RenderNothingOnFailure
			}
			eng, err := newEngine(log, nil, policy)
			if err != nil {
				return err
			}

			result, err := eng.RunAll(src)
			if err != nil {
				return err
			}
			printDiagnostics(eng)
			return summarize(result)
		},
	}

	cmd.Flags().BoolVar(&haltOnInvalid, "halt-on-invalid", false, "write nothing at all when any section fails cross-validation")

	return cmd
}
