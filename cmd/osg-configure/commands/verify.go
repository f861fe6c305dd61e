package commands

import (
	"github.com/spf13/cobra"

	"github.com/edquist/osg-configure/pkg/engine"
)

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the configuration without writing anything",
		Long: `Run the parse and cross-validation passes only. No configuration file
is touched; every problem found is reported at once.`,
		Example: `  # Verify the system configuration
  osg-configure verify

  # Verify a staged configuration directory
  osg-configure verify --config-dir ./config.d`,
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
			eng, err := newEngine(log, nil, engine.RenderSkipInvalid)
			if err != nil {
				return err
			}

			result, err := eng.Verify(src)
			if err != nil {
				return err
			}
			printDiagnostics(eng)
			return summarize(result)
		},
	}

	return cmd
}
