package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/edquist/osg-configure/pkg/engine"
)

func newAttributesCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "attributes",
		Short: "Print the attribute set the configuration publishes",
		Long: `Resolve every section and print the resulting shared attribute set,
sorted by name, with the section that published each value. By default only
exportable attributes are shown; --all includes the internal cascade flags.`,
		Example: `  # Show the published attributes as YAML
  osg-configure attributes

  # Machine-readable output
  osg-configure attributes --json`,
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
			if _, err := eng.Verify(src); err != nil {
				return err
			}

			type entry struct {
				Name  string `json:"name" yaml:"name"`
				Value any    `json:"value" yaml:"value"`
				Owner string `json:"owner" yaml:"owner"`
			}
			var entries []entry
			for _, attr := range eng.Attributes() {
				if !all && !engine.ExportableName(attr.Name) {
					continue
				}
				entries = append(entries, entry{Name: attr.Name, Value: attr.Value, Owner: attr.Owner})
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			out, err := yaml.Marshal(entries)
			if err != nil {
				return fmt.Errorf("failed to marshal attributes: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include internal cascade flags")

	return cmd
}
