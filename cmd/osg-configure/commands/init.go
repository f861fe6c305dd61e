package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/sections"
)

// starterFileName sorts early so operator overrides in later files win.
const starterFileName = "10-osg-example.ini"

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a commented starter configuration into the configuration
directory, listing every known section with its options and defaults.
Mandatory options are left uncommented so a verify run points at what
still needs filling in. An existing starter file is never overwritten.`,
		Example: `  # Create /etc/osg/config.d with a starter file
  osg-configure init

  # Stage a starter file in a scratch directory
  osg-configure init --config-dir ./config.d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", configDir, err)
			}
			path := filepath.Join(configDir, starterFileName)
			if err := config.WriteExample(path, starterConfig()); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}

	return cmd
}

// starterConfig renders the section catalog as a commented INI skeleton.
func starterConfig() string {
	var b strings.Builder
	b.WriteString("; Starter configuration written by osg-configure init.\n")
	b.WriteString("; Uncomment the options you need, then run osg-configure verify.\n")

	for _, s := range sections.Catalog() {
		b.WriteString("\n[" + s.Name + "]\n")
		if !s.AlwaysEnabled {
			b.WriteString("; enabled = False\n")
		}
		if s.DynamicKeys {
			b.WriteString("; Every key in this block is published to the attributes file verbatim.\n")
			continue
		}
		for _, opt := range s.Options() {
			if opt.Required == options.Mandatory {
				b.WriteString(opt.Name + " = \n")
			} else {
				b.WriteString(fmt.Sprintf("; %s = %s\n", opt.Name, defaultText(opt)))
			}
		}
	}
	return b.String()
}

func defaultText(opt *options.Option) string {
	switch v := opt.Default.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", v)
	}
}
