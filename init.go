package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyrewrite/internal/config"
)

const configHeader = `# pyrewrite configuration.
#
# formatter.command runs after the built-in normalizer, for example:
#   command: ruff
#   args: [format, "-"]
# imports.modernize adds legacy module replacements to the built-in table.
`

// initCommand implements `pyrewrite init`, which writes a config file holding
// the defaults.
func (a *app) initCommand() *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + config.FileName,
		Long: `Write a config file holding the default settings, ready to be edited.

path defaults to ./` + config.FileName + `. An existing file is left alone unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := defaultConfigFile()
			if err != nil {
				return err
			}
			if dryRun {
				_, _ = fmt.Fprint(a.stdout, content)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(a.stderr, "wrote default config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// defaultConfigFile renders the default config with a comment header.
func defaultConfigFile() (string, error) {
	data, err := config.Default().Marshal()
	if err != nil {
		return "", err
	}
	return configHeader + string(data), nil
}
