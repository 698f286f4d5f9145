package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initForce bool

// initCmd writes the effective configuration so it can be edited
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Long: `Writes the effective configuration (defaults plus any environment
overrides) to the config file, .opsdeck/config.yaml by default.

Example:
  OPSDECK_SERVER_ROOT=services/server opsdeck init`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}
