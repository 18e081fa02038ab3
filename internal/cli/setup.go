package cli

import (
	"fmt"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/spf13/cobra"
)

var setupProject bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a starter configuration file",
	Long: `Write a starter config with the default settings.

By default the global config (~/.flowzone/config.yaml) is created; with
--project a project-local .flowzone/config.yaml is written instead.

Example:
  flowzone setup
  flowzone setup --project`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupProject, "project", false, "Write a project-local config instead of the global one")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve config paths: %w", err)
	}

	path := loader.GlobalConfigPath()
	if setupProject {
		path = loader.ProjectConfigPath()
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set scoring.api_key (or FLOWZONE_API_KEY) to enable model-backed scoring.")
	return nil
}
