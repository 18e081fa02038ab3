package cli

import (
	"fmt"
	"os"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history as CSV",
	Long: `Export the session history in CSV form, to stdout or a file.

Example:
  flowzone export
  flowzone export --output sessions.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	records, err := st.Records()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := history.ExportCSV(out, records); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOutput != "" {
		fmt.Printf("Exported %d session(s) to %s\n", len(records), exportOutput)
	}
	return nil
}
