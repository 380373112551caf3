package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wenceslao015/mkt-tp-final/internal/csvio"
	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/transform"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform the raw snapshot into warehouse CSV files",
	Long: `Read the thirteen raw CSV extracts from the input directory, build the
star schema in memory and write one CSV file per warehouse table to the
output directory.

In strict mode (the default) an unresolved reference aborts the run with
no output. In lenient mode the offending fact row is dropped and recorded
as a warning; malformed input aborts the run in both modes.

Example:
  ecobottle-etl run --input-dir raw --output-dir dw
  ecobottle-etl run --input-dir raw --output-dir dw --mode lenient`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	logging.Info().
		Str("input_dir", cfg.InputDir).
		Str("output_dir", cfg.OutputDir).
		Str("mode", cfg.Mode).
		Msg("Starting transform run")

	snap, warnings, err := buildSnapshot()
	if err != nil {
		return err
	}

	if err := csvio.WriteSnapshot(cfg.OutputDir, snap); err != nil {
		return fmt.Errorf("failed to write warehouse: %w", err)
	}

	logging.Info().
		Int("tables", len(warehouse.Tables)).
		Int("rows", snap.TotalRows()).
		Int("warnings", len(warnings)).
		Msg("Transform run complete")

	return nil
}

// buildSnapshot runs the shared front half of run and load: read the raw
// snapshot from the input directory and transform it.
func buildSnapshot() (*warehouse.Snapshot, []transform.Warning, error) {
	ds, err := rawdata.LoadDir(cfg.InputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read raw snapshot: %w", err)
	}

	b := transform.New(transform.Options{Mode: transform.Mode(cfg.Mode)})
	snap, err := b.Build(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("transform failed: %w", err)
	}

	return snap, b.Warnings(), nil
}
