package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wenceslao015/mkt-tp-final/internal/db"
	"github.com/wenceslao015/mkt-tp-final/internal/logging"
)

var (
	loadConnection   string
	loadDropExisting bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Transform the raw snapshot and load it into PostgreSQL",
	Long: `Read the thirteen raw CSV extracts from the input directory, build the
star schema in memory and load it into a PostgreSQL warehouse. The schema
is created first and the whole snapshot is loaded in one transaction, so
a failed load leaves no partial data behind.

Example:
  ecobottle-etl load --connection "postgres://localhost:5432/ecobottle_dw"
  ecobottle-etl load --connection "postgres://..." --drop-existing --mode lenient`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadConnection, "connection", "",
		"PostgreSQL connection string")
	loadCmd.Flags().BoolVar(&loadDropExisting, "drop-existing", false,
		"drop existing warehouse tables before loading")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadConnection != "" {
		cfg.Load.Connection = loadConnection
	}
	if loadDropExisting {
		cfg.Load.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	logging.Info().
		Str("input_dir", cfg.InputDir).
		Str("mode", cfg.Mode).
		Msg("Starting warehouse load")

	snap, warnings, err := buildSnapshot()
	if err != nil {
		return err
	}

	// Connect to database
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Load.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Load.DropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := db.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	} else {
		exists, err := db.SchemaExists(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to check schema: %w", err)
		}
		if exists {
			return fmt.Errorf(
				"warehouse tables already exist; use --drop-existing to replace them")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := db.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.LoadSnapshot(ctx, pool, snap); err != nil {
		return fmt.Errorf("failed to load warehouse: %w", err)
	}

	// Save metadata
	if err := db.SaveRunMetadata(ctx, pool, cfg.Mode, snap.TotalRows(), len(warnings)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int("rows", snap.TotalRows()).
		Int("warnings", len(warnings)).
		Msg("Warehouse load complete")

	return nil
}
