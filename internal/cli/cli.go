//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for ecobottle-etl.
package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/wenceslao015/mkt-tp-final/internal/config"
	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
	"github.com/wenceslao015/mkt-tp-final/pkg/version"
)

var (
	// Global flags
	cfgFile   string
	inputDir  string
	outputDir string
	mode      string
	logLevel  string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "ecobottle-etl",
		Short: "Star-schema ETL for the EcoBottle analytical warehouse",
		Long: `ecobottle-etl reads the raw EcoBottle transactional extracts (thirteen
CSV files per snapshot), transforms them into a twelve-table star schema
with surrogate keys and derived measures, and writes the result either as
CSV files or straight into a PostgreSQL warehouse.

Referential problems in the raw data are handled according to the run
mode: strict aborts on the first unresolved reference, lenient drops the
offending fact rows and reports them as warnings.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./ecobottle-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input-dir", "",
		"directory holding the raw CSV snapshot")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "",
		"directory the warehouse CSV files are written to")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "",
		"referential-integrity mode (strict, lenient)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the warehouse tables",
	Long: `List every table of the star schema the transform produces, with the
grain of each table.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Warehouse tables:")
		cmd.Println()
		cmd.Println("Dimensions:")
		for _, t := range warehouse.Tables {
			if t.Kind == "dimension" {
				cmd.Printf("  %-21s - %s\n", t.Name, t.Grain)
			}
		}
		cmd.Println()
		cmd.Println("Facts:")
		for _, t := range warehouse.Tables {
			if t.Kind == "fact" {
				cmd.Printf("  %-21s - %s\n", t.Name, t.Grain)
			}
		}
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the raw sources the transform expects",
	Long: `List the thirteen raw CSV extracts a snapshot consists of, with the
column order each file must have. All files must be present in the input
directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Raw sources:")
		cmd.Println()
		for _, s := range rawdata.Sources {
			cmd.Printf("  %-21s %s\n", s+".csv", strings.Join(rawdata.Header(s), ", "))
		}
	},
}
