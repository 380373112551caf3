package cli

import (
	"github.com/spf13/cobra"

	"github.com/wenceslao015/mkt-tp-final/internal/seed"
)

var (
	seedCustomers int
	seedProducts  int
	seedOrders    int
	seedValue     uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic raw snapshot",
	Long: `Generate a referentially consistent set of raw CSV extracts in the
input directory, ready for a transform run. Useful for development and
demos when no real extracts are at hand.

Example:
  ecobottle-etl seed --customers 500 --orders 2000
  ecobottle-etl seed --seed 42`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 0,
		"number of customers to generate")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of products to generate")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 0,
		"number of sales orders to generate")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0,
		"RNG seed for reproducible output (0 = random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedCustomers > 0 {
		cfg.Seed.Customers = seedCustomers
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedOrders > 0 {
		cfg.Seed.Orders = seedOrders
	}
	if seedValue != 0 {
		cfg.Seed.Seed = seedValue
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	return seed.Generate(cfg.InputDir, cfg.Seed)
}
