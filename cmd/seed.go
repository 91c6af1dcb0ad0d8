package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/zerowaste/app/plugins"
	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/infra/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixtures.yaml>",
	Short: "Load donors, receivers and donations into the configured store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Backend == "memory" {
		return fmt.Errorf("seeding the memory backend has no lasting effect; use store.fixtures instead")
	}
	fx, err := store.LoadFixtures(args[0])
	if err != nil {
		return err
	}
	st, err := plugins.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}
	if err := fx.Seed(context.Background(), st, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d donors, %d receivers, %d donations\n",
		len(fx.Donors), len(fx.Receivers), len(fx.Donations))
	return nil
}
