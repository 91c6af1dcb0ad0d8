package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/pkg/export"
)

var (
	auditDonation string
	auditReceiver string
	auditAction   string
	auditSince    time.Duration
	auditFormat   string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the allocation audit log",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditDonation, "donation", "", "filter by donation id")
	auditCmd.Flags().StringVar(&auditReceiver, "receiver", "", "filter by receiver id")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "filter by action (request, decision, complete)")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only records newer than this")
	auditCmd.Flags().StringVar(&auditFormat, "format", "json", "output format: json or csv")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if auditFormat != "json" && auditFormat != "csv" {
		return fmt.Errorf("unknown format %q", auditFormat)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := audit.Open(cfg.Audit)
	if err != nil {
		return err
	}
	defer st.Close()

	q := audit.Query{
		DonationID: auditDonation,
		ReceiverID: auditReceiver,
		Action:     audit.Action(auditAction),
	}
	if auditSince > 0 {
		q.Start = time.Now().Add(-auditSince)
	}
	records, err := st.Query(context.Background(), q)
	if err != nil {
		return err
	}
	if auditFormat == "csv" {
		return export.WriteCSV(cmd.OutOrStdout(), records)
	}
	return export.WriteJSON(cmd.OutOrStdout(), records)
}
