package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/notify"
)

var pickupCmd = &cobra.Command{
	Use:   "pickup",
	Short: "Request, decide and complete pickups",
}

var pickupRequestCmd = &cobra.Command{
	Use:   "request <donation-id> <receiver-id>",
	Short: "File a pickup request for a receiver",
	Args:  cobra.ExactArgs(2),
	RunE:  runPickupRequest,
}

var pickupDecideCmd = &cobra.Command{
	Use:       "decide <request-id> accept|reject",
	Short:     "Accept or reject a pending request as the donor",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(model.DecisionAccept), string(model.DecisionReject)},
	RunE:      runPickupDecide,
}

var pickupCompleteCmd = &cobra.Command{
	Use:   "complete <donation-id>",
	Short: "Mark a reserved donation as collected",
	Args:  cobra.ExactArgs(1),
	RunE:  runPickupComplete,
}

var pickupPendingCmd = &cobra.Command{
	Use:   "pending <donor-id>",
	Short: "List requests awaiting the donor's decision",
	Args:  cobra.ExactArgs(1),
	RunE:  runPickupPending,
}

func init() {
	pickupCmd.AddCommand(pickupRequestCmd, pickupDecideCmd, pickupCompleteCmd, pickupPendingCmd)
	rootCmd.AddCommand(pickupCmd)
}

func runPickupRequest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	o, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	view, err := o.engine.RequestPickup(ctx, args[0], args[1], time.Now())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), view)
}

func runPickupDecide(cmd *cobra.Command, args []string) error {
	decision := model.Decision(args[1])
	if !decision.Valid() {
		return fmt.Errorf("decision must be %q or %q", model.DecisionAccept, model.DecisionReject)
	}
	ctx := context.Background()
	o, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	if err := o.engine.DecidePickup(ctx, args[0], decision); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "request %s: %s\n", args[0], decision)
	return nil
}

func runPickupComplete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	o, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	if err := o.engine.CompletePickup(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "donation %s completed\n", args[0])
	return nil
}

func runPickupPending(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	o, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	pending, err := o.engine.PendingForDonor(ctx, args[0])
	if err != nil {
		return err
	}
	if msg := notify.DonorMessage(pending); msg != "" {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	for _, p := range pending {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  donation=%s  receiver=%s  score=%.3f\n", p.ID, p.DonationID, p.ReceiverID, p.PriorityScore)
	}
	return nil
}
