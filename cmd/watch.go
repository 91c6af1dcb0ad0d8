package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/infra/mqtt"
)

var watchCmd = &cobra.Command{
	Use:   "watch [topic]",
	Short: "Print notifications published on the broker",
	Long:  "Subscribes to <prefix>/# (or the given topic filter) and prints every notification until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.MQTT.Enabled() {
		return fmt.Errorf("mqtt.broker is not configured")
	}
	mc := cfg.MQTT
	// A distinct id keeps the server's session and status topic untouched.
	mc.ClientID = fmt.Sprintf("%s-watch-%d", mc.ClientID, time.Now().UnixNano())
	mc.StatusTopic = ""
	client, err := mqtt.NewPahoClient(mc)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	topic := mc.TopicPrefix + "/#"
	if len(args) == 1 {
		topic = args[0]
	}
	out := cmd.OutOrStdout()
	if err := client.Subscribe(topic, func(t string, payload []byte) {
		fmt.Fprintf(out, "%s %s\n", t, payload)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", topic)
	<-ctx.Done()
	return nil
}
