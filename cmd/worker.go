/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventzen/apiserver/config"
	"github.com/eventzen/apiserver/internal/notify"
	"github.com/eventzen/apiserver/internal/server"
	"github.com/eventzen/apiserver/internal/services"
	"github.com/eventzen/apiserver/types"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes registration notifications",
	Long: `Consumes attendee registration notifications from the configured
broker and sends confirmation mail. Usage:

	eventzen worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.Default()

		notifier, err := server.NewNotifier(cmd.Context(), cfg.Broker)
		if err != nil {
			return err
		}
		if notifier == nil {
			return errors.New("BROKER_DRIVER must be set to run the worker")
		}
		defer notifier.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("worker consuming", "channel", services.ChannelAttendeeRegistered)
		err = notifier.Subscribe(ctx, services.ChannelAttendeeRegistered, func(ctx context.Context, msg notify.Message) error {
			var attendee types.Attendee
			if err := json.Unmarshal(msg.Data, &attendee); err != nil {
				logger.Error("dropping malformed notification", "id", msg.ID, "error", err)
				return nil
			}
			// Mail delivery is not wired up yet; acknowledge and log so
			// registrations are visible in operations tooling.
			logger.Info("attendee registered",
				"attendee", attendee.ID,
				"event", attendee.EventID,
				"email", attendee.Email,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
