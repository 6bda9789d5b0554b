package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

var notifyOpts struct {
	category string
	duration int
	app      string
	silent   bool
	replace  uint32
	close    uint32
}

var notifyCmd = &cobra.Command{
	Use:   "notify [message...]",
	Short: "Send a toast to the running notification daemon",
	Long: `Send a notification over D-Bus and print the ID it was given.

Any freedesktop notification daemon accepts it; a toastd started with
--dbus shows it as a toast.

Examples:
  toastd notify --category success "backup finished"
  toastd notify --duration 0 "stays until dismissed"
  toastd notify --close 42`,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVarP(&notifyOpts.category, "category", "c", "info",
		"Toast category (info, success, warning, error)")
	notifyCmd.Flags().IntVarP(&notifyOpts.duration, "duration", "d", -1,
		"Countdown in milliseconds (-1 = daemon default, 0 = until dismissed)")
	notifyCmd.Flags().StringVar(&notifyOpts.app, "app", "toastd",
		"Application name")
	notifyCmd.Flags().BoolVar(&notifyOpts.silent, "silent", false,
		"Ask the daemon not to play a sound")
	notifyCmd.Flags().Uint32Var(&notifyOpts.replace, "replace", 0,
		"Replace the notification with this ID")
	notifyCmd.Flags().Uint32Var(&notifyOpts.close, "close", 0,
		"Close the notification with this ID instead of sending one")
}

func runNotify(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" && notifyOpts.close == 0 {
		return fmt.Errorf("a message is required")
	}

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Debug("closing D-Bus client", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if notifyOpts.close != 0 {
		return client.CloseNotification(ctx, notifyOpts.close)
	}

	d := model.Draft{
		Message:  message,
		Category: model.ParseCategory(notifyOpts.category),
		AppName:  notifyOpts.app,
		Silent:   notifyOpts.silent,
	}
	if notifyOpts.duration >= 0 {
		d.Duration = model.Millis(notifyOpts.duration)
	}

	id, err := client.Notify(ctx, d, notifyOpts.replace)
	if err != nil {
		return err
	}
	logger.Debug("notification sent", "dbus_id", id, "category", d.Category)

	_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
	return err
}
