package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
	"retinoscan/internal/usecase/inbox"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read pipeline notifications",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an account's notifications, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		accountID, _ := cmd.Flags().GetUint64("account")
		unreadOnly, _ := cmd.Flags().GetBool("unread")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := svcs.Inbox.List(ctx, inbox.ListInput{
			AccountID:  accountID,
			UnreadOnly: unreadOnly,
			Limit:      limit,
		})
		if err != nil {
			logging.Error(ctx, "list notifications failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list notifications")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\ttype\tread\tcreated\tcontent"); err != nil {
			return errs.Wrap(err, "write inbox header")
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n",
				item.NotificationID, item.Type, item.IsRead, item.CreatedAt, item.Content); err != nil {
				return errs.Wrap(err, "write inbox row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush inbox output")
		}
		return nil
	}),
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		notificationID, err := parseIDArg(cmd, 0, "notification-id")
		if err != nil {
			return err
		}

		if err := svcs.Inbox.MarkRead(ctx, notificationID); err != nil {
			logging.Error(ctx, "mark notification read failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark notification read")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "notification %d marked read\n", notificationID); err != nil {
			return errs.Wrap(err, "write read output")
		}
		return nil
	}),
}

var inboxReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark all of an account's notifications as read",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		accountID, _ := cmd.Flags().GetUint64("account")

		flipped, err := svcs.Inbox.MarkAllRead(ctx, accountID)
		if err != nil {
			logging.Error(ctx, "mark all notifications read failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark all notifications read")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d notifications marked read\n", flipped); err != nil {
			return errs.Wrap(err, "write read-all output")
		}
		return nil
	}),
}

var inboxUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Count an account's unread notifications",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		accountID, _ := cmd.Flags().GetUint64("account")

		count, err := svcs.Inbox.UnreadCount(ctx, accountID)
		if err != nil {
			logging.Error(ctx, "count unread notifications failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "count unread notifications")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", count); err != nil {
			return errs.Wrap(err, "write unread output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.AddCommand(inboxListCmd)
	inboxCmd.AddCommand(inboxReadCmd)
	inboxCmd.AddCommand(inboxReadAllCmd)
	inboxCmd.AddCommand(inboxUnreadCmd)

	inboxListCmd.Flags().Uint64("account", 0, "Account id")
	inboxListCmd.Flags().Bool("unread", false, "Only unread notifications")
	inboxListCmd.Flags().Int("limit", 50, "Max rows")
	_ = inboxListCmd.MarkFlagRequired("account")

	inboxReadAllCmd.Flags().Uint64("account", 0, "Account id")
	_ = inboxReadAllCmd.MarkFlagRequired("account")

	inboxUnreadCmd.Flags().Uint64("account", 0, "Account id")
	_ = inboxUnreadCmd.MarkFlagRequired("account")
}
