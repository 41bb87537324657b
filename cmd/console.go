package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
	"retinoscan/internal/usecase/monitor"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleMonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start the live pipeline and review worklist console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		doctorID, _ := cmd.Flags().GetUint64("doctor")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		model := monitor.NewMonitorModel(ctx, svcs.Pipeline, svcs.Review, monitor.Options{
			DoctorID:        doctorID,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run monitor console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleMonitorCmd)

	consoleMonitorCmd.Flags().Uint64("doctor", 0, "Doctor id for approve/reject keys (0 = read-only)")
	consoleMonitorCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
