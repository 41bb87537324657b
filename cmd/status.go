package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a one-shot pipeline overview",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		pipelineStats, err := svcs.Pipeline.Statistics(ctx)
		if err != nil {
			logging.Error(ctx, "pipeline statistics failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "pipeline statistics")
		}
		reviewStats, err := svcs.Review.Statistics(ctx)
		if err != nil {
			logging.Error(ctx, "review statistics failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "review statistics")
		}
		modelCount, err := svcs.Registry.Count(ctx)
		if err != nil {
			logging.Error(ctx, "count model versions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "count model versions")
		}

		titleStyle := lipgloss.NewStyle().Bold(true)
		sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

		var builder strings.Builder
		builder.WriteString(titleStyle.Render("RetinoScan Status"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf("database=%s scorer=%s",
			app.Config.Database.Driver, app.Config.Scorer.Endpoint)))
		builder.WriteString("\n\n")

		builder.WriteString(sectionStyle.Render("Models"))
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- registered versions: %d\n", modelCount))
		active, err := svcs.Registry.Active(ctx)
		if err != nil {
			builder.WriteString(dimStyle.Render("- no active version"))
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("- active: %s %s (id %d)\n",
				active.ModelName, active.Version, active.ModelVersionID))
		}
		builder.WriteString("\n")

		builder.WriteString(sectionStyle.Render("Analyses"))
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- total: %d\n", pipelineStats.TotalAnalyses))
		for _, status := range []string{"pending", "processing", "completed", "failed"} {
			builder.WriteString(fmt.Sprintf("- %s: %d\n", status, pipelineStats.AnalysesByStatus[status]))
		}
		builder.WriteString(fmt.Sprintf("- avg processing: %.1fs\n", pipelineStats.AverageProcessingTime))
		builder.WriteString("\n")

		builder.WriteString(sectionStyle.Render("Images"))
		builder.WriteString("\n")
		for _, status := range []string{"uploaded", "processing", "analyzed", "error"} {
			builder.WriteString(fmt.Sprintf("- %s: %d\n", status, pipelineStats.ImagesByStatus[status]))
		}
		builder.WriteString("\n")

		builder.WriteString(sectionStyle.Render("Reviews"))
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- approved: %d\n", reviewStats.Approved))
		builder.WriteString(fmt.Sprintf("- rejected: %d\n", reviewStats.Rejected))
		builder.WriteString(fmt.Sprintf("- approval rate: %.0f%%\n", reviewStats.ApprovalRate*100))
		builder.WriteString(fmt.Sprintf("- reports: %d\n", reviewStats.Reports))

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), builder.String()); err != nil {
			return errs.Wrap(err, "write status output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
