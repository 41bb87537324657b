package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and list medical reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the medical report for an approved analysis",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		analysisID, _ := cmd.Flags().GetUint64("analysis")

		report, err := svcs.Review.GenerateReport(ctx, analysisID)
		if err != nil {
			logging.Error(ctx, "generate report failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "generate report")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "report %d for patient %d: %s\n",
			report.ReportID, report.PatientID, report.ReportURL); err != nil {
			return errs.Wrap(err, "write report output")
		}
		return nil
	}),
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a patient's medical reports",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		patientID, _ := cmd.Flags().GetUint64("patient")
		limit, _ := cmd.Flags().GetInt("limit")

		reports, err := svcs.Review.ReportsByPatient(ctx, patientID, limit)
		if err != nil {
			logging.Error(ctx, "list reports failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list reports")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\tanalysis\tdoctor\tcreated\turl"); err != nil {
			return errs.Wrap(err, "write report list header")
		}
		for _, item := range reports {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
				item.ReportID, item.AnalysisID, item.DoctorID, item.CreatedAt, item.ReportURL); err != nil {
				return errs.Wrap(err, "write report list row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush report list output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportListCmd)

	reportGenerateCmd.Flags().Uint64("analysis", 0, "Analysis id with an approved review")
	_ = reportGenerateCmd.MarkFlagRequired("analysis")

	reportListCmd.Flags().Uint64("patient", 0, "Patient id")
	reportListCmd.Flags().Int("limit", 50, "Max rows")
	_ = reportListCmd.MarkFlagRequired("patient")
}
