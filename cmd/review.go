package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
	"retinoscan/internal/usecase/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Doctor review of completed analyses",
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record a doctor's verdict on a completed analysis",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		analysisID, _ := cmd.Flags().GetUint64("analysis")
		doctorID, _ := cmd.Flags().GetUint64("doctor")
		decision, _ := cmd.Flags().GetString("decision")
		comment, _ := cmd.Flags().GetString("comment")

		verdict, err := svcs.Review.SubmitReview(ctx, review.SubmitReviewInput{
			AnalysisID: analysisID,
			DoctorID:   doctorID,
			Decision:   decision,
			Comment:    comment,
		})
		if err != nil {
			logging.Error(ctx, "submit review failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit review")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "review %d recorded: analysis %d %s\n",
			verdict.ReviewID, verdict.AnalysisID, verdict.ValidationStatus); err != nil {
			return errs.Wrap(err, "write review output")
		}
		return nil
	}),
}

var reviewAmendCmd = &cobra.Command{
	Use:   "amend",
	Short: "Change a verdict that has not produced a report yet",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		reviewID, _ := cmd.Flags().GetUint64("review")
		decision, _ := cmd.Flags().GetString("decision")
		comment, _ := cmd.Flags().GetString("comment")

		verdict, err := svcs.Review.AmendReview(ctx, review.AmendReviewInput{
			ReviewID: reviewID,
			Decision: decision,
			Comment:  comment,
		})
		if err != nil {
			logging.Error(ctx, "amend review failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "amend review")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "review %d amended: analysis %d %s\n",
			verdict.ReviewID, verdict.AnalysisID, verdict.ValidationStatus); err != nil {
			return errs.Wrap(err, "write amend output")
		}
		return nil
	}),
}

var reviewPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List completed analyses awaiting review",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		items, err := svcs.Review.PendingReviews(ctx)
		if err != nil {
			logging.Error(ctx, "list pending reviews failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list pending reviews")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "analysis\timage\tpatient\ttype\teye\tsubmitted"); err != nil {
			return errs.Wrap(err, "write pending header")
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
				item.Analysis.AnalysisID, item.Image.ImageID, item.Image.PatientID,
				item.Image.ImageType, item.Image.EyeSide, item.Analysis.AnalysisTime); err != nil {
				return errs.Wrap(err, "write pending row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush pending output")
		}
		return nil
	}),
}

var reviewStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reviewer feedback aggregates",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		stats, err := svcs.Review.Statistics(ctx)
		if err != nil {
			logging.Error(ctx, "review stats failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "review stats")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "metric\tvalue"); err != nil {
			return errs.Wrap(err, "write stats header")
		}
		if _, err := fmt.Fprintf(w, "approved\t%d\n", stats.Approved); err != nil {
			return errs.Wrap(err, "write stats approved")
		}
		if _, err := fmt.Fprintf(w, "rejected\t%d\n", stats.Rejected); err != nil {
			return errs.Wrap(err, "write stats rejected")
		}
		if _, err := fmt.Fprintf(w, "total\t%d\n", stats.Total); err != nil {
			return errs.Wrap(err, "write stats total")
		}
		if _, err := fmt.Fprintf(w, "approval_rate\t%.2f\n", stats.ApprovalRate); err != nil {
			return errs.Wrap(err, "write stats rate")
		}
		if _, err := fmt.Fprintf(w, "reports\t%d\n", stats.Reports); err != nil {
			return errs.Wrap(err, "write stats reports")
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush stats output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewCmd.AddCommand(reviewAmendCmd)
	reviewCmd.AddCommand(reviewPendingCmd)
	reviewCmd.AddCommand(reviewStatsCmd)

	reviewSubmitCmd.Flags().Uint64("analysis", 0, "Analysis id")
	reviewSubmitCmd.Flags().Uint64("doctor", 0, "Reviewing doctor id")
	reviewSubmitCmd.Flags().String("decision", "", "Verdict (approved|rejected)")
	reviewSubmitCmd.Flags().String("comment", "", "Review comment (required for rejected)")
	_ = reviewSubmitCmd.MarkFlagRequired("analysis")
	_ = reviewSubmitCmd.MarkFlagRequired("doctor")
	_ = reviewSubmitCmd.MarkFlagRequired("decision")

	reviewAmendCmd.Flags().Uint64("review", 0, "Review id")
	reviewAmendCmd.Flags().String("decision", "", "New verdict (approved|rejected)")
	reviewAmendCmd.Flags().String("comment", "", "Review comment (required for rejected)")
	_ = reviewAmendCmd.MarkFlagRequired("review")
	_ = reviewAmendCmd.MarkFlagRequired("decision")
}
