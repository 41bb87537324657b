package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/usecase/pipeline"
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Drive and inspect AI analyses",
}

var analysisSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an image for analysis against the active model",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		imageID, _ := cmd.Flags().GetUint64("image")

		analysis, err := svcs.Pipeline.Submit(ctx, imageID)
		if err != nil {
			logging.Error(ctx, "submit analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit analysis")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "analysis %d created for image %d (model version %d, status=%s)\n",
			analysis.AnalysisID, analysis.ImageID, analysis.ModelVersionID, analysis.Status); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		return nil
	}),
}

var analysisRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit an image and score it through the configured scorer",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		imageID, _ := cmd.Flags().GetUint64("image")

		outcome, err := svcs.Pipeline.Run(ctx, imageID)
		if err != nil {
			logging.Error(ctx, "run analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "run analysis")
		}

		if outcome.Failed {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "analysis %d failed: %s\n",
				outcome.Analysis.AnalysisID, outcome.FailureReason); err != nil {
				return errs.Wrap(err, "write run output")
			}
			return nil
		}

		return printCompletion(cmd, *outcome.Completion)
	}),
}

// scorerResultFile is the JSON shape accepted by `analysis complete`, the
// manual path for scorer output delivered out of band.
type scorerResultFile struct {
	Findings []struct {
		DiseaseType     string  `json:"disease_type"`
		RiskLevel       string  `json:"risk_level"`
		ConfidenceScore float64 `json:"confidence_score"`
	} `json:"findings"`
	HeatmapURL  string `json:"heatmap_url"`
	Description string `json:"description"`
}

var analysisCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete an analysis from a scorer result file",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		analysisID, _ := cmd.Flags().GetUint64("analysis")
		resultFile, _ := cmd.Flags().GetString("result-file")

		raw, err := os.ReadFile(resultFile)
		if err != nil {
			return errs.Wrap(err, "read result file")
		}
		var parsed scorerResultFile
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return errs.Wrap(err, "parse result file")
		}

		findings := make([]diagnosis.Finding, 0, len(parsed.Findings))
		for _, f := range parsed.Findings {
			findings = append(findings, diagnosis.Finding{
				DiseaseType: f.DiseaseType,
				RiskLevel:   diagnosis.RiskLevel(f.RiskLevel),
				Confidence:  f.ConfidenceScore,
			})
		}

		completion, err := svcs.Pipeline.Complete(ctx, pipeline.CompleteInput{
			AnalysisID:  analysisID,
			Findings:    findings,
			HeatmapURL:  parsed.HeatmapURL,
			Description: parsed.Description,
		})
		if err != nil {
			logging.Error(ctx, "complete analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complete analysis")
		}

		return printCompletion(cmd, completion)
	}),
}

var analysisFailCmd = &cobra.Command{
	Use:   "fail",
	Short: "Mark an analysis as failed",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		analysisID, _ := cmd.Flags().GetUint64("analysis")
		reason, _ := cmd.Flags().GetString("reason")

		failed, err := svcs.Pipeline.Fail(ctx, analysisID, reason)
		if err != nil {
			logging.Error(ctx, "fail analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "fail analysis")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "analysis %d marked failed; image %d is free for a new submit\n",
			failed.AnalysisID, failed.ImageID); err != nil {
			return errs.Wrap(err, "write fail output")
		}
		return nil
	}),
}

var analysisShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show an analysis with its findings and annotation",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		analysisID, err := parseIDArg(cmd, 0, "analysis-id")
		if err != nil {
			return err
		}

		detail, err := svcs.Pipeline.GetAnalysis(ctx, analysisID)
		if err != nil {
			logging.Error(ctx, "get analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get analysis")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintf(w, "id\t%d\nimage\t%d\npatient\t%d\nmodel_version\t%d\nstatus\t%s\nsubmitted\t%s\n",
			detail.Analysis.AnalysisID, detail.Analysis.ImageID, detail.Image.PatientID,
			detail.Analysis.ModelVersionID, detail.Analysis.Status, detail.Analysis.AnalysisTime); err != nil {
			return errs.Wrap(err, "write analysis output")
		}
		if detail.Analysis.ProcessingTime != nil {
			if _, err := fmt.Fprintf(w, "processing_time\t%ds\n", *detail.Analysis.ProcessingTime); err != nil {
				return errs.Wrap(err, "write analysis output")
			}
		}
		if detail.Analysis.FailureReason != nil {
			if _, err := fmt.Fprintf(w, "failure_reason\t%s\n", *detail.Analysis.FailureReason); err != nil {
				return errs.Wrap(err, "write analysis output")
			}
		}
		if _, err := fmt.Fprintf(w, "overall_risk\t%s\n", detail.Summary.Overall); err != nil {
			return errs.Wrap(err, "write analysis output")
		}
		if detail.Annotation != nil {
			if _, err := fmt.Fprintf(w, "heatmap\t%s\n", detail.Annotation.HeatmapURL); err != nil {
				return errs.Wrap(err, "write analysis output")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush analysis output")
		}

		if len(detail.Results) > 0 {
			fw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(fw, "\ndisease\trisk\tconfidence"); err != nil {
				return errs.Wrap(err, "write findings header")
			}
			for _, result := range detail.Results {
				if _, err := fmt.Fprintf(fw, "%s\t%s\t%.2f\n",
					result.DiseaseType, result.RiskLevel, result.ConfidenceScore); err != nil {
					return errs.Wrap(err, "write findings row")
				}
			}
			if err := fw.Flush(); err != nil {
				return errs.Wrap(err, "flush findings output")
			}
		}
		return nil
	}),
}

var analysisHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List a patient's analyses, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		patientID, _ := cmd.Flags().GetUint64("patient")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		startDate, _ := cmd.Flags().GetString("from")
		endDate, _ := cmd.Flags().GetString("to")

		items, err := svcs.Pipeline.PatientHistory(ctx, pipeline.PatientHistoryInput{
			PatientID: patientID,
			Limit:     limit,
			Offset:    offset,
			StartDate: startDate,
			EndDate:   endDate,
		})
		if err != nil {
			logging.Error(ctx, "patient history failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "patient history")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\timage\tmodel_version\tstatus\tsubmitted"); err != nil {
			return errs.Wrap(err, "write history header")
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
				item.AnalysisID, item.ImageID, item.ModelVersionID, item.Status, item.AnalysisTime); err != nil {
				return errs.Wrap(err, "write history row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush history output")
		}
		return nil
	}),
}

func printCompletion(cmd *cobra.Command, completion pipeline.Completion) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "analysis\t%d\nstatus\t%s\noverall_risk\t%s\nheatmap\t%s\n",
		completion.Analysis.AnalysisID, completion.Analysis.Status,
		completion.Summary.Overall, completion.Annotation.HeatmapURL); err != nil {
		return errs.Wrap(err, "write completion output")
	}
	if err := w.Flush(); err != nil {
		return errs.Wrap(err, "flush completion output")
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", completion.Advisory); err != nil {
		return errs.Wrap(err, "write advisory output")
	}
	for _, warning := range completion.Warnings {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", warning); err != nil {
			return errs.Wrap(err, "write warning output")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analysisCmd)
	analysisCmd.AddCommand(analysisSubmitCmd)
	analysisCmd.AddCommand(analysisRunCmd)
	analysisCmd.AddCommand(analysisCompleteCmd)
	analysisCmd.AddCommand(analysisFailCmd)
	analysisCmd.AddCommand(analysisShowCmd)
	analysisCmd.AddCommand(analysisHistoryCmd)

	analysisSubmitCmd.Flags().Uint64("image", 0, "Image id to analyze")
	_ = analysisSubmitCmd.MarkFlagRequired("image")

	analysisRunCmd.Flags().Uint64("image", 0, "Image id to analyze")
	_ = analysisRunCmd.MarkFlagRequired("image")

	analysisCompleteCmd.Flags().Uint64("analysis", 0, "Analysis id")
	analysisCompleteCmd.Flags().String("result-file", "", "JSON file with scorer findings")
	_ = analysisCompleteCmd.MarkFlagRequired("analysis")
	_ = analysisCompleteCmd.MarkFlagRequired("result-file")

	analysisFailCmd.Flags().Uint64("analysis", 0, "Analysis id")
	analysisFailCmd.Flags().String("reason", "", "Failure reason")
	_ = analysisFailCmd.MarkFlagRequired("analysis")
	_ = analysisFailCmd.MarkFlagRequired("reason")

	analysisHistoryCmd.Flags().Uint64("patient", 0, "Patient id")
	analysisHistoryCmd.Flags().Int("limit", 50, "Max rows (1-1000)")
	analysisHistoryCmd.Flags().Int("offset", 0, "Rows to skip")
	analysisHistoryCmd.Flags().String("from", "", "Inclusive start date YYYY-MM-DD")
	analysisHistoryCmd.Flags().String("to", "", "Inclusive end date YYYY-MM-DD")
	_ = analysisHistoryCmd.MarkFlagRequired("patient")
}
