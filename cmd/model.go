package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
	"retinoscan/internal/usecase/registry"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage AI model versions",
}

var modelRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new model version",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		version, _ := cmd.Flags().GetString("version")
		thresholdFile, _ := cmd.Flags().GetString("threshold-file")

		thresholdConfig, err := loadThresholdConfig(thresholdFile)
		if err != nil {
			return err
		}

		created, err := svcs.Registry.Register(ctx, registry.RegisterInput{
			ModelName:       name,
			Version:         version,
			ThresholdConfig: thresholdConfig,
		})
		if err != nil {
			logging.Error(ctx, "register model version failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "register model version")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "registered model version %d (%s %s)\n",
			created.ModelVersionID, created.ModelName, created.Version); err != nil {
			return errs.Wrap(err, "write register output")
		}
		return nil
	}),
}

var modelActivateCmd = &cobra.Command{
	Use:   "activate <model-version-id>",
	Short: "Activate a model version (deactivates the rest)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		modelVersionID, err := parseIDArg(cmd, 0, "model-version-id")
		if err != nil {
			return err
		}

		activated, err := svcs.Registry.Activate(ctx, modelVersionID)
		if err != nil {
			logging.Error(ctx, "activate model version failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "activate model version")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "active model version: %d (%s %s)\n",
			activated.ModelVersionID, activated.ModelName, activated.Version); err != nil {
			return errs.Wrap(err, "write activate output")
		}
		return nil
	}),
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered model versions",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		versions, err := svcs.Registry.List(ctx)
		if err != nil {
			logging.Error(ctx, "list model versions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list model versions")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\tname\tversion\ttrained_at\tactive"); err != nil {
			return errs.Wrap(err, "write model list header")
		}
		for _, item := range versions {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n",
				item.ModelVersionID, item.ModelName, item.Version, item.TrainedAt, item.Active); err != nil {
				return errs.Wrap(err, "write model list row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush model list output")
		}
		return nil
	}),
}

var modelActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active model version",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		active, err := svcs.Registry.Active(ctx)
		if err != nil {
			logging.Error(ctx, "query active model version failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "query active model version")
		}

		return printModelVersion(cmd, active)
	}),
}

var modelDeleteCmd = &cobra.Command{
	Use:   "delete <model-version-id>",
	Short: "Delete an inactive model version",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		modelVersionID, err := parseIDArg(cmd, 0, "model-version-id")
		if err != nil {
			return err
		}

		if err := svcs.Registry.Delete(ctx, modelVersionID); err != nil {
			logging.Error(ctx, "delete model version failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete model version")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted model version %d\n", modelVersionID); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelRegisterCmd)
	modelCmd.AddCommand(modelActivateCmd)
	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelActiveCmd)
	modelCmd.AddCommand(modelDeleteCmd)

	modelRegisterCmd.Flags().String("name", "", "Model name, for example retina-dr")
	modelRegisterCmd.Flags().String("version", "", "Version string, for example v2.1.0")
	modelRegisterCmd.Flags().String("threshold-file", "", "Optional TOML file with per-disease confidence thresholds")
	_ = modelRegisterCmd.MarkFlagRequired("name")
	_ = modelRegisterCmd.MarkFlagRequired("version")
}

// loadThresholdConfig reads a TOML threshold file and re-encodes it as the
// JSON blob stored on the model version. No file means default thresholds.
func loadThresholdConfig(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "read threshold file")
	}

	var thresholds map[string]any
	if err := toml.Unmarshal(raw, &thresholds); err != nil {
		return nil, errs.Wrap(err, "parse threshold file")
	}

	encoded, err := json.Marshal(thresholds)
	if err != nil {
		return nil, errs.Wrap(err, "encode threshold config")
	}
	return encoded, nil
}

func printModelVersion(cmd *cobra.Command, version ports.ModelVersion) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "id\t%d\n", version.ModelVersionID); err != nil {
		return errs.Wrap(err, "write model output")
	}
	if _, err := fmt.Fprintf(w, "name\t%s\n", version.ModelName); err != nil {
		return errs.Wrap(err, "write model output")
	}
	if _, err := fmt.Fprintf(w, "version\t%s\n", version.Version); err != nil {
		return errs.Wrap(err, "write model output")
	}
	if _, err := fmt.Fprintf(w, "trained_at\t%s\n", version.TrainedAt); err != nil {
		return errs.Wrap(err, "write model output")
	}
	if _, err := fmt.Fprintf(w, "active\t%t\n", version.Active); err != nil {
		return errs.Wrap(err, "write model output")
	}
	if _, err := fmt.Fprintf(w, "threshold_config\t%s\n", string(version.ThresholdConfig)); err != nil {
		return errs.Wrap(err, "write model output")
	}
	return errs.Wrap(w.Flush(), "flush model output")
}

func parseIDArg(cmd *cobra.Command, index int, name string) (uint64, error) {
	raw := cmd.Flags().Args()[index]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
