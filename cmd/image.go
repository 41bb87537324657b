package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retinoscan/internal/bootstrap"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
	"retinoscan/internal/usecase/pipeline"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage retinal images",
}

var imageUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Register an uploaded retinal image",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		patientID, _ := cmd.Flags().GetUint64("patient")
		clinicID, _ := cmd.Flags().GetUint64("clinic")
		uploadedBy, _ := cmd.Flags().GetUint64("uploaded-by")
		imageType, _ := cmd.Flags().GetString("type")
		eyeSide, _ := cmd.Flags().GetString("eye")
		imageURL, _ := cmd.Flags().GetString("url")

		image, err := svcs.Pipeline.UploadImage(ctx, pipeline.UploadImageInput{
			PatientID:  patientID,
			ClinicID:   clinicID,
			UploadedBy: uploadedBy,
			ImageType:  imageType,
			EyeSide:    eyeSide,
			ImageURL:   imageURL,
		})
		if err != nil {
			logging.Error(ctx, "upload image failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "upload image")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "image %d registered (%s/%s, status=%s)\n",
			image.ImageID, image.ImageType, image.EyeSide, image.Status); err != nil {
			return errs.Wrap(err, "write upload output")
		}
		return nil
	}),
}

var imageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retinal images",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		patientID, _ := cmd.Flags().GetUint64("patient")
		clinicID, _ := cmd.Flags().GetUint64("clinic")
		status, _ := cmd.Flags().GetString("status")

		images, err := svcs.Pipeline.ListImages(ctx, ports.ImageFilter{
			PatientID: patientID,
			ClinicID:  clinicID,
			Status:    status,
		})
		if err != nil {
			logging.Error(ctx, "list images failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list images")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\tpatient\tclinic\ttype\teye\tstatus\tuploaded"); err != nil {
			return errs.Wrap(err, "write image list header")
		}
		for _, item := range images {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
				item.ImageID, item.PatientID, item.ClinicID,
				item.ImageType, item.EyeSide, item.Status, item.UploadTime); err != nil {
				return errs.Wrap(err, "write image list row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush image list output")
		}
		return nil
	}),
}

var imageShowCmd = &cobra.Command{
	Use:   "show <image-id>",
	Short: "Show one retinal image",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		imageID, err := parseIDArg(cmd, 0, "image-id")
		if err != nil {
			return err
		}

		image, err := svcs.Pipeline.GetImage(ctx, imageID)
		if err != nil {
			logging.Error(ctx, "get image failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get image")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintf(w,
			"id\t%d\npatient\t%d\nclinic\t%d\nuploaded_by\t%d\ntype\t%s\neye\t%s\nurl\t%s\nstatus\t%s\nuploaded\t%s\n",
			image.ImageID, image.PatientID, image.ClinicID, image.UploadedBy,
			image.ImageType, image.EyeSide, image.ImageURL, image.Status, image.UploadTime); err != nil {
			return errs.Wrap(err, "write image output")
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush image output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.AddCommand(imageUploadCmd)
	imageCmd.AddCommand(imageListCmd)
	imageCmd.AddCommand(imageShowCmd)

	imageUploadCmd.Flags().Uint64("patient", 0, "Patient account id")
	imageUploadCmd.Flags().Uint64("clinic", 0, "Clinic id")
	imageUploadCmd.Flags().Uint64("uploaded-by", 0, "Uploading account id")
	imageUploadCmd.Flags().String("type", "", "Image type (fundus|oct|fluorescein|angiography)")
	imageUploadCmd.Flags().String("eye", "", "Eye side (left|right|both)")
	imageUploadCmd.Flags().String("url", "", "Stored image URL")
	_ = imageUploadCmd.MarkFlagRequired("patient")
	_ = imageUploadCmd.MarkFlagRequired("clinic")
	_ = imageUploadCmd.MarkFlagRequired("uploaded-by")
	_ = imageUploadCmd.MarkFlagRequired("type")
	_ = imageUploadCmd.MarkFlagRequired("eye")
	_ = imageUploadCmd.MarkFlagRequired("url")

	imageListCmd.Flags().Uint64("patient", 0, "Filter by patient id")
	imageListCmd.Flags().Uint64("clinic", 0, "Filter by clinic id")
	imageListCmd.Flags().String("status", "", "Filter by status (uploaded|processing|analyzed|error)")
}
