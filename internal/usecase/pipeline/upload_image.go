package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// UploadImage registers an uploaded retinal image and makes it available for
// analysis.
func (s *Service) UploadImage(ctx context.Context, input UploadImageInput) (ports.RetinalImage, error) {
	if ctx == nil {
		return ports.RetinalImage{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.RetinalImage{}, errs.Wrap(err, "check context")
	}

	if input.PatientID == 0 {
		return ports.RetinalImage{}, fmt.Errorf("patient id is required: %w", diagnosis.ErrValidation)
	}
	if input.ClinicID == 0 {
		return ports.RetinalImage{}, fmt.Errorf("clinic id is required: %w", diagnosis.ErrValidation)
	}
	if input.UploadedBy == 0 {
		return ports.RetinalImage{}, fmt.Errorf("uploader account id is required: %w", diagnosis.ErrValidation)
	}

	imageType, err := diagnosis.ParseImageType(input.ImageType)
	if err != nil {
		return ports.RetinalImage{}, err
	}
	eyeSide, err := diagnosis.ParseEyeSide(input.EyeSide)
	if err != nil {
		return ports.RetinalImage{}, err
	}

	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" {
		return ports.RetinalImage{}, fmt.Errorf("image url is required: %w", diagnosis.ErrValidation)
	}

	var created ports.RetinalImage
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.images.CreateImage(txCtx, ports.RetinalImage{
			PatientID:  input.PatientID,
			ClinicID:   input.ClinicID,
			UploadedBy: input.UploadedBy,
			ImageType:  string(imageType),
			EyeSide:    string(eyeSide),
			ImageURL:   imageURL,
			UploadTime: nowUTCString(),
			Status:     string(diagnosis.ImageStatusUploaded),
		})
		return err
	}); err != nil {
		return ports.RetinalImage{}, err
	}

	return created, nil
}
