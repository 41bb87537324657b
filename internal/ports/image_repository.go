package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrImageNotFound = fmt.Errorf("retinal image not found: %w", diagnosis.ErrNotFound)

type RetinalImage struct {
	ImageID    uint64
	PatientID  uint64
	ClinicID   uint64
	UploadedBy uint64
	ImageType  string
	EyeSide    string
	ImageURL   string
	UploadTime string
	Status     string
}

// ImageFilter narrows image listings; zero values mean "no filter".
type ImageFilter struct {
	PatientID uint64
	ClinicID  uint64
	Status    string
}

type ImageRepository interface {
	CreateImage(ctx context.Context, image RetinalImage) (RetinalImage, error)
	GetImage(ctx context.Context, imageID uint64) (RetinalImage, error)
	// UpdateImageStatus is the only mutation an image supports after intake.
	UpdateImageStatus(ctx context.Context, imageID uint64, status string) error
	ListImages(ctx context.Context, filter ImageFilter) ([]RetinalImage, error)
	CountImagesByStatus(ctx context.Context, status string) (int64, error)
}
