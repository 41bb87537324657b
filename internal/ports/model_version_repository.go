package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrModelVersionNotFound = fmt.Errorf("ai model version not found: %w", diagnosis.ErrNotFound)

type ModelVersion struct {
	ModelVersionID uint64
	ModelName      string
	Version        string
	// ThresholdConfig is an opaque JSON blob interpreted by the scorer.
	ThresholdConfig []byte
	TrainedAt       string
	Active          bool
}

type ModelVersionRepository interface {
	CreateModelVersion(ctx context.Context, version ModelVersion) (ModelVersion, error)
	GetModelVersion(ctx context.Context, modelVersionID uint64) (ModelVersion, error)
	// GetActiveModelVersion returns ErrModelVersionNotFound when no version is active.
	GetActiveModelVersion(ctx context.Context) (ModelVersion, error)
	GetModelVersionByVersion(ctx context.Context, version string) (ModelVersion, error)
	ListModelVersions(ctx context.Context) ([]ModelVersion, error)
	// DeactivateModelVersions clears the active flag on every version.
	DeactivateModelVersions(ctx context.Context) error
	SetModelVersionActive(ctx context.Context, modelVersionID uint64) error
	DeleteModelVersion(ctx context.Context, modelVersionID uint64) error
	CountModelVersions(ctx context.Context) (int64, error)
}
