package registry

import (
	"context"
	"errors"
	"strings"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Active returns the single active model version.
func (s *Service) Active(ctx context.Context) (ports.ModelVersion, error) {
	if ctx == nil {
		return ports.ModelVersion{}, errors.New("context is required")
	}

	active, err := s.models.GetActiveModelVersion(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrModelVersionNotFound) {
			return ports.ModelVersion{}, diagnosis.ErrNoActiveModel
		}
		return ports.ModelVersion{}, err
	}
	return active, nil
}

func (s *Service) Get(ctx context.Context, modelVersionID uint64) (ports.ModelVersion, error) {
	if ctx == nil {
		return ports.ModelVersion{}, errors.New("context is required")
	}
	return s.models.GetModelVersion(ctx, modelVersionID)
}

func (s *Service) GetByVersion(ctx context.Context, version string) (ports.ModelVersion, error) {
	if ctx == nil {
		return ports.ModelVersion{}, errors.New("context is required")
	}

	version = strings.TrimSpace(version)
	if version == "" {
		return ports.ModelVersion{}, errs.Wrap(diagnosis.ErrValidation, "version is required")
	}
	return s.models.GetModelVersionByVersion(ctx, version)
}

func (s *Service) List(ctx context.Context) ([]ports.ModelVersion, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.models.ListModelVersions(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	return s.models.CountModelVersions(ctx)
}
