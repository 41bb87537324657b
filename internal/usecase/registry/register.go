package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Register records a new model version. Versions start inactive; activation
// is a separate, serialized step.
func (s *Service) Register(ctx context.Context, input RegisterInput) (ports.ModelVersion, error) {
	if ctx == nil {
		return ports.ModelVersion{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.ModelVersion{}, errs.Wrap(err, "check context")
	}

	modelName := strings.TrimSpace(input.ModelName)
	if modelName == "" {
		return ports.ModelVersion{}, fmt.Errorf("model name is required: %w", diagnosis.ErrValidation)
	}

	version := strings.TrimSpace(input.Version)
	if version == "" {
		return ports.ModelVersion{}, fmt.Errorf("version is required: %w", diagnosis.ErrValidation)
	}

	threshold := input.ThresholdConfig
	if len(threshold) == 0 {
		threshold = []byte("{}")
	}
	if !json.Valid(threshold) {
		return ports.ModelVersion{}, fmt.Errorf("threshold config is not valid JSON: %w", diagnosis.ErrValidation)
	}

	var created ports.ModelVersion
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.models.CreateModelVersion(txCtx, ports.ModelVersion{
			ModelName:       modelName,
			Version:         version,
			ThresholdConfig: threshold,
			TrainedAt:       nowUTCString(),
			Active:          false,
		})
		return err
	}); err != nil {
		return ports.ModelVersion{}, err
	}

	return created, nil
}
