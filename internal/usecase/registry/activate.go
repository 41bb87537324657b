package registry

import (
	"context"
	"errors"

	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Activate makes one version the active model and clears every other active
// flag in the same transaction, so at most one version is ever active.
func (s *Service) Activate(ctx context.Context, modelVersionID uint64) (ports.ModelVersion, error) {
	if ctx == nil {
		return ports.ModelVersion{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.ModelVersion{}, errs.Wrap(err, "check context")
	}

	s.activateMu.Lock()
	defer s.activateMu.Unlock()

	var activated ports.ModelVersion
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		target, err := s.models.GetModelVersion(txCtx, modelVersionID)
		if err != nil {
			return err
		}
		if target.Active {
			activated = target
			return nil
		}

		if err := s.models.DeactivateModelVersions(txCtx); err != nil {
			return err
		}
		if err := s.models.SetModelVersionActive(txCtx, modelVersionID); err != nil {
			return err
		}

		activated, err = s.models.GetModelVersion(txCtx, modelVersionID)
		return err
	}); err != nil {
		return ports.ModelVersion{}, err
	}

	return activated, nil
}
