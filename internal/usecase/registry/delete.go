package registry

import (
	"context"
	"errors"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
)

// Delete removes a model version. The active version cannot be deleted;
// activate a replacement first.
func (s *Service) Delete(ctx context.Context, modelVersionID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		target, err := s.models.GetModelVersion(txCtx, modelVersionID)
		if err != nil {
			return err
		}
		if target.Active {
			return diagnosis.ErrActiveModelDelete
		}

		return s.models.DeleteModelVersion(txCtx, modelVersionID)
	})
}
