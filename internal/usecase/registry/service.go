// Package registry governs AI model versions: which versions exist and which
// single one is active for new analyses.
package registry

import (
	"sync"
	"time"

	"retinoscan/internal/ports"
)

type Service struct {
	models ports.ModelVersionRepository
	uow    ports.UnitOfWork

	// activateMu serializes in-process activations; the transaction around the
	// clear+set pair covers cross-process races.
	activateMu sync.Mutex
}

func NewService(models ports.ModelVersionRepository, uow ports.UnitOfWork) *Service {
	return &Service{
		models: models,
		uow:    uow,
	}
}

type RegisterInput struct {
	ModelName string
	Version   string
	// ThresholdConfig is opaque JSON handed to the scorer; empty means "{}".
	ThresholdConfig []byte
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
