package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/infrastructure/persistence/repository"
	"retinoscan/internal/infrastructure/persistence/uow"
	"retinoscan/internal/ports"
)

func setupRegistry(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "registry.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.AiModelVersion{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return NewService(repository.NewModelVersionRepository(db), uow.NewUnitOfWork(db))
}

func register(t *testing.T, svc *Service, name string, version string) ports.ModelVersion {
	t.Helper()

	created, err := svc.Register(context.Background(), RegisterInput{
		ModelName: name,
		Version:   version,
	})
	if err != nil {
		t.Fatalf("Register(%s %s) error = %v", name, version, err)
	}
	return created
}

func TestRegisterDefaultsAndValidation(t *testing.T) {
	svc := setupRegistry(t)
	ctx := context.Background()

	created := register(t, svc, "retina-dr", "v1.0.0")
	if created.Active {
		t.Fatal("new version must start inactive")
	}
	if string(created.ThresholdConfig) != "{}" {
		t.Fatalf("threshold config = %q, want {}", created.ThresholdConfig)
	}

	if _, err := svc.Register(ctx, RegisterInput{Version: "v1"}); !errors.Is(err, diagnosis.ErrValidation) {
		t.Fatalf("Register() without name error = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{
		ModelName:       "retina-dr",
		Version:         "v2",
		ThresholdConfig: []byte("not json"),
	}); !errors.Is(err, diagnosis.ErrValidation) {
		t.Fatalf("Register() with bad threshold error = %v, want ErrValidation", err)
	}
}

func TestActivateIsExclusive(t *testing.T) {
	svc := setupRegistry(t)
	ctx := context.Background()

	first := register(t, svc, "retina-dr", "v1.0.0")
	second := register(t, svc, "retina-dr", "v2.0.0")

	if _, err := svc.Activate(ctx, first.ModelVersionID); err != nil {
		t.Fatalf("Activate(first) error = %v", err)
	}
	if _, err := svc.Activate(ctx, second.ModelVersionID); err != nil {
		t.Fatalf("Activate(second) error = %v", err)
	}

	active, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.ModelVersionID != second.ModelVersionID {
		t.Fatalf("active version = %d, want %d", active.ModelVersionID, second.ModelVersionID)
	}

	versions, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	activeCount := 0
	for _, version := range versions {
		if version.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("active versions = %d, want 1", activeCount)
	}
}

func TestActivateAlreadyActiveIsIdempotent(t *testing.T) {
	svc := setupRegistry(t)
	ctx := context.Background()

	version := register(t, svc, "retina-dr", "v1.0.0")
	if _, err := svc.Activate(ctx, version.ModelVersionID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	again, err := svc.Activate(ctx, version.ModelVersionID)
	if err != nil {
		t.Fatalf("re-Activate() error = %v", err)
	}
	if !again.Active {
		t.Fatal("re-activated version not active")
	}
}

func TestActiveWithoutAnyVersion(t *testing.T) {
	svc := setupRegistry(t)

	_, err := svc.Active(context.Background())
	if !errors.Is(err, diagnosis.ErrNoActiveModel) {
		t.Fatalf("Active() error = %v, want ErrNoActiveModel", err)
	}
}

func TestDeleteRejectsActiveVersion(t *testing.T) {
	svc := setupRegistry(t)
	ctx := context.Background()

	active := register(t, svc, "retina-dr", "v1.0.0")
	spare := register(t, svc, "retina-dr", "v2.0.0")
	if _, err := svc.Activate(ctx, active.ModelVersionID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if err := svc.Delete(ctx, active.ModelVersionID); !errors.Is(err, diagnosis.ErrActiveModelDelete) {
		t.Fatalf("Delete(active) error = %v, want ErrActiveModelDelete", err)
	}

	if err := svc.Delete(ctx, spare.ModelVersionID); err != nil {
		t.Fatalf("Delete(inactive) error = %v", err)
	}
	if _, err := svc.Get(ctx, spare.ModelVersionID); !errors.Is(err, ports.ErrModelVersionNotFound) {
		t.Fatalf("Get(deleted) error = %v, want ErrModelVersionNotFound", err)
	}
}
