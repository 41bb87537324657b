package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"retinoscan/internal/bootstrap/config"
	"retinoscan/internal/bootstrap/database"
	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/infrastructure/notify"
	"retinoscan/internal/infrastructure/persistence/repository"
	"retinoscan/internal/infrastructure/persistence/uow"
	"retinoscan/internal/infrastructure/scorer"
	"retinoscan/internal/ports"
	"retinoscan/internal/usecase/inbox"
	"retinoscan/internal/usecase/pipeline"
	"retinoscan/internal/usecase/registry"
	"retinoscan/internal/usecase/review"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			repository.NewImageRepository,
			fx.As(new(ports.ImageRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewModelVersionRepository,
			fx.As(new(ports.ModelVersionRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewAnalysisRepository,
			fx.As(new(ports.AnalysisRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewResultRepository,
			fx.As(new(ports.ResultRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewAnnotationRepository,
			fx.As(new(ports.AnnotationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewReviewRepository,
			fx.As(new(ports.ReviewRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewReportRepository,
			fx.As(new(ports.ReportRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			repository.NewNotificationRepository,
			fx.As(new(ports.NotificationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			uow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideScorer,
			fx.As(new(ports.Scorer)),
		),
	),
	fx.Provide(
		fx.Annotate(
			notify.NewStoreSink,
			fx.As(new(ports.NotificationSink)),
		),
	),
	fx.Provide(registry.NewService),
	fx.Provide(pipeline.NewService),
	fx.Provide(provideReviewService),
	fx.Provide(inbox.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideScorer(cfg config.Config) *scorer.HTTPScorer {
	return scorer.NewHTTPScorer(cfg.Scorer)
}

func provideReviewService(
	analyses ports.AnalysisRepository,
	images ports.ImageRepository,
	results ports.ResultRepository,
	reviews ports.ReviewRepository,
	reports ports.ReportRepository,
	txRunner ports.UnitOfWork,
	sink ports.NotificationSink,
	cfg config.Config,
) *review.Service {
	return review.NewService(analyses, images, results, reviews, reports, txRunner, sink, cfg.Reports.BaseURL)
}
