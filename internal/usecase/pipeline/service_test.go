package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/infrastructure/persistence/repository"
	"retinoscan/internal/infrastructure/persistence/uow"
	"retinoscan/internal/ports"
)

type fakeScorer struct {
	outcome ports.ScoreOutcome
	err     error
	calls   int
}

func (f *fakeScorer) Score(_ context.Context, _ string, _ []byte) (ports.ScoreOutcome, error) {
	f.calls++
	if f.err != nil {
		return ports.ScoreOutcome{}, f.err
	}
	return f.outcome, nil
}

type sinkRecord struct {
	AccountID uint64
	Type      string
	Content   string
}

type fakeSink struct {
	records []sinkRecord
	err     error
}

func (f *fakeSink) Notify(_ context.Context, accountID uint64, notificationType string, content string) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, sinkRecord{AccountID: accountID, Type: notificationType, Content: content})
	return nil
}

type pipelineFixture struct {
	svc    *Service
	models ports.ModelVersionRepository
	scorer *fakeScorer
	sink   *fakeSink
	db     *gorm.DB
}

func setupPipeline(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "pipeline.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.RetinalImage{},
		&model.AiModelVersion{},
		&model.AiAnalysis{},
		&model.AiResult{},
		&model.AiAnnotation{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	scorer := &fakeScorer{}
	sink := &fakeSink{}
	models := repository.NewModelVersionRepository(db)
	svc := NewService(
		repository.NewImageRepository(db),
		models,
		repository.NewAnalysisRepository(db),
		repository.NewResultRepository(db),
		repository.NewAnnotationRepository(db),
		uow.NewUnitOfWork(db),
		scorer,
		sink,
	)

	return &pipelineFixture{svc: svc, models: models, scorer: scorer, sink: sink, db: db}
}

func (f *pipelineFixture) activateModel(t *testing.T) ports.ModelVersion {
	t.Helper()
	ctx := context.Background()

	version, err := f.models.CreateModelVersion(ctx, ports.ModelVersion{
		ModelName:       "retina-dr",
		Version:         "v2.1.0",
		ThresholdConfig: []byte(`{"diabetic_retinopathy":0.5}`),
		TrainedAt:       nowUTCString(),
	})
	if err != nil {
		t.Fatalf("create model version: %v", err)
	}
	if err := f.models.SetModelVersionActive(ctx, version.ModelVersionID); err != nil {
		t.Fatalf("activate model version: %v", err)
	}
	version.Active = true
	return version
}

func (f *pipelineFixture) uploadImage(t *testing.T, patientID uint64) ports.RetinalImage {
	t.Helper()

	image, err := f.svc.UploadImage(context.Background(), UploadImageInput{
		PatientID:  patientID,
		ClinicID:   7,
		UploadedBy: 11,
		ImageType:  "fundus",
		EyeSide:    "left",
		ImageURL:   "https://cdn.example.com/retina/1.png",
	})
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	return image
}

func TestUploadImageValidatesInput(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input UploadImageInput
	}{
		{"missing patient", UploadImageInput{ClinicID: 1, UploadedBy: 1, ImageType: "fundus", EyeSide: "left", ImageURL: "u"}},
		{"bad image type", UploadImageInput{PatientID: 1, ClinicID: 1, UploadedBy: 1, ImageType: "xray", EyeSide: "left", ImageURL: "u"}},
		{"bad eye side", UploadImageInput{PatientID: 1, ClinicID: 1, UploadedBy: 1, ImageType: "fundus", EyeSide: "center", ImageURL: "u"}},
		{"missing url", UploadImageInput{PatientID: 1, ClinicID: 1, UploadedBy: 1, ImageType: "fundus", EyeSide: "left"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.UploadImage(ctx, tc.input); !errors.Is(err, diagnosis.ErrValidation) {
				t.Fatalf("UploadImage() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitWithoutActiveModel(t *testing.T) {
	f := setupPipeline(t)
	image := f.uploadImage(t, 1)

	_, err := f.svc.Submit(context.Background(), image.ImageID)
	if !errors.Is(err, diagnosis.ErrNoActiveModel) {
		t.Fatalf("Submit() error = %v, want ErrNoActiveModel", err)
	}
	if !errors.Is(err, diagnosis.ErrPrecondition) {
		t.Fatalf("Submit() error = %v, want ErrPrecondition in chain", err)
	}
}

func TestSubmitMovesImageAndAnalysisToProcessing(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	version := f.activateModel(t)
	image := f.uploadImage(t, 1)

	analysis, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if analysis.Status != string(diagnosis.AnalysisStatusProcessing) {
		t.Fatalf("analysis status = %q, want processing", analysis.Status)
	}
	if analysis.ModelVersionID != version.ModelVersionID {
		t.Fatalf("analysis model version = %d, want %d", analysis.ModelVersionID, version.ModelVersionID)
	}

	got, err := f.svc.GetImage(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if got.Status != string(diagnosis.ImageStatusProcessing) {
		t.Fatalf("image status = %q, want processing", got.Status)
	}
}

func TestSubmitConflictsWithLiveAnalysis(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 1)

	if _, err := f.svc.Submit(ctx, image.ImageID); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	_, err := f.svc.Submit(ctx, image.ImageID)
	if !errors.Is(err, diagnosis.ErrAnalysisLive) {
		t.Fatalf("second Submit() error = %v, want ErrAnalysisLive", err)
	}
	if !errors.Is(err, diagnosis.ErrConflict) {
		t.Fatalf("second Submit() error = %v, want ErrConflict in chain", err)
	}
}

func TestCompleteFullFlow(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 42)

	analysis, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	completion, err := f.svc.Complete(ctx, CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings: []diagnosis.Finding{
			{DiseaseType: "diabetic_retinopathy", RiskLevel: diagnosis.RiskHigh, Confidence: 0.92},
			{DiseaseType: "glaucoma", RiskLevel: diagnosis.RiskMedium, Confidence: 0.55},
		},
		HeatmapURL:  "https://cdn.example.com/heatmaps/1.png",
		Description: "microaneurysms in upper quadrant",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if completion.Analysis.Status != string(diagnosis.AnalysisStatusCompleted) {
		t.Fatalf("analysis status = %q, want completed", completion.Analysis.Status)
	}
	if completion.Analysis.ProcessingTime == nil {
		t.Fatal("processing time not recorded")
	}
	if len(completion.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(completion.Results))
	}
	if completion.Annotation.HeatmapURL != "https://cdn.example.com/heatmaps/1.png" {
		t.Fatalf("annotation heatmap = %q", completion.Annotation.HeatmapURL)
	}
	if completion.Summary.Overall != diagnosis.RiskHigh {
		t.Fatalf("overall risk = %q, want high", completion.Summary.Overall)
	}
	if !strings.HasPrefix(completion.Advisory, "HIGH RISK DETECTED") {
		t.Fatalf("advisory = %q", completion.Advisory)
	}

	got, err := f.svc.GetImage(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if got.Status != string(diagnosis.ImageStatusAnalyzed) {
		t.Fatalf("image status = %q, want analyzed", got.Status)
	}

	if len(f.sink.records) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.AccountID != 42 || record.Type != notifyAnalysisCompleted {
		t.Fatalf("notification = %+v", record)
	}
	if !strings.Contains(record.Content, "high") {
		t.Fatalf("notification content = %q", record.Content)
	}
}

func TestCompleteRejectsInvalidFindings(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 1)

	analysis, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	_, err = f.svc.Complete(ctx, CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings: []diagnosis.Finding{
			{DiseaseType: "glaucoma", RiskLevel: diagnosis.RiskMedium, Confidence: 1.7},
		},
		HeatmapURL: "https://cdn.example.com/heatmaps/1.png",
	})
	if !errors.Is(err, diagnosis.ErrValidation) {
		t.Fatalf("Complete() error = %v, want ErrValidation", err)
	}

	// Rejected up front: the analysis must still be processing.
	detail, err := f.svc.GetAnalysis(ctx, analysis.AnalysisID)
	if err != nil {
		t.Fatalf("GetAnalysis() error = %v", err)
	}
	if detail.Analysis.Status != string(diagnosis.AnalysisStatusProcessing) {
		t.Fatalf("analysis status = %q, want processing", detail.Analysis.Status)
	}
}

func TestCompleteTwiceConflicts(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 1)

	analysis, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	input := CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings:   []diagnosis.Finding{{DiseaseType: "normal", RiskLevel: diagnosis.RiskLow, Confidence: 0.97}},
		HeatmapURL: "https://cdn.example.com/heatmaps/1.png",
	}
	if _, err := f.svc.Complete(ctx, input); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	if _, err := f.svc.Complete(ctx, input); !errors.Is(err, diagnosis.ErrConflict) {
		t.Fatalf("second Complete() error = %v, want ErrConflict", err)
	}
}

func TestFailRequiresReason(t *testing.T) {
	f := setupPipeline(t)

	if _, err := f.svc.Fail(context.Background(), 1, "  "); !errors.Is(err, diagnosis.ErrValidation) {
		t.Fatalf("Fail() error = %v, want ErrValidation", err)
	}
}

func TestFailedAnalysisFreesImageForResubmit(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 9)

	first, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	failed, err := f.svc.Fail(ctx, first.AnalysisID, "scorer timeout")
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if failed.FailureReason == nil || *failed.FailureReason != "scorer timeout" {
		t.Fatalf("failure reason = %v", failed.FailureReason)
	}

	got, err := f.svc.GetImage(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if got.Status != string(diagnosis.ImageStatusError) {
		t.Fatalf("image status = %q, want error", got.Status)
	}

	second, err := f.svc.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if second.AnalysisID == first.AnalysisID {
		t.Fatal("resubmit reused the failed analysis row")
	}

	// The failed attempt stays queryable as history.
	history, err := f.svc.PatientHistory(ctx, PatientHistoryInput{PatientID: 9})
	if err != nil {
		t.Fatalf("PatientHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
}

func TestRunCompletesThroughScorer(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 3)

	f.scorer.outcome = ports.ScoreOutcome{
		Findings: []diagnosis.Finding{
			{DiseaseType: "amd", RiskLevel: diagnosis.RiskMedium, Confidence: 0.81},
		},
		HeatmapURL:  "https://cdn.example.com/heatmaps/run.png",
		Description: "drusen deposits",
	}

	outcome, err := f.svc.Run(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Failed {
		t.Fatalf("Run() failed = true, reason %q", outcome.FailureReason)
	}
	if outcome.Completion == nil {
		t.Fatal("Run() completion is nil")
	}
	if f.scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1", f.scorer.calls)
	}
	if outcome.Completion.Summary.Overall != diagnosis.RiskMedium {
		t.Fatalf("overall risk = %q, want medium", outcome.Completion.Summary.Overall)
	}
}

func TestRunAbsorbsScorerFailure(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)
	image := f.uploadImage(t, 5)

	f.scorer.err = errors.New("connection refused")

	outcome, err := f.svc.Run(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.Failed {
		t.Fatal("Run() failed = false, want true")
	}
	if outcome.Analysis.Status != string(diagnosis.AnalysisStatusFailed) {
		t.Fatalf("analysis status = %q, want failed", outcome.Analysis.Status)
	}

	got, err := f.svc.GetImage(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if got.Status != string(diagnosis.ImageStatusError) {
		t.Fatalf("image status = %q, want error", got.Status)
	}

	if len(f.sink.records) != 1 || f.sink.records[0].Type != notifyAnalysisFailed {
		t.Fatalf("notifications = %+v", f.sink.records)
	}
}

func TestPatientHistoryValidatesRange(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input PatientHistoryInput
	}{
		{"missing patient", PatientHistoryInput{}},
		{"limit too large", PatientHistoryInput{PatientID: 1, Limit: 1001}},
		{"negative offset", PatientHistoryInput{PatientID: 1, Offset: -1}},
		{"bad start date", PatientHistoryInput{PatientID: 1, StartDate: "01/02/2026"}},
		{"inverted range", PatientHistoryInput{PatientID: 1, StartDate: "2026-03-01", EndDate: "2026-02-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.PatientHistory(ctx, tc.input); !errors.Is(err, diagnosis.ErrValidation) {
				t.Fatalf("PatientHistory() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestStatisticsCountsByStatus(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.activateModel(t)

	completedImage := f.uploadImage(t, 1)
	analysis, err := f.svc.Submit(ctx, completedImage.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.svc.Complete(ctx, CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings:   []diagnosis.Finding{{DiseaseType: "normal", RiskLevel: diagnosis.RiskLow, Confidence: 0.95}},
		HeatmapURL: "https://cdn.example.com/heatmaps/s.png",
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	failedImage := f.uploadImage(t, 2)
	failedAnalysis, err := f.svc.Submit(ctx, failedImage.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.svc.Fail(ctx, failedAnalysis.AnalysisID, "scorer crashed"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	stats, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalAnalyses != 2 {
		t.Fatalf("total analyses = %d, want 2", stats.TotalAnalyses)
	}
	if stats.AnalysesByStatus["completed"] != 1 || stats.AnalysesByStatus["failed"] != 1 {
		t.Fatalf("analyses by status = %v", stats.AnalysesByStatus)
	}
	if stats.ImagesByStatus["analyzed"] != 1 || stats.ImagesByStatus["error"] != 1 {
		t.Fatalf("images by status = %v", stats.ImagesByStatus)
	}
}
