package review

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
	"retinoscan/internal/usecase/pipeline"
)

const testReportBase = "https://reports.test.local"

type sinkRecord struct {
	AccountID uint64
	Type      string
	Content   string
}

type fakeSink struct {
	records []sinkRecord
}

func (f *fakeSink) Notify(_ context.Context, accountID uint64, notificationType string, content string) error {
	f.records = append(f.records, sinkRecord{AccountID: accountID, Type: notificationType, Content: content})
	return nil
}

type reviewFixture struct {
	svc       *Service
	pipelines *pipeline.Service
	models    ports.ModelVersionRepository
	sink      *fakeSink
}

func setupReview(t *testing.T) *reviewFixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "review.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.RetinalImage{},
		&model.AiModelVersion{},
		&model.AiAnalysis{},
		&model.AiResult{},
		&model.AiAnnotation{},
		&model.DoctorReview{},
		&model.MedicalReport{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	sink := &fakeSink{}
	images := repository.NewImageRepository(db)
	models := repository.NewModelVersionRepository(db)
	analyses := repository.NewAnalysisRepository(db)
	results := repository.NewResultRepository(db)
	annotations := repository.NewAnnotationRepository(db)
	reviews := repository.NewReviewRepository(db)
	reports := repository.NewReportRepository(db)
	txRunner := uow.NewUnitOfWork(db)

	pipelines := pipeline.NewService(images, models, analyses, results, annotations, txRunner, nil, nil)
	svc := NewService(analyses, images, results, reviews, reports, txRunner, sink, testReportBase)

	return &reviewFixture{svc: svc, pipelines: pipelines, models: models, sink: sink}
}

// completedAnalysis drives an image through upload, submit and complete so
// review tests start from a reviewable state.
func (f *reviewFixture) completedAnalysis(t *testing.T, patientID uint64) ports.AiAnalysis {
	t.Helper()
	ctx := context.Background()

	version, err := f.models.CreateModelVersion(ctx, ports.ModelVersion{
		ModelName:       "retina-dr",
		Version:         "v1.0.0",
		ThresholdConfig: []byte("{}"),
		TrainedAt:       nowUTCString(),
	})
	if err != nil {
		t.Fatalf("create model version: %v", err)
	}
	if err := f.models.SetModelVersionActive(ctx, version.ModelVersionID); err != nil {
		t.Fatalf("activate model version: %v", err)
	}

	image, err := f.pipelines.UploadImage(ctx, pipeline.UploadImageInput{
		PatientID:  patientID,
		ClinicID:   1,
		UploadedBy: 1,
		ImageType:  "fundus",
		EyeSide:    "right",
		ImageURL:   "https://cdn.example.com/retina/r.png",
	})
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}

	analysis, err := f.pipelines.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	completion, err := f.pipelines.Complete(ctx, pipeline.CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings: []diagnosis.Finding{
			{DiseaseType: "diabetic_retinopathy", RiskLevel: diagnosis.RiskHigh, Confidence: 0.9},
		},
		HeatmapURL: "https://cdn.example.com/heatmaps/r.png",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	return completion.Analysis
}

func (f *reviewFixture) processingAnalysis(t *testing.T) ports.AiAnalysis {
	t.Helper()
	ctx := context.Background()

	image, err := f.pipelines.UploadImage(ctx, pipeline.UploadImageInput{
		PatientID:  2,
		ClinicID:   1,
		UploadedBy: 1,
		ImageType:  "oct",
		EyeSide:    "left",
		ImageURL:   "https://cdn.example.com/retina/p.png",
	})
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	analysis, err := f.pipelines.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return analysis
}

func TestSubmitReviewRequiresCompletedAnalysis(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	_ = f.completedAnalysis(t, 1) // registers and activates the model
	processing := f.processingAnalysis(t)

	_, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: processing.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	})
	if !errors.Is(err, diagnosis.ErrNotReviewable) {
		t.Fatalf("SubmitReview() error = %v, want ErrNotReviewable", err)
	}
}

func TestSubmitReviewRejectedNeedsComment(t *testing.T) {
	f := setupReview(t)
	analysis := f.completedAnalysis(t, 1)

	_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "rejected",
		Comment:    "   ",
	})
	if !errors.Is(err, diagnosis.ErrRejectionComment) {
		t.Fatalf("SubmitReview() error = %v, want ErrRejectionComment", err)
	}
}

func TestSubmitReviewRejectsUnknownDecision(t *testing.T) {
	f := setupReview(t)
	analysis := f.completedAnalysis(t, 1)

	_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "pending",
	})
	if !errors.Is(err, diagnosis.ErrValidation) {
		t.Fatalf("SubmitReview() error = %v, want ErrValidation", err)
	}
}

func TestSubmitReviewOncePerAnalysis(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	analysis := f.completedAnalysis(t, 1)

	verdict, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	})
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if verdict.ValidationStatus != string(diagnosis.ReviewStatusApproved) {
		t.Fatalf("verdict = %q, want approved", verdict.ValidationStatus)
	}

	_, err = f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   11,
		Decision:   "rejected",
		Comment:    "image quality too poor",
	})
	if !errors.Is(err, diagnosis.ErrReviewExists) {
		t.Fatalf("second SubmitReview() error = %v, want ErrReviewExists", err)
	}
}

func TestAmendReviewBeforeReport(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	analysis := f.completedAnalysis(t, 1)

	verdict, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "rejected",
		Comment:    "left arcade occluded by artifact",
	})
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}

	amended, err := f.svc.AmendReview(ctx, AmendReviewInput{
		ReviewID: verdict.ReviewID,
		Decision: "approved",
	})
	if err != nil {
		t.Fatalf("AmendReview() error = %v", err)
	}
	if amended.ValidationStatus != string(diagnosis.ReviewStatusApproved) {
		t.Fatalf("amended verdict = %q, want approved", amended.ValidationStatus)
	}
}

func TestAmendReviewBlockedAfterReport(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	analysis := f.completedAnalysis(t, 1)

	verdict, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	})
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if _, err := f.svc.GenerateReport(ctx, analysis.AnalysisID); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	_, err = f.svc.AmendReview(ctx, AmendReviewInput{
		ReviewID: verdict.ReviewID,
		Decision: "rejected",
		Comment:  "changed my mind",
	})
	if !errors.Is(err, diagnosis.ErrReviewConsumed) {
		t.Fatalf("AmendReview() error = %v, want ErrReviewConsumed", err)
	}
}

func TestGenerateReportRequiresApproval(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	analysis := f.completedAnalysis(t, 1)

	// No review at all.
	if _, err := f.svc.GenerateReport(ctx, analysis.AnalysisID); !errors.Is(err, diagnosis.ErrReviewNotApproved) {
		t.Fatalf("GenerateReport() without review error = %v, want ErrReviewNotApproved", err)
	}

	if _, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "rejected",
		Comment:    "retake required",
	}); err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}

	if _, err := f.svc.GenerateReport(ctx, analysis.AnalysisID); !errors.Is(err, diagnosis.ErrReviewNotApproved) {
		t.Fatalf("GenerateReport() after rejection error = %v, want ErrReviewNotApproved", err)
	}
}

func TestGenerateReportIsIdempotent(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	analysis := f.completedAnalysis(t, 42)

	if _, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: analysis.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	}); err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}

	first, err := f.svc.GenerateReport(ctx, analysis.AnalysisID)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if first.PatientID != 42 || first.DoctorID != 10 {
		t.Fatalf("report = %+v", first)
	}
	if !strings.HasPrefix(first.ReportURL, testReportBase+"/reports/") {
		t.Fatalf("report url = %q", first.ReportURL)
	}

	second, err := f.svc.GenerateReport(ctx, analysis.AnalysisID)
	if err != nil {
		t.Fatalf("second GenerateReport() error = %v", err)
	}
	if second.ReportID != first.ReportID || second.ReportURL != first.ReportURL {
		t.Fatalf("second report = %+v, want same as first", second)
	}

	// Only the first generation notifies the patient.
	if len(f.sink.records) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.AccountID != 42 || record.Type != notifyReportReady {
		t.Fatalf("notification = %+v", record)
	}
	if !strings.Contains(record.Content, first.ReportURL) {
		t.Fatalf("notification content = %q", record.Content)
	}
	if !strings.Contains(record.Content, "high") {
		t.Fatalf("notification content = %q, want overall risk", record.Content)
	}
}

func TestPendingReviewsListsUnreviewedCompleted(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()
	reviewed := f.completedAnalysis(t, 1)
	_ = f.processingAnalysis(t)

	if _, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: reviewed.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	}); err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}

	items, err := f.svc.PendingReviews(ctx)
	if err != nil {
		t.Fatalf("PendingReviews() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("pending = %d, want 0", len(items))
	}

	unreviewed := f.completedAnalysisWithExistingModel(t, 3)
	items, err = f.svc.PendingReviews(ctx)
	if err != nil {
		t.Fatalf("PendingReviews() error = %v", err)
	}
	if len(items) != 1 || items[0].Analysis.AnalysisID != unreviewed.AnalysisID {
		t.Fatalf("pending = %+v", items)
	}
	if items[0].Image.PatientID != 3 {
		t.Fatalf("pending image patient = %d, want 3", items[0].Image.PatientID)
	}
}

// completedAnalysisWithExistingModel reuses the already-active model version.
func (f *reviewFixture) completedAnalysisWithExistingModel(t *testing.T, patientID uint64) ports.AiAnalysis {
	t.Helper()
	ctx := context.Background()

	image, err := f.pipelines.UploadImage(ctx, pipeline.UploadImageInput{
		PatientID:  patientID,
		ClinicID:   1,
		UploadedBy: 1,
		ImageType:  "fundus",
		EyeSide:    "both",
		ImageURL:   "https://cdn.example.com/retina/x.png",
	})
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	analysis, err := f.pipelines.Submit(ctx, image.ImageID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	completion, err := f.pipelines.Complete(ctx, pipeline.CompleteInput{
		AnalysisID: analysis.AnalysisID,
		Findings:   []diagnosis.Finding{{DiseaseType: "normal", RiskLevel: diagnosis.RiskLow, Confidence: 0.98}},
		HeatmapURL: "https://cdn.example.com/heatmaps/x.png",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	return completion.Analysis
}

func TestStatisticsAggregatesVerdicts(t *testing.T) {
	f := setupReview(t)
	ctx := context.Background()

	approvedAnalysis := f.completedAnalysis(t, 1)
	rejectedAnalysis := f.completedAnalysisWithExistingModel(t, 2)

	if _, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: approvedAnalysis.AnalysisID,
		DoctorID:   10,
		Decision:   "approved",
	}); err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if _, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
		AnalysisID: rejectedAnalysis.AnalysisID,
		DoctorID:   10,
		Decision:   "rejected",
		Comment:    "blurred media",
	}); err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if _, err := f.svc.GenerateReport(ctx, approvedAnalysis.AnalysisID); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	stats, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Approved != 1 || stats.Rejected != 1 || stats.Total != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.ApprovalRate != 0.5 {
		t.Fatalf("approval rate = %v, want 0.5", stats.ApprovalRate)
	}
	if stats.Reports != 1 {
		t.Fatalf("reports = %d, want 1", stats.Reports)
	}
}
