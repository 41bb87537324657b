package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"retinoscan/internal/ports"
	"retinoscan/internal/usecase/pipeline"
	"retinoscan/internal/usecase/review"
)

func TestPendingLoadedClampsSelection(t *testing.T) {
	model := &monitorModel{
		ctx:           context.Background(),
		selectedIndex: 5,
	}

	nextModel, _ := model.Update(pendingLoadedMsg{items: []review.PendingItem{
		{Analysis: ports.AiAnalysis{AnalysisID: 1}},
		{Analysis: ports.AiAnalysis{AnalysisID: 2}},
	}})

	updated, ok := nextModel.(*monitorModel)
	if !ok {
		t.Fatalf("type assertion failed: %T", nextModel)
	}
	if updated.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", updated.selectedIndex)
	}
	if !strings.Contains(updated.status, "2 awaiting review") {
		t.Fatalf("status = %q", updated.status)
	}
}

func TestPendingLoadedEmptyResetsSelection(t *testing.T) {
	model := &monitorModel{
		ctx:           context.Background(),
		selectedIndex: 3,
		pending:       []review.PendingItem{{Analysis: ports.AiAnalysis{AnalysisID: 9}}},
	}

	nextModel, _ := model.Update(pendingLoadedMsg{})

	updated := nextModel.(*monitorModel)
	if updated.selectedIndex != 0 {
		t.Fatalf("selectedIndex = %d, want 0", updated.selectedIndex)
	}
	if updated.status != "review queue is empty" {
		t.Fatalf("status = %q", updated.status)
	}
}

func TestStatsLoadedErrorKeepsPreviousStats(t *testing.T) {
	model := &monitorModel{
		ctx:      context.Background(),
		hasStats: true,
		stats:    pipeline.Statistics{TotalAnalyses: 4},
	}

	nextModel, _ := model.Update(statsLoadedMsg{err: errors.New("database is locked")})

	updated := nextModel.(*monitorModel)
	if !updated.hasStats || updated.stats.TotalAnalyses != 4 {
		t.Fatalf("stats = %+v, hasStats = %t", updated.stats, updated.hasStats)
	}
	if !strings.Contains(updated.status, "stats refresh failed") {
		t.Fatalf("status = %q", updated.status)
	}
}

func TestVerdictWithoutDoctorIsReadOnly(t *testing.T) {
	model := &monitorModel{
		ctx:     context.Background(),
		pending: []review.PendingItem{{Analysis: ports.AiAnalysis{AnalysisID: 7}}},
	}

	if cmd := model.verdictCmd("approved"); cmd != nil {
		t.Fatalf("verdictCmd() should be nil for a read-only session")
	}
	if !strings.Contains(model.status, "read-only") {
		t.Fatalf("status = %q", model.status)
	}
}

func TestVerdictWithoutSelectionDoesNothing(t *testing.T) {
	model := &monitorModel{
		ctx:      context.Background(),
		doctorID: 12,
	}

	if cmd := model.verdictCmd("rejected"); cmd != nil {
		t.Fatalf("verdictCmd() should be nil with an empty queue")
	}
	if model.status != "nothing selected" {
		t.Fatalf("status = %q", model.status)
	}
}

func TestAuditLogIsCappedNewestFirst(t *testing.T) {
	model := &monitorModel{
		ctx:      context.Background(),
		doctorID: 12,
	}

	for analysisID := uint64(1); analysisID <= uint64(maxAuditLines+2); analysisID++ {
		model.appendAuditLog("approved", analysisID, nil)
	}

	if len(model.auditLogs) != maxAuditLines {
		t.Fatalf("len(auditLogs) = %d, want %d", len(model.auditLogs), maxAuditLines)
	}
	if !strings.Contains(model.auditLogs[0], "analysis=10") {
		t.Fatalf("newest entry = %q", model.auditLogs[0])
	}
	if !strings.Contains(model.auditLogs[maxAuditLines-1], "analysis=3") {
		t.Fatalf("oldest kept entry = %q", model.auditLogs[maxAuditLines-1])
	}
}

func TestViewTruncatesLongQueue(t *testing.T) {
	var items []review.PendingItem
	for index := 0; index < maxShownPending+4; index++ {
		items = append(items, review.PendingItem{
			Analysis: ports.AiAnalysis{AnalysisID: uint64(index + 1), AnalysisTime: "2026-03-01T09:00:00Z"},
			Image:    ports.RetinalImage{ImageID: uint64(index + 1), PatientID: 42, ImageType: "fundus", EyeSide: "left"},
		})
	}

	model := &monitorModel{
		ctx:     context.Background(),
		pending: items,
	}

	view := model.View()
	if !strings.Contains(view, "Awaiting Review") {
		t.Fatalf("view missing worklist section: %s", view)
	}
	if !strings.Contains(view, "4 more") {
		t.Fatalf("view should note the truncated tail: %s", view)
	}
	if strings.Contains(view, "analysis=14 ") {
		t.Fatalf("view should only render the first %d items: %s", maxShownPending, view)
	}
}
