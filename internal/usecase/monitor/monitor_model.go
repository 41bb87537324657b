// Package monitor renders the live review worklist and pipeline health as a
// terminal console.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/usecase/pipeline"
	"retinoscan/internal/usecase/review"
)

const maxShownPending = 10
const maxAuditLines = 8

type Options struct {
	// DoctorID is the reviewer acting through the console; approve/reject
	// keys are disabled when it is zero.
	DoctorID        uint64
	RefreshInterval time.Duration
}

type monitorModel struct {
	ctx             context.Context
	pipelines       *pipeline.Service
	reviews         *review.Service
	doctorID        uint64
	refreshInterval time.Duration

	stats         pipeline.Statistics
	hasStats      bool
	reviewStats   review.Statistics
	pending       []review.PendingItem
	selectedIndex int
	status        string
	auditLogs     []string
}

type statsLoadedMsg struct {
	stats       pipeline.Statistics
	reviewStats review.Statistics
	err         error
}

type pendingLoadedMsg struct {
	items []review.PendingItem
	err   error
}

type tickMsg struct{}

type verdictDoneMsg struct {
	decision   string
	analysisID uint64
	err        error
}

func NewMonitorModel(ctx context.Context, pipelines *pipeline.Service, reviews *review.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &monitorModel{
		ctx:             ctx,
		pipelines:       pipelines,
		reviews:         reviews,
		doctorID:        options.DoctorID,
		refreshInterval: interval,
		status:          "starting",
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.loadStatsCmd(), m.loadPendingCmd(), m.tickCmd())
}

func (m *monitorModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadStatsCmd(), m.loadPendingCmd(), m.tickCmd())
	case statsLoadedMsg:
		if msg.err != nil {
			m.status = "stats refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.stats = msg.stats
		m.reviewStats = msg.reviewStats
		m.hasStats = true
		return m, nil
	case pendingLoadedMsg:
		if msg.err != nil {
			m.status = "worklist refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.pending = msg.items
		if len(m.pending) == 0 {
			m.selectedIndex = 0
			m.status = "review queue is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.pending) {
			m.selectedIndex = len(m.pending) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d awaiting review", len(m.pending))
		return m, nil
	case verdictDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.decision, msg.err)
			m.appendAuditLog(msg.decision, msg.analysisID, msg.err)
		} else {
			m.status = fmt.Sprintf("%s recorded for analysis %d", msg.decision, msg.analysisID)
			m.appendAuditLog(msg.decision, msg.analysisID, nil)
		}
		return m, tea.Batch(m.loadStatsCmd(), m.loadPendingCmd())
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, tea.Batch(m.loadStatsCmd(), m.loadPendingCmd())
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.pending)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "a":
			return m, m.verdictCmd("approved")
		case "r":
			return m, m.verdictCmd("rejected")
		}
	}
	return m, nil
}

func (m *monitorModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("RetinoScan Monitor"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"doctor=%s refresh=%s",
		formatDoctor(m.doctorID),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Pipeline"))
	builder.WriteString("\n")
	if !m.hasStats {
		builder.WriteString(dimStyle.Render("- loading"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Analyses: total=%d pending=%d processing=%d completed=%d failed=%d\n",
			m.stats.TotalAnalyses,
			m.stats.AnalysesByStatus["pending"],
			m.stats.AnalysesByStatus["processing"],
			m.stats.AnalysesByStatus["completed"],
			m.stats.AnalysesByStatus["failed"],
		))
		builder.WriteString(fmt.Sprintf("Images: uploaded=%d processing=%d analyzed=%d error=%d\n",
			m.stats.ImagesByStatus["uploaded"],
			m.stats.ImagesByStatus["processing"],
			m.stats.ImagesByStatus["analyzed"],
			m.stats.ImagesByStatus["error"],
		))
		builder.WriteString(fmt.Sprintf("Avg processing: %.1fs\n", m.stats.AverageProcessingTime))
		builder.WriteString(fmt.Sprintf("Reviews: approved=%d rejected=%d rate=%.0f%% reports=%d\n",
			m.reviewStats.Approved,
			m.reviewStats.Rejected,
			m.reviewStats.ApprovalRate*100,
			m.reviewStats.Reports,
		))
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Awaiting Review"))
	builder.WriteString("\n")
	if len(m.pending) == 0 {
		builder.WriteString(dimStyle.Render("- queue is empty"))
		builder.WriteString("\n\n")
	} else {
		shown := m.pending
		if len(shown) > maxShownPending {
			shown = shown[:maxShownPending]
		}
		for index, item := range shown {
			line := fmt.Sprintf(
				"analysis=%d image=%d patient=%d %s/%s submitted=%s",
				item.Analysis.AnalysisID,
				item.Image.ImageID,
				item.Image.PatientID,
				item.Image.ImageType,
				item.Image.EyeSide,
				item.Analysis.AnalysisTime,
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		if len(m.pending) > maxShownPending {
			builder.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.pending)-maxShownPending)))
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  a approve  r reject  q quit"))
	return builder.String()
}

func (m *monitorModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *monitorModel) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.pipelines.Statistics(m.ctx)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		reviewStats, err := m.reviews.Statistics(m.ctx)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		return statsLoadedMsg{stats: stats, reviewStats: reviewStats}
	}
}

func (m *monitorModel) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.reviews.PendingReviews(m.ctx)
		if err != nil {
			return pendingLoadedMsg{err: err}
		}
		return pendingLoadedMsg{items: items}
	}
}

func (m *monitorModel) verdictCmd(decision string) tea.Cmd {
	selected, ok := m.selectedPending()
	if !ok {
		m.status = "nothing selected"
		return nil
	}
	if m.doctorID == 0 {
		m.status = "read-only session: start the console with --doctor to review"
		return nil
	}

	m.status = "recording " + decision + "..."
	analysisID := selected.Analysis.AnalysisID
	return func() tea.Msg {
		comment := ""
		if decision == "rejected" {
			comment = "rejected from monitor console; see clinical notes"
		}
		_, err := m.reviews.SubmitReview(m.ctx, review.SubmitReviewInput{
			AnalysisID: analysisID,
			DoctorID:   m.doctorID,
			Decision:   decision,
			Comment:    comment,
		})
		return verdictDoneMsg{decision: decision, analysisID: analysisID, err: err}
	}
}

func (m *monitorModel) selectedPending() (review.PendingItem, bool) {
	if len(m.pending) == 0 {
		return review.PendingItem{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.pending) {
		return review.PendingItem{}, false
	}
	return m.pending[m.selectedIndex], true
}

func (m *monitorModel) appendAuditLog(decision string, analysisID uint64, opErr error) {
	outcome := "ok"
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s doctor=%d analysis=%d decision=%s result=%s",
		timestamp, m.doctorID, analysisID, decision, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "monitor console action",
		slog.String("time", timestamp),
		slog.Uint64("doctor_id", m.doctorID),
		slog.Uint64("analysis_id", analysisID),
		slog.String("decision", decision),
		slog.String("result", outcome),
	)
}

func formatDoctor(doctorID uint64) string {
	if doctorID == 0 {
		return "read-only"
	}
	return fmt.Sprintf("%d", doctorID)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
