package diagnosis

import (
	"fmt"
	"math"
	"strings"
)

// ImageType classifies how a retinal image was captured.
type ImageType string

const (
	ImageTypeFundus      ImageType = "fundus"
	ImageTypeOCT         ImageType = "oct"
	ImageTypeFluorescein ImageType = "fluorescein"
	ImageTypeAngiography ImageType = "angiography"
)

type EyeSide string

const (
	EyeSideLeft  EyeSide = "left"
	EyeSideRight EyeSide = "right"
	EyeSideBoth  EyeSide = "both"
)

// ImageStatus tracks an image through the pipeline. It mirrors the status of
// the image's current analysis once one exists.
type ImageStatus string

const (
	ImageStatusUploaded   ImageStatus = "uploaded"
	ImageStatusProcessing ImageStatus = "processing"
	ImageStatusAnalyzed   ImageStatus = "analyzed"
	ImageStatusError      ImageStatus = "error"
)

type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Finding is one disease/risk/confidence triple produced by the scorer.
type Finding struct {
	DiseaseType string
	RiskLevel   RiskLevel
	Confidence  float64
}

func ParseImageType(raw string) (ImageType, error) {
	switch t := ImageType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ImageTypeFundus, ImageTypeOCT, ImageTypeFluorescein, ImageTypeAngiography:
		return t, nil
	default:
		return "", fmt.Errorf("invalid image type %q: %w", raw, ErrValidation)
	}
}

func ParseEyeSide(raw string) (EyeSide, error) {
	switch s := EyeSide(strings.ToLower(strings.TrimSpace(raw))); s {
	case EyeSideLeft, EyeSideRight, EyeSideBoth:
		return s, nil
	default:
		return "", fmt.Errorf("invalid eye side %q: %w", raw, ErrValidation)
	}
}

func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch r := RiskLevel(strings.ToLower(strings.TrimSpace(raw))); r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return r, nil
	default:
		return "", fmt.Errorf("invalid risk level %q: %w", raw, ErrValidation)
	}
}

// Rank orders risk levels low < medium < high < critical. Unknown levels rank
// below low so they never win an aggregation.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// NormalizeConfidence clamps a scorer confidence into [0,1] and rounds it to
// two decimals, the precision the results table stores.
func NormalizeConfidence(score float64) (float64, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("confidence score is not a number: %w", ErrValidation)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("confidence score %v out of [0,1]: %w", score, ErrValidation)
	}
	return math.Round(score*100) / 100, nil
}

// ValidateFinding checks a scorer finding before it is persisted.
func ValidateFinding(f Finding) (Finding, error) {
	disease := strings.TrimSpace(f.DiseaseType)
	if disease == "" {
		return Finding{}, fmt.Errorf("disease type is required: %w", ErrValidation)
	}

	risk, err := ParseRiskLevel(string(f.RiskLevel))
	if err != nil {
		return Finding{}, err
	}

	confidence, err := NormalizeConfidence(f.Confidence)
	if err != nil {
		return Finding{}, err
	}

	return Finding{DiseaseType: disease, RiskLevel: risk, Confidence: confidence}, nil
}
