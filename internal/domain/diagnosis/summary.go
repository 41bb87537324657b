package diagnosis

// RiskSummary is the overall risk view exposed to review and notification
// consumers when an analysis carries multiple findings.
type RiskSummary struct {
	Overall RiskLevel
	// DiseaseTypes lists every disease at the overall level, in finding order.
	DiseaseTypes []string
}

// Summarize aggregates findings to the maximum risk level; ties keep all
// qualifying disease types. Zero findings yield a low-risk empty summary.
func Summarize(findings []Finding) RiskSummary {
	summary := RiskSummary{Overall: RiskLow}
	if len(findings) == 0 {
		return summary
	}

	for _, f := range findings {
		if f.RiskLevel.Rank() > summary.Overall.Rank() {
			summary.Overall = f.RiskLevel
		}
	}

	for _, f := range findings {
		if f.RiskLevel == summary.Overall {
			summary.DiseaseTypes = append(summary.DiseaseTypes, f.DiseaseType)
		}
	}

	return summary
}

// MaxConfidence returns the highest confidence among findings at the given
// risk level, or zero when none match.
func MaxConfidence(findings []Finding, level RiskLevel) float64 {
	max := 0.0
	for _, f := range findings {
		if f.RiskLevel == level && f.Confidence > max {
			max = f.Confidence
		}
	}
	return max
}
