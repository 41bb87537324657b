package diagnosis

import "testing"

func TestSummarizeKeepsTies(t *testing.T) {
	summary := Summarize([]Finding{
		{DiseaseType: "glaucoma", RiskLevel: RiskHigh, Confidence: 0.81},
		{DiseaseType: "cataract", RiskLevel: RiskLow, Confidence: 0.44},
		{DiseaseType: "diabetic_retinopathy", RiskLevel: RiskHigh, Confidence: 0.92},
	})

	if summary.Overall != RiskHigh {
		t.Fatalf("Summarize() overall = %s", summary.Overall)
	}
	if len(summary.DiseaseTypes) != 2 || summary.DiseaseTypes[0] != "glaucoma" || summary.DiseaseTypes[1] != "diabetic_retinopathy" {
		t.Fatalf("Summarize() diseases = %v", summary.DiseaseTypes)
	}
}

func TestSummarizeCriticalWins(t *testing.T) {
	summary := Summarize([]Finding{
		{DiseaseType: "amd", RiskLevel: RiskCritical, Confidence: 0.77},
		{DiseaseType: "glaucoma", RiskLevel: RiskHigh, Confidence: 0.95},
	})

	if summary.Overall != RiskCritical {
		t.Fatalf("Summarize() overall = %s", summary.Overall)
	}
	if len(summary.DiseaseTypes) != 1 || summary.DiseaseTypes[0] != "amd" {
		t.Fatalf("Summarize() diseases = %v", summary.DiseaseTypes)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Overall != RiskLow || len(summary.DiseaseTypes) != 0 {
		t.Fatalf("Summarize(nil) = %+v", summary)
	}
}

func TestMaxConfidence(t *testing.T) {
	findings := []Finding{
		{DiseaseType: "glaucoma", RiskLevel: RiskHigh, Confidence: 0.81},
		{DiseaseType: "amd", RiskLevel: RiskHigh, Confidence: 0.92},
		{DiseaseType: "cataract", RiskLevel: RiskLow, Confidence: 0.99},
	}
	if got := MaxConfidence(findings, RiskHigh); got != 0.92 {
		t.Fatalf("MaxConfidence() = %v", got)
	}
	if got := MaxConfidence(findings, RiskMedium); got != 0 {
		t.Fatalf("MaxConfidence() no match = %v", got)
	}
}
