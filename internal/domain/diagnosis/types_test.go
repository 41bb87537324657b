package diagnosis

import (
	"errors"
	"testing"
)

func TestParseImageType(t *testing.T) {
	got, err := ParseImageType(" Fundus ")
	if err != nil {
		t.Fatalf("ParseImageType() error = %v", err)
	}
	if got != ImageTypeFundus {
		t.Fatalf("ParseImageType() = %q", got)
	}

	_, err = ParseImageType("xray")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseImageType() error = %v, want ErrValidation", err)
	}
}

func TestParseEyeSide(t *testing.T) {
	got, err := ParseEyeSide("BOTH")
	if err != nil {
		t.Fatalf("ParseEyeSide() error = %v", err)
	}
	if got != EyeSideBoth {
		t.Fatalf("ParseEyeSide() = %q", got)
	}

	_, err = ParseEyeSide("center")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseEyeSide() error = %v, want ErrValidation", err)
	}
}

func TestRiskLevelRankOrdering(t *testing.T) {
	if !(RiskLow.Rank() < RiskMedium.Rank() &&
		RiskMedium.Rank() < RiskHigh.Rank() &&
		RiskHigh.Rank() < RiskCritical.Rank()) {
		t.Fatalf("risk rank ordering broken")
	}
	if RiskLevel("unknown").Rank() >= RiskLow.Rank() {
		t.Fatalf("unknown risk must rank below low")
	}
}

func TestNormalizeConfidence(t *testing.T) {
	got, err := NormalizeConfidence(0.934)
	if err != nil {
		t.Fatalf("NormalizeConfidence() error = %v", err)
	}
	if got != 0.93 {
		t.Fatalf("NormalizeConfidence() = %v", got)
	}

	if _, err := NormalizeConfidence(1.2); !errors.Is(err, ErrValidation) {
		t.Fatalf("NormalizeConfidence(1.2) error = %v, want ErrValidation", err)
	}
	if _, err := NormalizeConfidence(-0.1); !errors.Is(err, ErrValidation) {
		t.Fatalf("NormalizeConfidence(-0.1) error = %v, want ErrValidation", err)
	}
}

func TestValidateFinding(t *testing.T) {
	got, err := ValidateFinding(Finding{
		DiseaseType: " diabetic_retinopathy ",
		RiskLevel:   "HIGH",
		Confidence:  0.93,
	})
	if err != nil {
		t.Fatalf("ValidateFinding() error = %v", err)
	}
	if got.DiseaseType != "diabetic_retinopathy" || got.RiskLevel != RiskHigh || got.Confidence != 0.93 {
		t.Fatalf("ValidateFinding() = %+v", got)
	}

	if _, err := ValidateFinding(Finding{RiskLevel: RiskLow, Confidence: 0.5}); !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidateFinding() without disease error = %v, want ErrValidation", err)
	}
}
