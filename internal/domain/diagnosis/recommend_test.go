package diagnosis

import (
	"errors"
	"strings"
	"testing"
)

func TestAdvise(t *testing.T) {
	text, err := Advise(RiskHigh, "diabetic_retinopathy")
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if !strings.Contains(text, "HIGH RISK DETECTED") {
		t.Fatalf("Advise() = %q", text)
	}
	if !strings.Contains(text, "Disease detected: diabetic_retinopathy") {
		t.Fatalf("Advise() missing disease line: %q", text)
	}

	// "normal" never yields a disease line.
	text, err = Advise(RiskLow, "normal")
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if strings.Contains(text, "Disease detected") {
		t.Fatalf("Advise() = %q", text)
	}

	_, err = Advise(RiskLevel("severe"), "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Advise() error = %v, want ErrValidation", err)
	}
}

func TestAdviseCriticalFoldsToHigh(t *testing.T) {
	critical, err := Advise(RiskCritical, "")
	if err != nil {
		t.Fatalf("Advise(critical) error = %v", err)
	}
	high, err := Advise(RiskHigh, "")
	if err != nil {
		t.Fatalf("Advise(high) error = %v", err)
	}
	if critical != high {
		t.Fatalf("critical advisory differs from high")
	}
}

func TestWarn(t *testing.T) {
	warnings := Warn(RiskHigh, 0.95)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "URGENT") {
		t.Fatalf("Warn(high, 0.95) = %v", warnings)
	}

	warnings = Warn(RiskHigh, 0.45)
	if len(warnings) != 2 {
		t.Fatalf("Warn(high, 0.45) = %v", warnings)
	}

	warnings = Warn(RiskMedium, 0.85)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "REMINDER") {
		t.Fatalf("Warn(medium, 0.85) = %v", warnings)
	}

	if warnings := Warn(RiskLow, 0.9); len(warnings) != 0 {
		t.Fatalf("Warn(low, 0.9) = %v", warnings)
	}
}

func TestPrevent(t *testing.T) {
	if !strings.Contains(Prevent(RiskHigh), "treatment plan strictly") {
		t.Fatalf("Prevent(high) = %q", Prevent(RiskHigh))
	}
	if Prevent(RiskCritical) != Prevent(RiskHigh) {
		t.Fatalf("Prevent(critical) must match Prevent(high)")
	}
	if Prevent(RiskLevel("bogus")) != Prevent(RiskLow) {
		t.Fatalf("Prevent() unknown level must fall back to low")
	}
}
