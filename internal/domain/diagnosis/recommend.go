package diagnosis

import (
	"fmt"
	"strings"
)

// Recommendation texts are display enrichment only; they never gate a state
// transition. Critical shares the high-risk branch: the advisory for a
// critical finding cannot say less than the high one, and no dedicated
// wording exists for it.

func foldRisk(level RiskLevel) RiskLevel {
	if level == RiskCritical {
		return RiskHigh
	}
	return level
}

// Advise maps a risk level to the patient-facing recommendation. An optional
// disease type appends a disease-specific line ("normal" is skipped).
func Advise(level RiskLevel, diseaseType string) (string, error) {
	var text string
	switch foldRisk(level) {
	case RiskHigh:
		text = "HIGH RISK DETECTED: Immediate consultation with an ophthalmologist is strongly recommended. " +
			"Please schedule an appointment as soon as possible for further evaluation and treatment planning."
	case RiskMedium:
		text = "MODERATE RISK: Regular monitoring is advised. Please schedule a follow-up appointment " +
			"within 1-2 months to track any changes in your condition."
	case RiskLow:
		text = "LOW RISK: Continue with regular eye checkups as recommended by your healthcare provider. " +
			"Maintain a healthy lifestyle and monitor any changes in vision."
	default:
		return "", fmt.Errorf("invalid risk level %q: %w", level, ErrValidation)
	}

	disease := strings.TrimSpace(diseaseType)
	if disease != "" && !strings.EqualFold(disease, "normal") {
		text += fmt.Sprintf("\n\nDisease detected: %s. Please discuss this with your doctor.", disease)
	}

	return text, nil
}

// Warn derives caution messages from the risk level and scorer confidence.
func Warn(level RiskLevel, confidence float64) []string {
	var warnings []string
	folded := foldRisk(level)

	if folded == RiskHigh && confidence > 0.9 {
		warnings = append(warnings, "URGENT: High confidence high-risk detection. Immediate medical attention recommended.")
	}
	if folded == RiskHigh && confidence < 0.6 {
		warnings = append(warnings, "CAUTION: High risk detected but with lower confidence. Manual review by doctor is strongly recommended.")
	}
	if confidence < 0.5 {
		warnings = append(warnings, "NOTE: Low confidence score. Manual review by healthcare professional is recommended.")
	}
	if folded == RiskMedium && confidence > 0.8 {
		warnings = append(warnings, "REMINDER: Moderate risk detected. Regular follow-up appointments are important.")
	}

	return warnings
}

// Prevent maps a risk level to preventive advice. Unknown levels fall back to
// the low-risk advice.
func Prevent(level RiskLevel) string {
	switch foldRisk(level) {
	case RiskHigh:
		return "Preventive Measures:\n" +
			"- Avoid smoking and limit alcohol consumption\n" +
			"- Control blood sugar and blood pressure if diabetic/hypertensive\n" +
			"- Protect eyes from UV radiation with sunglasses\n" +
			"- Maintain a healthy diet rich in antioxidants\n" +
			"- Follow your doctor's treatment plan strictly"
	case RiskMedium:
		return "Preventive Measures:\n" +
			"- Regular eye examinations every 6-12 months\n" +
			"- Monitor blood sugar and blood pressure\n" +
			"- Maintain healthy lifestyle habits\n" +
			"- Report any vision changes immediately"
	default:
		return "Preventive Measures:\n" +
			"- Continue regular eye checkups annually\n" +
			"- Maintain healthy lifestyle\n" +
			"- Protect eyes from UV radiation\n" +
			"- Stay hydrated and eat a balanced diet"
	}
}
