package model

type AiResult struct {
	ResultID        uint64  `gorm:"column:result_id;primaryKey;autoIncrement"`
	AnalysisID      uint64  `gorm:"column:analysis_id;not null;index"`
	DiseaseType     string  `gorm:"column:disease_type;type:text;not null"`
	RiskLevel       string  `gorm:"column:risk_level;type:text;not null"`
	ConfidenceScore float64 `gorm:"column:confidence_score;not null"`
}

func (AiResult) TableName() string {
	return "ai_results"
}
