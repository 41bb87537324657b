package model

// ImageID is a plain index, not unique: failed analyses stay behind as
// history and a re-submit creates a fresh row. At most one non-failed row per
// image is enforced transactionally by the orchestrator.
type AiAnalysis struct {
	AnalysisID     uint64  `gorm:"column:analysis_id;primaryKey;autoIncrement"`
	ImageID        uint64  `gorm:"column:image_id;not null;index"`
	ModelVersionID uint64  `gorm:"column:ai_model_version_id;not null;index"`
	AnalysisTime   string  `gorm:"column:analysis_time;type:text;not null;index"`
	Status         string  `gorm:"column:status;type:text;not null;index"`
	ProcessingTime *int64  `gorm:"column:processing_time"`
	FailureReason  *string `gorm:"column:failure_reason;type:text"`
}

func (AiAnalysis) TableName() string {
	return "ai_analysis"
}
