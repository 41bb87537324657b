package model

type DoctorReview struct {
	ReviewID         uint64  `gorm:"column:review_id;primaryKey;autoIncrement"`
	AnalysisID       uint64  `gorm:"column:analysis_id;not null;uniqueIndex"`
	DoctorID         uint64  `gorm:"column:doctor_id;not null;index"`
	ValidationStatus string  `gorm:"column:validation_status;type:text;not null;index"`
	Comment          *string `gorm:"column:comment;type:text"`
	ReviewedAt       string  `gorm:"column:reviewed_at;type:text;not null"`
}

func (DoctorReview) TableName() string {
	return "doctor_reviews"
}
