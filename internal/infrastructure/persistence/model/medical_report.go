package model

type MedicalReport struct {
	ReportID   uint64 `gorm:"column:report_id;primaryKey;autoIncrement"`
	PatientID  uint64 `gorm:"column:patient_id;not null;index"`
	AnalysisID uint64 `gorm:"column:analysis_id;not null;uniqueIndex"`
	DoctorID   uint64 `gorm:"column:doctor_id;not null;index"`
	ReportURL  string `gorm:"column:report_url;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null;index"`
}

func (MedicalReport) TableName() string {
	return "medical_reports"
}
