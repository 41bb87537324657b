package model

type RetinalImage struct {
	ImageID    uint64 `gorm:"column:image_id;primaryKey;autoIncrement"`
	PatientID  uint64 `gorm:"column:patient_id;not null;index"`
	ClinicID   uint64 `gorm:"column:clinic_id;not null;index"`
	UploadedBy uint64 `gorm:"column:uploaded_by;not null"`
	ImageType  string `gorm:"column:image_type;type:text;not null"`
	EyeSide    string `gorm:"column:eye_side;type:text;not null"`
	ImageURL   string `gorm:"column:image_url;type:text;not null"`
	UploadTime string `gorm:"column:upload_time;type:text;not null"`
	Status     string `gorm:"column:status;type:text;not null;index"`
}

func (RetinalImage) TableName() string {
	return "retinal_images"
}
