package model

import "gorm.io/datatypes"

type AiModelVersion struct {
	ModelVersionID  uint64         `gorm:"column:ai_model_version_id;primaryKey;autoIncrement"`
	ModelName       string         `gorm:"column:model_name;type:text;not null"`
	Version         string         `gorm:"column:version;type:text;not null;index"`
	ThresholdConfig datatypes.JSON `gorm:"column:threshold_config;not null"`
	TrainedAt       string         `gorm:"column:trained_at;type:text;not null"`
	ActiveFlag      bool           `gorm:"column:active_flag;not null;default:0;index"`
}

func (AiModelVersion) TableName() string {
	return "ai_model_versions"
}
