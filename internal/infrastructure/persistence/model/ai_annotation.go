package model

type AiAnnotation struct {
	AnnotationID uint64  `gorm:"column:annotation_id;primaryKey;autoIncrement"`
	AnalysisID   uint64  `gorm:"column:analysis_id;not null;uniqueIndex"`
	HeatmapURL   string  `gorm:"column:heatmap_url;type:text;not null"`
	Description  *string `gorm:"column:description;type:text"`
}

func (AiAnnotation) TableName() string {
	return "ai_annotations"
}
