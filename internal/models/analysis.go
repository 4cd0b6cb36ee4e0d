package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ResultStatusPending   = "pending"
	ResultStatusCompleted = "completed"
	ResultStatusFailed    = "failed"
)

// UserAnalysis is one complete-analysis submission. The three result
// documents start as pending and are written exactly once by the ML step.
type UserAnalysis struct {
	ID                   uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               uint           `gorm:"not null;index" json:"user_id"`
	ImagePath            string         `gorm:"size:500;not null" json:"image_path"`
	ChatAnswers          datatypes.JSON `gorm:"not null" json:"chat_answers"`
	FaceAnalysis         datatypes.JSON `json:"face_analysis"`
	StyleRecommendations datatypes.JSON `json:"style_recommendations"`
	PersonalizedInsights datatypes.JSON `json:"personalized_insights"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	User                 User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserAnalysis) TableName() string {
	return "user_analyses"
}
