package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	HistoryStatusPending        = "pending"
	HistoryStatusSuccess        = "success"
	HistoryStatusPartialSuccess = "partial_success"
	HistoryStatusError          = "error"
)

// ValidHistoryStatus reports whether status is an accepted grooming history tag.
func ValidHistoryStatus(status string) bool {
	switch status {
	case HistoryStatusPending, HistoryStatusSuccess, HistoryStatusPartialSuccess, HistoryStatusError:
		return true
	}
	return false
}

// GroomingHistory stores a complete ML analysis payload for one user.
type GroomingHistory struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint           `gorm:"not null;index:ix_grooming_history_user_created,priority:1" json:"user_id"`
	AnalysisData   datatypes.JSON `gorm:"not null" json:"analysis_data"`
	BeforeImageURL *string        `gorm:"size:10000" json:"before_image_url"`
	AfterImageURL  *string        `gorm:"size:10000" json:"after_image_url"`
	Status         string         `gorm:"size:50;not null;default:'pending'" json:"status"`
	CreatedAt      time.Time      `gorm:"index;index:ix_grooming_history_user_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	User           User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (GroomingHistory) TableName() string {
	return "grooming_history"
}
