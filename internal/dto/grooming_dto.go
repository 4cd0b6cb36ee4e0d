package dto

import (
	"encoding/json"
	"time"
)

type CreateGroomingHistoryRequest struct {
	AnalysisData   json.RawMessage `json:"analysis_data"`
	BeforeImageURL *string         `json:"before_image_url"`
	AfterImageURL  *string         `json:"after_image_url"`
	Status         string          `json:"status"`
}

type UpdateGroomingHistoryRequest struct {
	AnalysisData   json.RawMessage `json:"analysis_data"`
	BeforeImageURL *string         `json:"before_image_url"`
	AfterImageURL  *string         `json:"after_image_url"`
	Status         *string         `json:"status"`
}

type GroomingHistoryResponse struct {
	ID             uint            `json:"id"`
	UserID         uint            `json:"user_id"`
	AnalysisData   json.RawMessage `json:"analysis_data"`
	BeforeImageURL *string         `json:"before_image_url"`
	AfterImageURL  *string         `json:"after_image_url"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type GroomingHistoryListResponse struct {
	Items []GroomingHistoryResponse `json:"items"`
	Total int64                     `json:"total"`
	Skip  int                       `json:"skip"`
	Limit int                       `json:"limit"`
}

type HomeStatsResponse struct {
	SkinHealthScore    *float64   `json:"skin_health_score"`
	DailyStreak        int        `json:"daily_streak"`
	ProgressPercentage *float64   `json:"progress_percentage"`
	TotalAnalyses      int64      `json:"total_analyses"`
	LatestAnalysisDate *time.Time `json:"latest_analysis_date"`
}

type WeeklySummaryResponse struct {
	AnalysesCount         int       `json:"analyses_count"`
	AverageSkinHealth     *float64  `json:"average_skin_health"`
	ImprovementPercentage *float64  `json:"improvement_percentage"`
	WeekStartDate         time.Time `json:"week_start_date"`
	WeekEndDate           time.Time `json:"week_end_date"`
}

type AchievementResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
}

type AchievementsResponse struct {
	Badges        []AchievementResponse `json:"badges"`
	TotalUnlocked int                   `json:"total_unlocked"`
}
