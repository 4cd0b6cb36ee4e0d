package dto

import (
	"encoding/json"
	"time"
)

type AnalysisResponse struct {
	ID                   uint            `json:"id"`
	UserID               uint            `json:"user_id"`
	ImagePath            string          `json:"image_path"`
	ImageURL             string          `json:"image_url"`
	ChatAnswers          json.RawMessage `json:"chat_answers"`
	FaceAnalysis         json.RawMessage `json:"face_analysis"`
	StyleRecommendations json.RawMessage `json:"style_recommendations"`
	PersonalizedInsights json.RawMessage `json:"personalized_insights"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type AnalysisListResponse struct {
	Items []AnalysisResponse `json:"items"`
	Total int64              `json:"total"`
	Skip  int                `json:"skip"`
	Limit int                `json:"limit"`
}

// AnalysisFailedResponse is returned when the ML step failed but the
// submission was still persisted.
type AnalysisFailedResponse struct {
	Error    bool             `json:"error"`
	Message  string           `json:"message"`
	Analysis AnalysisResponse `json:"analysis"`
}
