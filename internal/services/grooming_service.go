package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/stats"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
)

const maxImageRefLength = 10000

type GroomingService struct {
	history *repository.GroomingHistoryRepository
	loc     *time.Location
	now     func() time.Time
}

func NewGroomingService(history *repository.GroomingHistoryRepository, loc *time.Location) *GroomingService {
	if loc == nil {
		loc = time.UTC
	}
	return &GroomingService{history: history, loc: loc, now: time.Now}
}

func (s *GroomingService) Create(ctx context.Context, userID uint, req *dto.CreateGroomingHistoryRequest) (*models.GroomingHistory, error) {
	doc := gjson.ParseBytes(req.AnalysisData)
	if len(req.AnalysisData) == 0 || !gjson.ValidBytes(req.AnalysisData) || !doc.IsObject() {
		return nil, invalid("analysis_data must be a JSON object")
	}
	if err := checkImageRefs(req.BeforeImageURL, req.AfterImageURL); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" || status == models.HistoryStatusPending {
		status = models.HistoryStatusPending
		if vs := doc.Get("status").String(); models.ValidHistoryStatus(vs) {
			status = vs
		}
	}
	if !models.ValidHistoryStatus(status) {
		return nil, invalid("status must be one of pending, success, partial_success, error")
	}

	record := models.GroomingHistory{
		UserID:         userID,
		AnalysisData:   datatypes.JSON(req.AnalysisData),
		BeforeImageURL: req.BeforeImageURL,
		AfterImageURL:  req.AfterImageURL,
		Status:         status,
	}
	if err := s.history.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to create grooming history: %w", err)
	}
	return &record, nil
}

// Get loads a record and then checks ownership so a foreign record is
// reported as forbidden rather than missing.
func (s *GroomingService) Get(ctx context.Context, userID, id uint) (*models.GroomingHistory, error) {
	record, err := s.history.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrForbidden
	}
	return record, nil
}

func (s *GroomingService) List(ctx context.Context, userID uint, page repository.Page) ([]models.GroomingHistory, int64, error) {
	return s.history.ListByUser(ctx, userID, page)
}

func (s *GroomingService) Update(ctx context.Context, userID, id uint, req *dto.UpdateGroomingHistoryRequest) (*models.GroomingHistory, error) {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if len(req.AnalysisData) > 0 && string(req.AnalysisData) != "null" {
		if !gjson.ValidBytes(req.AnalysisData) || !gjson.ParseBytes(req.AnalysisData).IsObject() {
			return nil, invalid("analysis_data must be a JSON object")
		}
		record.AnalysisData = datatypes.JSON(req.AnalysisData)
	}
	if err := checkImageRefs(req.BeforeImageURL, req.AfterImageURL); err != nil {
		return nil, err
	}
	if req.BeforeImageURL != nil {
		record.BeforeImageURL = req.BeforeImageURL
	}
	if req.AfterImageURL != nil {
		record.AfterImageURL = req.AfterImageURL
	}
	if req.Status != nil {
		if !models.ValidHistoryStatus(*req.Status) {
			return nil, invalid("status must be one of pending, success, partial_success, error")
		}
		record.Status = *req.Status
	}

	if err := s.history.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update grooming history: %w", err)
	}
	return record, nil
}

func (s *GroomingService) Delete(ctx context.Context, userID, id uint) error {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.history.Delete(ctx, record.ID)
}

// HomeStats builds the dashboard. Each figure falls back to its default on
// its own when loading or computing it fails.
func (s *GroomingService) HomeStats(ctx context.Context, userID uint) dto.HomeStatsResponse {
	var resp dto.HomeStatsResponse
	now := s.now()

	recent, err := s.history.Recent(ctx, userID, 2)
	if err != nil {
		slog.Error("failed to load recent history", "user_id", userID, "error", err)
	}

	if len(recent) > 0 {
		latest := recent[0]
		created := latest.CreatedAt
		resp.LatestAnalysisDate = &created
		resp.SkinHealthScore = stats.Safe("skin_health_score", (*float64)(nil), func() *float64 {
			return stats.SkinHealth(latest.AnalysisData)
		})
		if len(recent) > 1 {
			previous := recent[1]
			resp.ProgressPercentage = stats.Safe("progress_percentage", (*float64)(nil), func() *float64 {
				return stats.Progress(latest.AnalysisData, previous.AnalysisData)
			})
		}
	}

	resp.DailyStreak = s.streak(ctx, userID, now)

	total, err := s.history.CountByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to count history", "user_id", userID, "error", err)
	} else {
		resp.TotalAnalyses = total
	}
	return resp
}

func (s *GroomingService) streak(ctx context.Context, userID uint, now time.Time) int {
	times, err := s.history.CreatedTimes(ctx, userID)
	if err != nil {
		slog.Error("failed to load history dates", "user_id", userID, "error", err)
		return 0
	}
	return stats.Safe("daily_streak", 0, func() int {
		return stats.DailyStreak(times, now, s.loc)
	})
}

func (s *GroomingService) WeeklySummary(ctx context.Context, userID uint) dto.WeeklySummaryResponse {
	start, end := stats.Week(s.now(), s.loc)
	resp := dto.WeeklySummaryResponse{WeekStartDate: start, WeekEndDate: end}

	current, err := s.history.InRange(ctx, userID, start, end)
	if err != nil {
		slog.Error("failed to load weekly history", "user_id", userID, "error", err)
		return resp
	}
	prevStart, prevEnd := stats.PreviousWeek(start)
	previous, err := s.history.InRange(ctx, userID, prevStart, prevEnd)
	if err != nil {
		slog.Error("failed to load previous week history", "user_id", userID, "error", err)
		previous = nil
	}

	w := stats.Safe("weekly_summary", stats.Weekly{WeekStart: start, WeekEnd: end}, func() stats.Weekly {
		return stats.WeeklySummary(toStatRecords(current), toStatRecords(previous), start, end)
	})
	resp.AnalysesCount = w.AnalysesCount
	resp.AverageSkinHealth = w.AverageSkinHealth
	resp.ImprovementPercentage = w.ImprovementPercentage
	return resp
}

func (s *GroomingService) Achievements(ctx context.Context, userID uint) dto.AchievementsResponse {
	now := s.now()
	total, err := s.history.CountByUser(ctx, userID)
	if err != nil {
		slog.Error("failed to count history", "user_id", userID, "error", err)
		total = 0
	}
	var latest *time.Time
	if recent, err := s.history.Recent(ctx, userID, 1); err != nil {
		slog.Error("failed to load latest history", "user_id", userID, "error", err)
	} else if len(recent) > 0 {
		latest = &recent[0].CreatedAt
	}

	badges, unlocked := stats.Achievements(total, s.streak(ctx, userID, now), latest)
	resp := dto.AchievementsResponse{Badges: make([]dto.AchievementResponse, 0, len(badges)), TotalUnlocked: unlocked}
	for _, b := range badges {
		resp.Badges = append(resp.Badges, dto.AchievementResponse{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Icon:        b.Icon,
			Unlocked:    b.Unlocked,
			UnlockedAt:  b.UnlockedAt,
		})
	}
	return resp
}

func toStatRecords(records []models.GroomingHistory) []stats.Record {
	out := make([]stats.Record, len(records))
	for i, r := range records {
		out[i] = stats.Record{CreatedAt: r.CreatedAt, Data: r.AnalysisData}
	}
	return out
}

func checkImageRefs(refs ...*string) error {
	for _, r := range refs {
		if r != nil && len(*r) > maxImageRefLength {
			return invalid("image reference exceeds %d characters", maxImageRefLength)
		}
	}
	return nil
}
