package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/storage"
	"github.com/getsentry/sentry-go"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
)

const publishTimeout = 5 * time.Second

// Analyzer is the ML capability the submission flow depends on.
type Analyzer interface {
	Analyze(ctx context.Context, image io.ReadSeeker, filename, contentType, gender string) (*mlclient.Result, error)
}

type AnalysisService struct {
	analyses  *repository.AnalysisRepository
	history   *repository.GroomingHistoryRepository
	ml        Analyzer
	store     *storage.FileStore
	publisher events.Publisher
}

func NewAnalysisService(
	analyses *repository.AnalysisRepository,
	history *repository.GroomingHistoryRepository,
	ml Analyzer,
	store *storage.FileStore,
	publisher events.Publisher,
) *AnalysisService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AnalysisService{analyses: analyses, history: history, ml: ml, store: store, publisher: publisher}
}

type SubmitInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Image       []byte
	Gender      string
	Answers     string
	Metadata    string
}

// Submit runs one complete analysis. The record is persisted before the ML
// call and updated exactly once afterwards. When the ML call fails the
// returned analysis is non-nil, its sub-results are failed and the error
// carries the upstream kind.
func (s *AnalysisService) Submit(ctx context.Context, in SubmitInput) (*models.UserAnalysis, error) {
	gender, err := mlclient.NormalizeGender(in.Gender)
	if err != nil {
		return nil, invalid("invalid gender %q, must be male or female", in.Gender)
	}
	if !isJSONObject([]byte(in.Answers)) {
		return nil, invalid("answers must be a JSON object")
	}
	if in.Metadata != "" && !isJSONObject([]byte(in.Metadata)) {
		return nil, invalid("metadata must be a JSON object")
	}
	ext, err := storage.ImageExt(in.Filename)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	if len(in.Image) == 0 {
		return nil, invalid("image is empty")
	}

	// The submission is durable from here on; a client disconnect must not
	// abort the ML call or the writes around it.
	work := context.WithoutCancel(ctx)

	rel := storage.AnalysisImageName(in.UserID, ext)
	if err := s.store.SaveBytes(rel, in.Image); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	face, style, insights := mlclient.Pending()
	analysis := models.UserAnalysis{
		UserID:               in.UserID,
		ImagePath:            rel,
		ChatAnswers:          datatypes.JSON(in.Answers),
		FaceAnalysis:         mustJSON(face),
		StyleRecommendations: mustJSON(style),
		PersonalizedInsights: mustJSON(insights),
	}
	if err := s.analyses.Create(work, &analysis); err != nil {
		_ = s.store.Remove(rel)
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}
	slog.Info("analysis created", "analysis_id", analysis.ID, "user_id", in.UserID, "metadata", in.Metadata)

	beforeURL := s.store.URL(rel)

	result, mlErr := s.ml.Analyze(work, bytes.NewReader(in.Image), in.Filename, in.ContentType, gender)
	if mlErr != nil {
		return s.fail(work, &analysis, beforeURL, mlErr)
	}
	return s.complete(work, &analysis, beforeURL, result)
}

func (s *AnalysisService) complete(ctx context.Context, analysis *models.UserAnalysis, beforeURL string, result *mlclient.Result) (*models.UserAnalysis, error) {
	var afterURL *string
	if result.AfterImage != nil {
		rel := storage.AfterImageName(result.AfterImage.Ext)
		if err := s.store.SaveBytes(rel, result.AfterImage.Data); err != nil {
			slog.Error("failed to save after image", "analysis_id", analysis.ID, "error", err)
		} else {
			u := s.store.URL(rel)
			afterURL = &u
		}
	}

	analysis.FaceAnalysis = mustJSON(result.FaceAnalysis)
	analysis.StyleRecommendations = mustJSON(result.StyleRecommendations)
	analysis.PersonalizedInsights = mustJSON(result.PersonalizedInsights)
	if err := s.analyses.SaveResults(ctx, analysis); err != nil {
		slog.Error("failed to save analysis results", "analysis_id", analysis.ID, "user_id", analysis.UserID, "error", err)
		s.markFailed(ctx, analysis, "failed to store analysis results")
		return nil, fmt.Errorf("failed to save analysis results: %w", err)
	}

	status := models.HistoryStatusError
	switch result.VendorStatus {
	case models.HistoryStatusSuccess, models.HistoryStatusPartialSuccess, models.HistoryStatusError:
		status = result.VendorStatus
	}
	record := models.GroomingHistory{
		UserID:         analysis.UserID,
		AnalysisData:   datatypes.JSON(stripInlineImage(result.Raw, afterURL)),
		BeforeImageURL: &beforeURL,
		AfterImageURL:  afterURL,
		Status:         status,
	}
	if err := s.history.Create(ctx, &record); err != nil {
		slog.Error("failed to record grooming history", "analysis_id", analysis.ID, "error", err)
	}

	state := result.FaceAnalysis.Status
	metrics.RecordAnalysis(state)
	s.publish(ctx, analysis, record.ID, state, status)
	return analysis, nil
}

// markFailed moves a record out of pending after its results could not be
// stored. It only logs when that write fails too.
func (s *AnalysisService) markFailed(ctx context.Context, analysis *models.UserAnalysis, reason string) {
	face, style, insights := mlclient.Failed(reason)
	analysis.FaceAnalysis = mustJSON(face)
	analysis.StyleRecommendations = mustJSON(style)
	analysis.PersonalizedInsights = mustJSON(insights)
	if err := s.analyses.SaveResults(ctx, analysis); err != nil {
		slog.Error("analysis left pending", "analysis_id", analysis.ID, "error", err)
		return
	}
	metrics.RecordAnalysis(mlclient.StatusFailed)
}

func (s *AnalysisService) fail(ctx context.Context, analysis *models.UserAnalysis, beforeURL string, mlErr error) (*models.UserAnalysis, error) {
	sentry.CaptureException(mlErr)
	slog.Error("ml analysis failed", "analysis_id", analysis.ID, "user_id", analysis.UserID, "error", mlErr)

	reason := "analysis service unavailable"
	if errors.Is(mlErr, mlclient.ErrUpstreamRejected) {
		reason = "analysis service rejected the image"
	}
	face, style, insights := mlclient.Failed(reason)
	analysis.FaceAnalysis = mustJSON(face)
	analysis.StyleRecommendations = mustJSON(style)
	analysis.PersonalizedInsights = mustJSON(insights)
	if err := s.analyses.SaveResults(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to save failed analysis: %w", err)
	}

	record := models.GroomingHistory{
		UserID:         analysis.UserID,
		AnalysisData:   mustJSON(map[string]string{"status": models.HistoryStatusError, "error": reason}),
		BeforeImageURL: &beforeURL,
		Status:         models.HistoryStatusError,
	}
	if err := s.history.Create(ctx, &record); err != nil {
		slog.Error("failed to record grooming history", "analysis_id", analysis.ID, "error", err)
	}

	metrics.RecordAnalysis(mlclient.StatusFailed)
	s.publish(ctx, analysis, record.ID, mlclient.StatusFailed, models.HistoryStatusError)
	return analysis, mlErr
}

func (s *AnalysisService) publish(ctx context.Context, analysis *models.UserAnalysis, historyID uint, state, status string) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := s.publisher.PublishAnalysisCompleted(ctx, events.AnalysisCompletedEvent{
		AnalysisID: analysis.ID,
		HistoryID:  historyID,
		UserID:     analysis.UserID,
		State:      state,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to publish analysis event", "analysis_id", analysis.ID, "error", err)
	}
}

func (s *AnalysisService) Get(ctx context.Context, userID, id uint) (*models.UserAnalysis, error) {
	analysis, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if analysis.UserID != userID {
		return nil, ErrForbidden
	}
	return analysis, nil
}

func (s *AnalysisService) List(ctx context.Context, userID uint, page repository.Page) ([]models.UserAnalysis, int64, error) {
	return s.analyses.ListByUser(ctx, userID, page)
}

func (s *AnalysisService) ImageURL(rel string) string {
	return s.store.URL(rel)
}

// stripInlineImage swaps a base64 after_image_url for the stored file URL so
// history rows do not carry the encoded image.
func stripInlineImage(raw []byte, afterURL *string) []byte {
	if !gjson.GetBytes(raw, "after_image_url").Exists() {
		return raw
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	if afterURL != nil {
		doc["after_image_url"] = *afterURL
	} else {
		delete(doc, "after_image_url")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}

func isJSONObject(b []byte) bool {
	return gjson.ValidBytes(b) && gjson.ParseBytes(b).IsObject()
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return datatypes.JSON(b)
}
