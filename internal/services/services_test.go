package services

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	store     *storage.FileStore
	users     *repository.UserRepository
	history   *repository.GroomingHistoryRepository
	analyses  *repository.AnalysisRepository
	auth      *AuthService
	userSvc   *UserService
	grooming  *GroomingService
	features  *FeaturesService
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(&config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:        db,
		store:     storage.NewFileStore(t.TempDir(), "/api/v1/uploads"),
		users:     repository.NewUserRepository(db),
		history:   repository.NewGroomingHistoryRepository(db),
		analyses:  repository.NewAnalysisRepository(db),
		publisher: &recordingPublisher{},
	}
	env.auth = NewAuthService(env.users, repository.NewRefreshTokenRepository(db),
		security.NewPasswordHasher(4), security.NewTokenIssuer("test-secret", time.Minute), time.Hour)
	env.userSvc = NewUserService(env.users, env.store, NewAdminPolicy("boss@example.com"))
	env.grooming = NewGroomingService(env.history, time.UTC)
	env.features = NewFeaturesService(repository.NewFeaturesRepository(db))
	return env
}

func (e *testEnv) analysisService(ml Analyzer) *AnalysisService {
	return NewAnalysisService(e.analyses, e.history, ml, e.store, e.publisher)
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test", Password: "x", Role: models.RoleClient}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) fileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(e.store.Root(), dir))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	gender   string
	payload  string
	result   *mlclient.Result
	err      error
	canceled bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image io.ReadSeeker, filename, contentType, gender string) (*mlclient.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gender = gender
	b, _ := io.ReadAll(image)
	f.payload = string(b)
	f.canceled = ctx.Err() != nil
	return f.result, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AnalysisCompletedEvent
}

func (p *recordingPublisher) PublishAnalysisCompleted(_ context.Context, e events.AnalysisCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func createHistory(t *testing.T, env *testEnv, userID uint, data string, created time.Time) *models.GroomingHistory {
	t.Helper()
	r := &models.GroomingHistory{UserID: userID, AnalysisData: []byte(data), Status: models.HistoryStatusSuccess, CreatedAt: created}
	require.NoError(t, env.history.Create(context.Background(), r))
	return r
}

func strPtr(s string) *string { return &s }

func signup(t *testing.T, env *testEnv, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := env.auth.Signup(context.Background(), &dto.SignupRequest{Name: "Tester", Email: email, Password: "secret1"})
	require.NoError(t, err)
	return resp
}

