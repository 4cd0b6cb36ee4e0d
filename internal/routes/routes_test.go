package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mlSuccessBody = `{"status":"success","face_shape":"Oval","skin":{"tone":"Warm","ita_score":20},
"recommendations":{"hairstyle_recommendations":["Crew Cut","Quiff"],"best_styles":["Fade"],"avoid_styles":[],"notes":["Moisturize"]}}`

type testServer struct {
	app     *fiber.App
	mlCalls *atomic.Int32
	// mlStatus is the HTTP status the fake ML service answers with.
	mlStatus *atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{mlCalls: &atomic.Int32{}, mlStatus: &atomic.Int32{}}
	ts.mlStatus.Store(http.StatusOK)

	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		ts.mlCalls.Add(1)
		status := int(ts.mlStatus.Load())
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, mlSuccessBody)
		}
	}))
	t.Cleanup(ml.Close)

	db, err := database.Open(&config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{UploadsDir: t.TempDir(), UploadsURLPrefix: "/api/v1/uploads"}
	store := storage.NewFileStore(cfg.UploadsDir, cfg.UploadsURLPrefix)
	client := mlclient.New(mlclient.Options{BaseURL: ml.URL, Timeout: 2 * time.Second, MaxAttempts: 2})

	users := repository.NewUserRepository(db)
	history := repository.NewGroomingHistoryRepository(db)
	issuer := security.NewTokenIssuer("route-secret", time.Minute)

	authService := services.NewAuthService(users, repository.NewRefreshTokenRepository(db),
		security.NewPasswordHasher(4), issuer, time.Hour)
	userService := services.NewUserService(users, store, services.NewAdminPolicy("boss@example.com"))

	app := fiber.New()
	app.Use(middleware.Metrics())
	Setup(app, cfg, Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		User:     handlers.NewUserHandler(userService),
		Analysis: handlers.NewAnalysisHandler(services.NewAnalysisService(repository.NewAnalysisRepository(db), history, client, store, nil)),
		Grooming: handlers.NewGroomingHandler(services.NewGroomingService(history, time.UTC)),
		Features: handlers.NewFeaturesHandler(services.NewFeaturesService(repository.NewFeaturesRepository(db))),
		Health:   handlers.NewHealthHandler(db, client),
	}, issuer.Secret(), userService, nil)

	ts.app = app
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (*http.Response, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (ts *testServer) signup(t *testing.T, email string) (string, uint) {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "Tester", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := body["user"].(map[string]any)
	return body["access_token"].(string), uint(user["id"].(float64))
}

func analysisRequest(t *testing.T, gender string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "face.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, w.WriteField("gender", gender))
	require.NoError(t, w.WriteField("answers", `{"dailyRoutine":"Office"}`))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/complete-analysis", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAuthRoutes(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.signup(t, "a@example.com")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "Again", "email": "A@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, true, body["error"])

	resp, body = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", body["token_type"])
	refresh := body["refresh_token"].(string)

	resp, body = ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@example.com", body["email"])

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := body["refresh_token"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "rotated token cannot be reused")

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/auth/logout", token, map[string]string{"refresh_token": rotated})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t)
	userToken, userID := ts.signup(t, "a@example.com")
	_, otherID := ts.signup(t, "b@example.com")
	adminToken, _ := ts.signup(t, "boss@example.com")

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/users?limit=500", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 100, body["limit"])

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", otherID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/users/9999", userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/users/abc", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", userID), userToken, map[string]string{"gender": " Male "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "male", body["gender"])

	resp, _ = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", userID), userToken, map[string]string{"email": "b@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", userID), userToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", otherID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", otherID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", otherID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAvatarUploadServedStatically(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "a@example.com")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, body := ts.send(t, req, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	url := body["avatar_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/api/v1/uploads/avatars/"))

	resp, _ = ts.send(t, httptest.NewRequest(http.MethodGet, url, nil), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCompleteAnalysisRoutes(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.signup(t, "a@example.com")
	otherToken, _ := ts.signup(t, "b@example.com")

	resp, _ := ts.send(t, analysisRequest(t, "robot"), token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, ts.mlCalls.Load(), "invalid gender never reaches the ML service")

	resp, body := ts.send(t, analysisRequest(t, "Female"), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, userID, body["user_id"])
	assert.True(t, strings.HasPrefix(body["image_url"].(string), "/api/v1/uploads/analyses/"))
	face := body["face_analysis"].(map[string]any)
	assert.Equal(t, "completed", face["status"])
	assert.Equal(t, "Oval", face["face_shape"])
	style := body["style_recommendations"].(map[string]any)
	assert.Len(t, style["best_hairstyles"], 2)
	id := uint(body["id"].(float64))

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/analysis/%d", id), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/analysis/%d", id+100), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/v1/grooming", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "success", item["status"])
}

func TestCompleteAnalysisUpstreamFailures(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "a@example.com")

	ts.mlStatus.Store(http.StatusInternalServerError)
	resp, body := ts.send(t, analysisRequest(t, "male"), token)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.EqualValues(t, 2, ts.mlCalls.Load(), "server errors are retried up to the attempt limit")
	assert.Equal(t, true, body["error"])
	analysis := body["analysis"].(map[string]any)
	for _, key := range []string{"face_analysis", "style_recommendations", "personalized_insights"} {
		assert.Equal(t, "failed", analysis[key].(map[string]any)["status"], key)
	}

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/analysis/%d", uint(analysis["id"].(float64))), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "failed submission stays retrievable")

	ts.mlCalls.Store(0)
	ts.mlStatus.Store(http.StatusUnprocessableEntity)
	resp, _ = ts.send(t, analysisRequest(t, "male"), token)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.EqualValues(t, 1, ts.mlCalls.Load(), "client errors are not retried")

	resp, body = ts.do(t, http.MethodGet, "/api/v1/analysis", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total"])
}

func TestGroomingRoutes(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "a@example.com")
	otherToken, _ := ts.signup(t, "b@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/grooming", token, map[string]any{
		"analysis_data": map[string]any{"status": "partial_success", "skin": map[string]any{"ita_score": 5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "partial_success", body["status"])
	id := uint(body["id"].(float64))

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/grooming", token, map[string]any{
		"analysis_data": map[string]any{}, "status": "done",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/grooming/%d", id), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/grooming/%d", id), otherToken, map[string]string{"status": "error"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/grooming/424242", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/v1/grooming?skip=-4&limit=0&order_by=password&order=sideways", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["skip"])
	assert.EqualValues(t, 1, body["limit"])

	resp, body = ts.do(t, http.MethodGet, "/api/v1/grooming/stats/home", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total_analyses"])
	assert.EqualValues(t, 1, body["daily_streak"])
	assert.InDelta(t, 50.0, body["skin_health_score"], 1e-9)
	assert.Nil(t, body["progress_percentage"])

	resp, body = ts.do(t, http.MethodGet, "/api/v1/grooming/stats/weekly", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["analyses_count"])

	resp, body = ts.do(t, http.MethodGet, "/api/v1/grooming/achievements", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["badges"], 3)
	assert.EqualValues(t, 1, body["total_unlocked"])

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/grooming/%d", id), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/grooming/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOrderByFallsBackPerResource(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "a@example.com")
	adminToken, _ := ts.signup(t, "boss@example.com")

	for _, tc := range []struct {
		path  string
		token string
	}{
		{"/api/v1/analysis?order_by=status&order=asc", token},
		{"/api/v1/users?order_by=status", adminToken},
		{"/api/v1/users?order_by=email&order=asc", adminToken},
		{"/api/v1/grooming?order_by=status", token},
		{"/api/v1/grooming?order_by=email", token},
	} {
		resp, body := ts.do(t, http.MethodGet, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tc.path)
		assert.Contains(t, body, "total", tc.path)
	}
}

func TestFeaturesRoutes(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "a@example.com")

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/features", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/features/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["ml_service"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "groomify_http_requests_total")
}
