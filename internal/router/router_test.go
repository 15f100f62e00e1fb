package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/melhorenem-api/internal/config"
	"github.com/noah-isme/melhorenem-api/internal/handler"
	"github.com/noah-isme/melhorenem-api/internal/middleware"
	"github.com/noah-isme/melhorenem-api/internal/models"
	"github.com/noah-isme/melhorenem-api/internal/repository"
	"github.com/noah-isme/melhorenem-api/internal/router"
	"github.com/noah-isme/melhorenem-api/internal/service"
	"github.com/noah-isme/melhorenem-api/pkg/ai"
)

type fixedScorer struct {
	calls int
}

func (s *fixedScorer) Score(context.Context, ai.ScoreInput) (ai.ScoreResult, error) {
	s.calls++
	return ai.ScoreResult{
		FinalScore: 600, C1: 120, C2: 120, C3: 120, C4: 120, C5: 120,
		Feedback: "ok", Provider: "fixed", Model: "fixed-1",
	}, nil
}

type testServer struct {
	app    *fiber.App
	scorer *fixedScorer
}

func newTestServer(t *testing.T, cfg config.Config, limit int) testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Essay{}))

	logger := zerolog.Nop()
	scorer := &fixedScorer{}
	repo := repository.NewEssayRepository(db)
	essays := service.NewEssayService(repo, scorer, nil, nil, nil, logger, service.EssayServiceConfig{})
	dashboard := service.NewDashboardService(repo, nil, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EssayHandler:     handler.NewEssayHandler(essays, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboard, logger),
		DB:               db,
		GradeLimiter:     middleware.RateLimit("grade", limit, time.Minute),
	})
	return testServer{app: app, scorer: scorer}
}

func (s testServer) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestEssayLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, config.Config{AppName: "MelhorENEM API", AppEnv: "test"}, 10)
	essay := strings.Repeat("a", 120)

	status, graded := srv.do(t, http.MethodPost, "/api/corrigir-redacao",
		fmt.Sprintf(`{"redacao":%q,"tema":"Educação","userId":"U1"}`, essay))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, float64(600), graded["nota_final"])

	status, draft := srv.do(t, http.MethodPost, "/api/salvar-rascunho", `{"redacao":"rascunho","userId":"U1"}`)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "Rascunho salvo.", draft["message"])

	status, dashboard := srv.do(t, http.MethodGet, "/api/dashboard-data/U1", "")
	require.Equal(t, fiber.StatusOK, status)
	summary := dashboard["sumario"].(map[string]interface{})
	require.Equal(t, float64(1), summary["total"])
	require.Equal(t, float64(600), summary["nota_media"])
	require.Len(t, dashboard["historico"], 1)
	drafts := dashboard["rascunhos"].([]interface{})
	require.Len(t, drafts, 1)
	require.Equal(t, "rascunho", drafts[0].(map[string]interface{})["texto"])

	status, detail := srv.do(t, http.MethodGet, fmt.Sprintf("/api/redacao/%d?userId=U1", int(graded["id"].(float64))), "")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, essay, detail["texto_original"])
	require.Equal(t, "Educação", detail["tema"])

	status, _ = srv.do(t, http.MethodGet, fmt.Sprintf("/api/redacao/%d?userId=U2", int(graded["id"].(float64))), "")
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = srv.do(t, http.MethodPost, "/api/corrigir-redacao", `{"redacao":"curta","userId":"U1"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, 1, srv.scorer.calls)

	status, health := srv.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, health["success"])
}

func TestGradingRouteIsRateLimitedPerOwner(t *testing.T) {
	srv := newTestServer(t, config.Config{}, 1)
	body := fmt.Sprintf(`{"redacao":%q,"userId":"U1"}`, strings.Repeat("b", 80))

	status, _ := srv.do(t, http.MethodPost, "/api/corrigir-redacao", body)
	require.Equal(t, fiber.StatusOK, status)

	status, payload := srv.do(t, http.MethodPost, "/api/corrigir-redacao", body)
	require.Equal(t, fiber.StatusTooManyRequests, status)
	require.Contains(t, payload, "error")
	require.Equal(t, 1, srv.scorer.calls)

	status, _ = srv.do(t, http.MethodPost, "/api/salvar-rascunho", `{"redacao":"ainda posso salvar","userId":"U1"}`)
	require.Equal(t, fiber.StatusCreated, status)
}

func TestMetricsAndStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>MelhorENEM</h1>"), 0o600))

	srv := newTestServer(t, config.Config{StaticDir: dir}, 10)
	srv.do(t, http.MethodGet, "/api/dashboard-data/U1", "")

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "api_requests_total")

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "MelhorENEM")
}
