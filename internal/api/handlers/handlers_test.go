package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phamiq/ai-gateway/internal/api"
	"github.com/phamiq/ai-gateway/internal/api/handlers"
	"github.com/phamiq/ai-gateway/internal/chat"
	"github.com/phamiq/ai-gateway/internal/config"
	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/internal/provider"
	"github.com/phamiq/ai-gateway/internal/recommend"
	"github.com/phamiq/ai-gateway/pkg/models"
)

type stubBackend struct {
	available bool
	response  string
}

func (s *stubBackend) Complete(ctx context.Context, system string, history []models.Message, userText string, opts provider.Options) (string, error) {
	return s.response, nil
}

func (s *stubBackend) Available() bool                         { return s.available }
func (s *stubBackend) Models() []string                        { return config.DefaultModels }
func (s *stubBackend) TestConnection(ctx context.Context) bool { return s.available }

func newTestServer(t *testing.T, backend provider.Backend) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Version:        "test",
		AllowedOrigins: []string{"*"},
	}
	fb := fallback.New()
	h := handlers.New(cfg,
		chat.NewService(backend, fb),
		recommend.NewEngine(backend, recommend.NewCache(), fb),
	)
	srv := httptest.NewServer(api.NewRouter(cfg, h))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestPostChat(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true, response: "Mulch retains soil moisture."})

	resp := postJSON(t, srv.URL+"/api/v1/chat", `{"message": "Why mulch?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body models.ChatResponse
	decodeBody(t, resp, &body)
	if !body.Success {
		t.Error("Success = false")
	}
	if body.Message != "Mulch retains soil moisture." {
		t.Errorf("Message = %q", body.Message)
	}
	if body.ChatID == "" {
		t.Error("ChatID empty")
	}
}

func TestPostChat_EmptyMessage(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true})

	for _, body := range []string{`{"message": "  "}`, `{}`, `not json`} {
		resp := postJSON(t, srv.URL+"/api/v1/chat", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPostChat_FallbackStillSucceeds(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: false})

	resp := postJSON(t, srv.URL+"/api/v1/chat", `{"message": "I have a pest problem"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with fallback content", resp.StatusCode)
	}

	var body models.ChatResponse
	decodeBody(t, resp, &body)
	if body.Message == "" {
		t.Error("fallback message empty")
	}
}

func TestChatStatus(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		srv := newTestServer(t, &stubBackend{available: true})
		resp, err := http.Get(srv.URL + "/api/v1/chat/status")
		if err != nil {
			t.Fatal(err)
		}
		var body models.ChatStatus
		decodeBody(t, resp, &body)
		if !body.Available || body.ConnectionStatus != "connected" {
			t.Errorf("status = %+v", body)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		srv := newTestServer(t, &stubBackend{available: false})
		resp, err := http.Get(srv.URL + "/api/v1/chat/status")
		if err != nil {
			t.Fatal(err)
		}
		var body models.ChatStatus
		decodeBody(t, resp, &body)
		if body.Available || body.ConnectionStatus != "not_configured" {
			t.Errorf("status = %+v", body)
		}
	})
}

func TestListModels(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true})

	resp, err := http.Get(srv.URL + "/api/v1/chat/models")
	if err != nil {
		t.Fatal(err)
	}
	var body models.ModelsResponse
	decodeBody(t, resp, &body)
	if len(body.Models) == 0 || len(body.DefaultModels) == 0 {
		t.Errorf("models response = %+v", body)
	}
}

func TestTestChat_Unavailable(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: false})

	resp, err := http.Get(srv.URL + "/api/v1/chat/test")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestPostRecommendations(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: false})

	resp := postJSON(t, srv.URL+"/api/v1/recommendations",
		`{"disease": "cashew_leafminer", "confidence": 0.92, "crop": "cashew"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rec models.Recommendation
	decodeBody(t, resp, &rec)
	if !rec.Complete() {
		t.Errorf("incomplete recommendation: %+v", rec)
	}
}

func TestPostRecommendations_InvalidInput(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true})

	resp := postJSON(t, srv.URL+"/api/v1/recommendations",
		`{"disease": "", "confidence": 0.5, "crop": "maize"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCacheEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: false})

	// Populate the cache with one fallback recommendation.
	postJSON(t, srv.URL+"/api/v1/recommendations",
		`{"disease": "tomato_blight", "confidence": 0.8, "crop": "tomato"}`).Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/cache")
	if err != nil {
		t.Fatal(err)
	}
	var stats models.CacheStats
	decodeBody(t, resp, &stats)
	if stats.Size != 1 {
		t.Errorf("cache size = %d, want 1", stats.Size)
	}

	delReq, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/cache", nil)
	delResp, err := http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d", delResp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/cache")
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, resp, &stats)
	if stats.Size != 0 {
		t.Errorf("cache size after clear = %d, want 0", stats.Size)
	}
}

func TestListDiseases(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true})

	resp, err := http.Get(srv.URL + "/api/v1/diseases")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Status  string            `json:"status"`
		Classes map[string]string `json:"classes"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "success" || len(body.Classes) == 0 {
		t.Errorf("diseases response = %+v", body)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, &stubBackend{available: true})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]string
	decodeBody(t, resp, &health)
	if health["status"] != "healthy" {
		t.Errorf("health = %v", health)
	}

	resp, err = http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	var version map[string]string
	decodeBody(t, resp, &version)
	if version["version"] != "test" {
		t.Errorf("version = %v", version)
	}
}
