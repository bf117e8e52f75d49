package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stockwise/stockwise/internal/config"
	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/server"
)

// productLookupModel asks for get_product_details once and then answers with the tool output.
type productLookupModel struct {
	mu    sync.Mutex
	calls int
}

func (m *productLookupModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if n == 1 {
		return &llm.Response{Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{
				ID: "call_1", Name: "get_product_details", Arguments: `{"product_name":"Test Widget"}`,
			}},
		}}, nil
	}
	last := req.Messages[len(req.Messages)-1]
	return &llm.Response{Message: llm.Message{Role: llm.RoleAssistant, Content: "Found: " + last.Content}}, nil
}

func (m *productLookupModel) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testConfig(auth bool) *config.Config {
	return &config.Config{
		Host:                   "127.0.0.1",
		Port:                   0,
		Environment:            "test",
		APIPrefix:              "/api/v1",
		EnableAuth:             auth,
		APIKeyHeader:           "X-API-Key",
		DevUserEmail:           "dev@example.com",
		DevUserAPIKey:          "dev-key",
		RateLimitPerMinute:     100,
		StoreDriver:            "memory",
		LLMProvider:            "openai",
		LLMAPIKey:              "test",
		AgentTimeout:           5,
		AgentMaxParallelTools:  2,
		EnablePromptValidation: true,
		EnablePIIDetection:     true,
		PIIKeywords:            config.DefaultPIIKeywords,
		MaxPromptLength:        config.DefaultMaxPromptLength,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *productLookupModel) {
	t.Helper()
	st, err := server.OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	model := &productLookupModel{}
	h, err := server.NewRouter(cfg, st, model)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		ts.Close()
		st.Close()
	})
	return ts, model
}

func get(t *testing.T, url, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPublicRoutes(t *testing.T) {
	ts, _ := newTestServer(t, testConfig(true))

	for _, path := range []string{"/", "/health"} {
		resp := get(t, ts.URL+path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: code = %d, want 200", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", path)
		}
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}
}

func TestPrivateRoutesRequireKey(t *testing.T) {
	ts, _ := newTestServer(t, testConfig(true))

	if resp := get(t, ts.URL+"/api/v1/products", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key: code = %d, want 401", resp.StatusCode)
	}
	if resp := get(t, ts.URL+"/api/v1/products", "nope"); resp.StatusCode != http.StatusForbidden {
		t.Errorf("bad key: code = %d, want 403", resp.StatusCode)
	}
	resp := get(t, ts.URL+"/api/v1/products", "dev-key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dev key: code = %d, want 200", resp.StatusCode)
	}
	var products []models.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 3 {
		t.Errorf("seeded products = %d, want 3", len(products))
	}
	if resp.Header.Get("X-RateLimit-Limit") != "100" {
		t.Errorf("rate limit header = %q", resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestDashboardRoutes(t *testing.T) {
	ts, _ := newTestServer(t, testConfig(false))

	for _, path := range []string{"/kpis", "/low-stock-alerts", "/priority-tasks"} {
		if resp := get(t, ts.URL+"/api/v1/dashboard"+path, ""); resp.StatusCode != http.StatusOK {
			t.Errorf("%s: code = %d, want 200", path, resp.StatusCode)
		}
	}

	var kpis models.DashboardKPIs
	resp := get(t, ts.URL+"/api/v1/dashboard/kpis", "")
	if err := json.NewDecoder(resp.Body).Decode(&kpis); err != nil {
		t.Fatal(err)
	}
	// Steel Bracket is below and Copy Paper is at its reorder point
	if kpis.LowStockItems != 2 {
		t.Errorf("low stock items = %d, want 2", kpis.LowStockItems)
	}
}

func TestChatbotEndToEnd(t *testing.T) {
	ts, model := newTestServer(t, testConfig(false))

	body := `{"content":"How much is the Test Widget?","history":[]}`
	resp, err := http.Post(ts.URL+"/api/v1/chatbot", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("code = %d, want 200", resp.StatusCode)
	}

	var got models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.Response, `"sku":"WID-001"`) {
		t.Errorf("reply should carry the tool output, got %q", got.Response)
	}
	if len(got.History) != 2 || got.History[0].Role != "user" || got.History[1].Role != "assistant" {
		t.Errorf("history = %+v", got.History)
	}
	if n := model.count(); n != 2 {
		t.Errorf("model calls = %d, want 2", n)
	}
}
