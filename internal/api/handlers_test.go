package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/avana/avana/internal/config"
	"github.com/avana/avana/internal/extract"
)

func setupTestServer(mutate func(cfg *config.Config)) *Server {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(ServerOptions{Config: cfg, Logger: logger, Version: "test"})
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(nil)

	w := doRequest(server, "GET", "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
	if resp.Version != "test" {
		t.Errorf("Version = %q, want %q", resp.Version, "test")
	}
}

func TestExtractEndpoint(t *testing.T) {
	server := setupTestServer(nil)

	body := `{"text": "ceo@x.com bob@x.com alice@x.com", "max_per_domain": 1, "keywords": ["ceo"]}`
	w := doRequest(server, "POST", "/api/v1/extract", body, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp ExtractResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.RunID == "" {
		t.Error("RunID should not be empty")
	}

	wantSelected := []extract.Entry{{Domain: "x.com", Email: "ceo@x.com", Type: extract.TypePriority}}
	if !reflect.DeepEqual(resp.Selected, wantSelected) {
		t.Errorf("Selected = %v, want %v", resp.Selected, wantSelected)
	}
	if !reflect.DeepEqual(resp.Skipped, []string{"bob@x.com", "alice@x.com"}) {
		t.Errorf("Skipped = %v", resp.Skipped)
	}
	if resp.Summary.UniqueTotal != 3 || resp.Summary.SelectedCount != 1 || resp.Summary.SkippedCount != 2 {
		t.Errorf("Summary = %+v", resp.Summary)
	}
}

func TestExtractUsesConfiguredDefaults(t *testing.T) {
	server := setupTestServer(func(cfg *config.Config) {
		cfg.Extract.MaxPerDomain = 1
		cfg.Extract.Keywords = []string{"founder"}
	})

	w := doRequest(server, "POST", "/api/v1/extract", `{"text": "amy@x.com founder@x.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d. Body: %s", w.Code, w.Body.String())
	}

	var resp ExtractResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if len(resp.Selected) != 1 || resp.Selected[0].Email != "founder@x.com" {
		t.Errorf("Selected = %v, want founder@x.com", resp.Selected)
	}
}

func TestExtractKeywordOverrides(t *testing.T) {
	server := setupTestServer(nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty list disables defaults", `{"text": "ceo@x.com amy@x.com", "max_per_domain": 1, "keywords": []}`, "amy@x.com"},
		{"raw keywords", `{"text": "ceo@x.com amy@x.com zed@x.com", "max_per_domain": 1, "keywords_raw": " ZED , "}`, "zed@x.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(server, "POST", "/api/v1/extract", tc.body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d. Body: %s", w.Code, w.Body.String())
			}

			var resp ExtractResponse
			json.NewDecoder(w.Body).Decode(&resp)

			if len(resp.Selected) != 1 || resp.Selected[0].Email != tc.want {
				t.Errorf("Selected = %v, want %s", resp.Selected, tc.want)
			}
		})
	}
}

func TestExtractNoAddresses(t *testing.T) {
	server := setupTestServer(nil)

	w := doRequest(server, "POST", "/api/v1/extract", `{"text": "no addresses in here"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"selected":[]`) || !strings.Contains(body, `"skipped":[]`) {
		t.Errorf("empty result should have empty lists: %s", body)
	}
}

func TestExtractValidation(t *testing.T) {
	server := setupTestServer(func(cfg *config.Config) {
		cfg.Extract.MaxInputBytes = 256
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{bad`, http.StatusBadRequest},
		{"missing text", `{"max_per_domain": 3}`, http.StatusBadRequest},
		{"cap too small", `{"text": "a@x.com", "max_per_domain": 0}`, http.StatusBadRequest},
		{"cap too large", `{"text": "a@x.com", "max_per_domain": 201}`, http.StatusBadRequest},
		{"body too large", `{"text": "` + strings.Repeat("a", 512) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(server, "POST", "/api/v1/extract", tc.body, nil)
			if w.Code != tc.want {
				t.Errorf("Status = %d, want %d. Body: %s", w.Code, tc.want, w.Body.String())
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("expected JSON error body, got %v", err)
			}
		})
	}
}

func TestExtractCSVEndpoint(t *testing.T) {
	server := setupTestServer(nil)

	body := `{"text": "ceo@x.com bob@x.com, dev@y.org", "max_per_domain": 1, "keywords": ["ceo"]}`
	w := doRequest(server, "POST", "/api/v1/extract/csv", body, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d. Body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, csvFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Header().Get("X-Run-ID") == "" {
		t.Error("X-Run-ID header missing")
	}

	want := "Domain,Email,Type\nx.com,ceo@x.com,priority\ny.org,dev@y.org,general\n"
	if w.Body.String() != want {
		t.Errorf("Body = %q, want %q", w.Body.String(), want)
	}
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}

	plain := setupTestServer(func(cfg *config.Config) { cfg.API.APIKey = "test-api-key" })
	hashed := setupTestServer(func(cfg *config.Config) { cfg.API.APIKeyHash = string(hash) })

	body := `{"text": "a@x.com"}`

	tests := []struct {
		name    string
		server  *Server
		headers map[string]string
		want    int
	}{
		{"no key", plain, nil, http.StatusUnauthorized},
		{"wrong key", plain, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"bearer", plain, map[string]string{"Authorization": "Bearer test-api-key"}, http.StatusOK},
		{"x-api-key", plain, map[string]string{"X-API-Key": "test-api-key"}, http.StatusOK},
		{"hashed ok", hashed, map[string]string{"Authorization": "Bearer hashed-key"}, http.StatusOK},
		{"hashed wrong", hashed, map[string]string{"Authorization": "Bearer other"}, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(tc.server, "POST", "/api/v1/extract", body, tc.headers)
			if w.Code != tc.want {
				t.Errorf("Status = %d, want %d", w.Code, tc.want)
			}
		})
	}

	// Health stays open
	if w := doRequest(plain, "GET", "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestIPFilter(t *testing.T) {
	server := setupTestServer(func(cfg *config.Config) {
		cfg.API.AllowedIPs = []string{"10.0.0.1"}
		cfg.API.TrustedProxies = []string{"192.0.2.53"}
	})

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    int
	}{
		{"untrusted peer", "203.0.113.9:1234", nil, http.StatusForbidden},
		{"forged forwarded for", "203.0.113.9:1234", map[string]string{"X-Forwarded-For": "10.0.0.1"}, http.StatusForbidden},
		{"forged real ip", "203.0.113.9:1234", map[string]string{"X-Real-IP": "10.0.0.1"}, http.StatusForbidden},
		{"allowed peer", "10.0.0.1:1234", nil, http.StatusOK},
		{"trusted proxy forwards allowed client", "192.0.2.53:1234", map[string]string{"X-Forwarded-For": "10.0.0.1"}, http.StatusOK},
		{"trusted proxy forwards other client", "192.0.2.53:1234", map[string]string{"X-Forwarded-For": "203.0.113.9"}, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/extract", bytes.NewBufferString(`{"text": "a@x.com"}`))
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("Status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	server := setupTestServer(func(cfg *config.Config) {
		cfg.API.CORSOrigins = []string{"http://localhost:5173"}
	})

	req := httptest.NewRequest("OPTIONS", "/api/v1/extract", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
