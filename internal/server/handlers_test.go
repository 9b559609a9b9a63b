package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tarunagarwal/turbott/internal/config"
	"github.com/tarunagarwal/turbott/internal/engine"
	"github.com/tarunagarwal/turbott/internal/ingest"
	"github.com/tarunagarwal/turbott/internal/keyword"
	"github.com/tarunagarwal/turbott/internal/provider"
	"github.com/tarunagarwal/turbott/internal/session"
	"github.com/tarunagarwal/turbott/internal/vectorstore"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *provider.MockGenerator) {
	t.Helper()
	dir := t.TempDir()

	embedder := provider.NewMockEmbedder(16)
	store, err := vectorstore.Open(filepath.Join(dir, "index"), embedder)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	kwIdx, err := keyword.Open(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kwIdx.Close() })

	ingestor, err := ingest.NewIngestor(200, 40, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	gen := &provider.MockGenerator{Response: "mock answer"}
	eng := engine.New(store, gen, 3)
	sess := session.New(ingestor, store, eng, session.WithKeywordIndex(kwIdx))

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0}
	return NewServer(sess, kwIdx, cfg, zap.NewNop()), gen
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleAddTextAndAsk(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/documents", map[string]string{
		"text": "The reactor core temperature must stay below 600 degrees. Coolant flow is monitored hourly.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add text status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/ask", map[string]string{
		"question": "What is the maximum reactor temperature?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body %s", rec.Code, rec.Body)
	}
	var turn turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &turn); err != nil {
		t.Fatal(err)
	}
	if turn.Answer != "mock answer" {
		t.Errorf("answer = %q", turn.Answer)
	}
	if len(turn.Sources) == 0 {
		t.Error("expected sources in response")
	}
}

func TestHandleAsk_beforeIngestConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/v1/ask", map[string]string{
		"question": "anything",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleAsk_missingQuestion(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/v1/ask", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleIngest_missingPath(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty path status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/ingest", map[string]string{
		"path": filepath.Join(t.TempDir(), "no-such-file.txt"),
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestHandleIngest_file(t *testing.T) {
	srv, _ := newTestServer(t)
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("Plain text document for ingestion."), 0600); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/v1/ingest", map[string]string{"path": path})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["chunks"] < 1 {
		t.Errorf("chunks = %d", resp["chunks"])
	}
}

func TestHandleHistoryAndClear(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	doJSON(t, h, http.MethodPost, "/api/v1/documents", map[string]string{
		"text": "Go is a statically typed compiled language.",
	})
	doJSON(t, h, http.MethodPost, "/api/v1/ask", map[string]string{"question": "What is Go?"})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var hist struct {
		Turns []turnResponse `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(hist.Turns))
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/history", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Turns) != 0 {
		t.Errorf("turns after clear = %d", len(hist.Turns))
	}
}

func TestHandleExport(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	doJSON(t, h, http.MethodPost, "/api/v1/documents", map[string]string{
		"text": "Exportable knowledge lives here.",
	})
	doJSON(t, h, http.MethodPost, "/api/v1/ask", map[string]string{"question": "What lives here?"})

	out := filepath.Join(t.TempDir(), "conversation.txt")
	rec := doJSON(t, h, http.MethodPost, "/api/v1/export", map[string]string{"path": out})
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Question: What lives here?") {
		t.Errorf("export missing question: %s", data)
	}
}

func TestHandleKeywordSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	doJSON(t, h, http.MethodPost, "/api/v1/documents", map[string]string{
		"text": "Kubernetes orchestrates containers across a cluster.",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=kubernetes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Results []keyword.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Error("expected keyword hits")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
}
