package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyassist/chat"
	"studyassist/core"
	"studyassist/ingest"
	"studyassist/logging"
	"studyassist/retrieval"
	"studyassist/storage"
)

type constEmbedder struct{}

func (constEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, context.Canceled
	}
	return []float32{1, 0, 0}, nil
}

type constGenerator struct{}

func (constGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return "Generated answer grounded in the course materials.", nil
}

func (constGenerator) GenerateWithHistory(_ context.Context, _ string, _ []core.Turn, _ string) (string, error) {
	return "Generated answer grounded in the course materials.", nil
}

func newTestServer() *Server {
	logger := logging.NewNop()
	store := storage.NewMemoryStore()
	ingestor := ingest.NewIngestor(store, constEmbedder{}, logger, 1000, 200)
	ranker := retrieval.NewRanker(store, logger, 1000)
	sessions := chat.NewMemorySessionStore(20, 10000)
	svc := chat.NewService(constEmbedder{}, constGenerator{}, ranker, sessions, retrieval.DefaultThresholds(), logger)
	return New(ingestor, svc, logger)
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIngestAndQueryFlow(t *testing.T) {
	mux := newTestServer().Routes()

	ingestBody := map[string]any{
		"title": "Intro Lecture",
		"segments": []core.Segment{
			{Start: 0, End: 10, Text: "A goroutine is a lightweight thread managed by the Go runtime."},
		},
	}
	rec := doJSON(t, mux, http.MethodPost, "/ingest/video/vid1", ingestBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body.String())
	}
	var ingestResp struct {
		Stored int `json:"stored"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ingestResp); err != nil {
		t.Fatalf("decode ingest response: %v", err)
	}
	if ingestResp.Stored == 0 {
		t.Fatal("expected stored chunks")
	}

	// duplicate without force conflicts
	rec = doJSON(t, mux, http.MethodPost, "/ingest/video/vid1", ingestBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate ingest status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/chat/query", chat.Request{
		Query:          "how do goroutines work",
		UserID:         "student1",
		IncludeSources: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d, body %s", rec.Code, rec.Body.String())
	}
	var queryResp chat.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &queryResp); err != nil {
		t.Fatalf("decode query response: %v", err)
	}
	if queryResp.Confidence != retrieval.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", queryResp.Confidence)
	}
	if len(queryResp.Sources) == 0 {
		t.Error("expected sources in the response")
	}
	if queryResp.SessionID == "" {
		t.Error("expected a session id")
	}
}

func TestIngestSRT(t *testing.T) {
	mux := newTestServer().Routes()
	body := map[string]any{
		"title": "Captioned Lecture",
		"srt":   "1\n00:00:00,000 --> 00:00:05,000\nWelcome to the course.\n",
	}
	rec := doJSON(t, mux, http.MethodPost, "/ingest/video/vid2", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("srt ingest status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestIngestPDF(t *testing.T) {
	mux := newTestServer().Routes()
	body := map[string]any{
		"title": "Course Notes",
		"pages": []core.Page{{Number: 1, Text: "Slices are views over arrays."}},
	}
	rec := doJSON(t, mux, http.MethodPost, "/ingest/pdf/pdf1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf ingest status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestIngestRejectsEmptyBody(t *testing.T) {
	mux := newTestServer().Routes()
	rec := doJSON(t, mux, http.MethodPost, "/ingest/video/vid1", map[string]any{"title": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	mux := newTestServer().Routes()
	rec := doJSON(t, mux, http.MethodPost, "/chat/query", chat.Request{Query: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	mux := newTestServer().Routes()

	rec := doJSON(t, mux, http.MethodPost, "/chat/session/student1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new session status = %d", rec.Code)
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("expected a session id")
	}

	rec = doJSON(t, mux, http.MethodDelete, "/chat/session/student1/"+created.SessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete session status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/chat/history/student1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	mux := newTestServer().Routes()
	rec := doJSON(t, mux, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}
