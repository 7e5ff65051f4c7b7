package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agamai/meet/internal/app"
	"github.com/agamai/meet/internal/collab"
	"github.com/agamai/meet/internal/config"
	"github.com/agamai/meet/internal/core"
)

type stubSummarizer struct{ text string }

func (s stubSummarizer) Summarize(context.Context, string) (string, error) { return s.text, nil }

type nullConn struct{}

func (nullConn) TrySend(core.Frame) error { return nil }
func (nullConn) Close()                   {}

func newTestAPI(t *testing.T, sum collab.Summarizer) (*gin.Engine, *app.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coord := app.NewCoordinator(app.NewRegistry(), collab.Disabled{}, collab.Lexicon{}, sum, app.Options{
		FlushInterval: time.Hour,
	})
	t.Cleanup(coord.Close)

	h := &Handlers{Coord: coord, Cfg: &config.Config{ICEServers: []string{"stun:stun.example.org:3478"}}}
	r := gin.New()
	r.GET("/health", h.Health)
	api := r.Group("/api")
	api.GET("/transcript/:room", h.Transcript)
	api.GET("/engagement/:room", h.Engagement)
	api.GET("/sentiment/:room", h.Sentiment)
	api.POST("/summarize", h.Summarize)
	api.POST("/nudge", h.Nudge)
	api.GET("/webrtc/config", h.WebRTCConfig)
	return r, coord
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTranscriptEndpoint(t *testing.T) {
	r, coord := newTestAPI(t, collab.Disabled{})

	if w := do(r, http.MethodGet, "/api/transcript/ghost", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown room status=%d, want 404", w.Code)
	}

	coord.Join("peer-alice", "standup", "Alice", nullConn{})
	coord.IngestText("peer-alice", "standup", "kicking off the standup", 0, 0)

	w := do(r, http.MethodGet, "/api/transcript/standup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var resp struct {
		Room         string `json:"room"`
		TotalEntries int    `json:"total_entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Room != "standup" || resp.TotalEntries != 1 {
		t.Errorf("response=%+v", resp)
	}
}

func TestEngagementAndSentimentEndpoints(t *testing.T) {
	r, coord := newTestAPI(t, collab.Disabled{})
	coord.Join("peer-alice", "standup", "Alice", nullConn{})
	coord.RecordAttention("peer-alice", "standup", 0.7)
	coord.IngestText("peer-alice", "standup", "this is a great start", 0, 0)

	w := do(r, http.MethodGet, "/api/engagement/standup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("engagement status=%d, want 200", w.Code)
	}
	var eng struct {
		Leaderboard []struct {
			SID string `json:"sid"`
		} `json:"leaderboard"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &eng); err != nil {
		t.Fatalf("bad engagement response: %v", err)
	}
	if len(eng.Leaderboard) != 1 || eng.Leaderboard[0].SID != "peer-alice" {
		t.Errorf("leaderboard=%+v", eng.Leaderboard)
	}

	w = do(r, http.MethodGet, "/api/sentiment/standup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sentiment status=%d, want 200", w.Code)
	}
	var sent struct {
		Trend            string  `json:"trend"`
		OverallSentiment float64 `json:"overall_sentiment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &sent); err != nil {
		t.Fatalf("bad sentiment response: %v", err)
	}
	if sent.Trend != "positive" || sent.OverallSentiment <= 0 {
		t.Errorf("sentiment=%+v, want positive trend", sent)
	}

	if w := do(r, http.MethodGet, "/api/engagement/ghost", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown room engagement status=%d, want 404", w.Code)
	}
}

func TestSummarizeEndpointErrorMapping(t *testing.T) {
	r, coord := newTestAPI(t, collab.Disabled{})

	if w := do(r, http.MethodPost, "/api/summarize", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing room status=%d, want 400", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/summarize", `{"room":"ghost"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown room status=%d, want 404", w.Code)
	}

	coord.Join("peer-alice", "standup", "Alice", nullConn{})
	if w := do(r, http.MethodPost, "/api/summarize", `{"room":"standup"}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty transcript status=%d, want 422", w.Code)
	}

	coord.IngestText("peer-alice", "standup", "some discussion happened", 0, 0)
	if w := do(r, http.MethodPost, "/api/summarize", `{"room":"standup"}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled summarizer status=%d, want 503", w.Code)
	}
}

func TestSummarizeEndpointSuccess(t *testing.T) {
	r, coord := newTestAPI(t, stubSummarizer{text: "decisions were made"})
	coord.Join("peer-alice", "standup", "Alice", nullConn{})
	coord.IngestText("peer-alice", "standup", "we decided to ship on friday", 0, 0)

	w := do(r, http.MethodPost, "/api/summarize", `{"room":"standup"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Result           string `json:"result"`
		TranscriptLength int    `json:"transcript_length"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Result != "decisions were made" || resp.TranscriptLength != 1 {
		t.Errorf("response=%+v", resp)
	}
}

func TestNudgeEndpoint(t *testing.T) {
	r, coord := newTestAPI(t, collab.Disabled{})
	coord.Join("peer-alice", "standup", "Alice", nullConn{})
	coord.RecordAttention("peer-alice", "standup", 0.9) // recently active

	w := do(r, http.MethodPost, "/api/nudge", `{"room":"standup"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var resp struct {
		Nudged []string `json:"nudged"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 0 || resp.Nudged == nil {
		t.Errorf("response=%+v, want empty but present nudged list", resp)
	}

	if w := do(r, http.MethodPost, "/api/nudge", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing room status=%d, want 400", w.Code)
	}
}

func TestHealthAndWebRTCConfig(t *testing.T) {
	r, coord := newTestAPI(t, collab.Disabled{})
	coord.Join("peer-alice", "standup", "Alice", nullConn{})

	w := do(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d, want 200", w.Code)
	}
	var health struct {
		Status      string          `json:"status"`
		Features    map[string]bool `json:"features"`
		ActiveRooms int             `json:"active_rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad health response: %v", err)
	}
	if health.Status != "healthy" || health.ActiveRooms != 1 {
		t.Errorf("health=%+v", health)
	}
	if health.Features["transcription"] {
		t.Error("transcription flagged available with no collaborator configured")
	}

	w = do(r, http.MethodGet, "/api/webrtc/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("webrtc config status=%d, want 200", w.Code)
	}
	var cfg struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("bad webrtc config response: %v", err)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != "stun:stun.example.org:3478" {
		t.Errorf("iceServers=%+v", cfg.ICEServers)
	}
}
