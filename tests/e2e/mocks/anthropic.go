package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
)

const (
	negativeAnalysis = `{"sentiment":"negative","sentimentScore":18,"categories":["wait_time","staff_behavior"],"emotions":["frustrated"],"urgency":"high","actionableInsights":"Add a teller during lunch hours.","confidenceScore":90}`
	positiveAnalysis = `{"sentiment":"positive","sentimentScore":92,"categories":["user_experience"],"emotions":["satisfied","happy"],"urgency":"low","actionableInsights":"Keep the current app flow.","confidenceScore":95}`
)

// FailMarker in a comment makes the fake model return HTTP 500.
const FailMarker = "[fail]"

// AnthropicServer fakes the Messages API. Comments mentioning "love" are
// classified positive, everything else negative.
type AnthropicServer struct {
	*httptest.Server
	Calls atomic.Int32
}

func NewAnthropicServer() *AnthropicServer {
	s := &AnthropicServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *AnthropicServer) handle(w http.ResponseWriter, r *http.Request) {
	s.Calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	text := string(body)

	if strings.Contains(text, FailMarker) {
		http.Error(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`, http.StatusInternalServerError)
		return
	}

	analysis := negativeAnalysis
	if strings.Contains(strings.ToLower(text), "love") {
		analysis = positiveAnalysis
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            "msg_e2e",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-e2e",
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content":       []map[string]any{{"type": "text", "text": analysis}},
		"usage":         map[string]any{"input_tokens": 100, "output_tokens": 50},
	})
}
