package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an OpenAI-compatible completion endpoint that answers
// per model name and counts upstream calls.
type fakeGateway struct {
	t       *testing.T
	calls   int
	respond func(model string) (status int, content string)
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.calls++

	var req struct {
		Model string `json:"model"`
	}
	require.NoError(g.t, json.NewDecoder(r.Body).Decode(&req))

	status, content := g.respond(req.Model)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if status != http.StatusOK {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": http.StatusText(status),
				"type":    "test_error",
			},
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "1",
		"object": "chat.completion",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

const questionsJSON = `[{"type":"flashcard","question":"q","answer":"a"}]`

func newFallbackService(t *testing.T, gw *fakeGateway, models []string) *AIService {
	t.Helper()

	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	s := NewAIService("test-key", srv.URL+"/v1", models, "")
	s.quotaDelay = 0
	return s
}

func TestFallbackRetriesQuotaOnceThenNextModel(t *testing.T) {
	gw := &fakeGateway{t: t, respond: func(model string) (int, string) {
		if model == "first" {
			return http.StatusTooManyRequests, ""
		}
		return http.StatusOK, questionsJSON
	}}
	s := newFallbackService(t, gw, []string{"first", "second"})

	got, err := s.GenerateForTopic(context.Background(), "Math", nil, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// First model: one try plus one quota retry, then the second model
	// succeeds.
	assert.Equal(t, 3, gw.calls)
}

func TestFallbackExhaustionIsTerminal(t *testing.T) {
	gw := &fakeGateway{t: t, respond: func(string) (int, string) {
		return http.StatusTooManyRequests, ""
	}}
	s := newFallbackService(t, gw, []string{"first", "second"})

	_, err := s.GenerateForTopic(context.Background(), "Math", nil, 1, 0, 0)
	assert.ErrorIs(t, err, ErrAllModelsFailed)

	// Both models get exactly one retry each; nothing loops forever.
	assert.Equal(t, 4, gw.calls)
}

func TestFallbackSkipsWithoutRetryOnPermanentFailure(t *testing.T) {
	gw := &fakeGateway{t: t, respond: func(model string) (int, string) {
		if model == "first" {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, questionsJSON
	}}
	s := newFallbackService(t, gw, []string{"first", "second"})

	got, err := s.GenerateForTopic(context.Background(), "Math", nil, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// A non-quota failure earns no retry: straight to the next model.
	assert.Equal(t, 2, gw.calls)
}
