package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
)

func newAITestServer(t *testing.T, handler http.HandlerFunc) (*AIService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewAIService(nil, &config.Config{
		AIGatewayURL: server.URL,
		AIAPIKey:     "test-key",
		AIModel:      "google/gemini-2.5-flash",
		AITimeout:    5 * time.Second,
		AICacheTTL:   time.Minute,
	})
	return service, server
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	require.NoError(t, err)
}

func TestAIService_PredictWaitTime(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		chatReply(t, w, `{"predictedWaitMinutes": 12, "confidence": "high", "factors": ["short queue"], "recommendation": "Join now"}`)
	})

	result, err := service.PredictWaitTime(context.Background(), models.Stats{
		TotalWaiting:       3,
		AverageServiceTime: 5,
		ServedToday:        7,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(12), result.PredictedWaitMinutes)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, []string{"short queue"}, result.Factors)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "google/gemini-2.5-flash", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "Current queue size: 3")
}

func TestAIService_StripsCodeFences(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "```json\n{\"message\": \"Hang tight!\", \"tip\": \"Grab a coffee\", \"funFact\": \"Queues are ancient\"}\n```")
	})

	result, err := service.CustomerInsights(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "Hang tight!", result.Message)
	assert.Equal(t, "Grab a coffee", result.Tip)
}

func TestAIService_OptimizeQueue(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"suggestions": [{"title": "Add counter", "description": "Open a second counter", "impact": "high"}], "peakHours": ["12:00"], "staffingRecommendation": "Two staff at noon"}`)
	})

	result, err := service.OptimizeQueue(context.Background(), models.Stats{TotalWaiting: 15})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "Add counter", result.Suggestions[0].Title)
	assert.Equal(t, "Two staff at noon", result.StaffingRecommendation)
}

func TestAIService_RateLimited(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := service.PredictWaitTime(context.Background(), models.Stats{})
	assert.ErrorIs(t, err, status.ErrAIRateLimited)
}

func TestAIService_CreditsExhausted(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := service.PredictWaitTime(context.Background(), models.Stats{})
	assert.ErrorIs(t, err, status.ErrAICreditsExhausted)
}

func TestAIService_MalformedContent(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "sorry, I can only answer in prose")
	})

	_, err := service.PredictWaitTime(context.Background(), models.Stats{})
	assert.ErrorIs(t, err, status.ErrAIMalformedResponse)
}

func TestAIService_EmptyChoices(t *testing.T) {
	service, _ := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		require.NoError(t, err)
	})

	_, err := service.PredictWaitTime(context.Background(), models.Stats{})
	assert.ErrorIs(t, err, status.ErrAIMalformedResponse)
}

func TestAIService_NotConfigured(t *testing.T) {
	service := NewAIService(nil, &config.Config{AITimeout: time.Second})

	_, err := service.PredictWaitTime(context.Background(), models.Stats{})
	assert.ErrorIs(t, err, status.ErrAINotConfigured)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFences(tt.input))
		})
	}
}
