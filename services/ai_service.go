package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/monitoring"
	"queue-system/utils"
)

// AIService talks to an OpenAI-compatible chat-completions gateway for
// wait-time predictions, queue optimization suggestions and per-customer
// messages. It only ever consumes derived read-only data; a failure or a
// late response never touches queue state (last response wins, callers may
// simply drop stale results).
type AIService struct {
	client  *http.Client
	redis   *redis.Client
	config  *config.Config
	breaker *utils.CircuitBreaker
	monitor *monitoring.Monitor
}

func NewAIService(redisClient *redis.Client, cfg *config.Config) *AIService {
	return &AIService{
		client:  &http.Client{Timeout: cfg.AITimeout},
		redis:   redisClient,
		config:  cfg,
		breaker: utils.NewCircuitBreaker("ai-gateway"),
	}
}

func (s *AIService) SetMonitor(m *monitoring.Monitor) { s.monitor = m }

// PredictWaitTime asks the model for a wait-time prediction for a customer
// joining now.
func (s *AIService) PredictWaitTime(ctx context.Context, stats models.Stats) (*models.PredictionResult, error) {
	systemPrompt := `You are a queue management assistant. Based on the queue data provided, predict wait times and provide insights. Be concise and helpful. Always respond in JSON format with the following structure:
{
  "predictedWaitMinutes": number,
  "confidence": "high" | "medium" | "low",
  "factors": ["factor1", "factor2"],
  "recommendation": "string"
}`
	now := time.Now()
	userPrompt := fmt.Sprintf(`Based on this queue data, predict the wait time for a new customer joining now:
- Current queue size: %d
- Average service time: %d minutes
- People served today: %d
- Current time: %s
- Day of week: %s

Provide a wait time prediction with confidence level and factors.`,
		stats.TotalWaiting, stats.AverageServiceTime, stats.ServedToday,
		now.Format("15:04"), now.Weekday())

	result := &models.PredictionResult{}
	if err := s.complete(ctx, "predict_wait_time", "ai:cache:predict", systemPrompt, userPrompt, result); err != nil {
		return nil, err
	}
	return result, nil
}

// OptimizeQueue asks the model for staffing and flow suggestions.
func (s *AIService) OptimizeQueue(ctx context.Context, stats models.Stats) (*models.OptimizationResult, error) {
	systemPrompt := `You are a queue optimization assistant. Analyze queue patterns and suggest improvements. Be actionable and specific. Always respond in JSON format:
{
  "suggestions": [{"title": "string", "description": "string", "impact": "high" | "medium" | "low"}],
  "peakHours": ["hour1", "hour2"],
  "staffingRecommendation": "string"
}`
	userPrompt := fmt.Sprintf(`Analyze this queue data and provide optimization suggestions:
- Total waiting: %d
- People served today: %d
- Average service time: %d minutes
- Current hour: %d:00

Provide actionable suggestions to improve queue efficiency.`,
		stats.TotalWaiting, stats.ServedToday, stats.AverageServiceTime, time.Now().Hour())

	result := &models.OptimizationResult{}
	if err := s.complete(ctx, "optimize_queue", "ai:cache:optimize", systemPrompt, userPrompt, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CustomerInsights asks the model for an encouraging message for one
// waiting customer.
func (s *AIService) CustomerInsights(ctx context.Context, position, estimatedWait int) (*models.CustomerInsights, error) {
	systemPrompt := `You are a helpful queue assistant. Provide friendly, encouraging messages to customers waiting in queue. Keep responses brief and positive. Respond in JSON:
{
  "message": "string",
  "tip": "string",
  "funFact": "string"
}`
	userPrompt := fmt.Sprintf(`A customer is at position %d with an estimated wait of %d minutes. Provide an encouraging message, a waiting tip, and a fun fact to pass the time.`,
		position, estimatedWait)

	cacheKey := fmt.Sprintf("ai:cache:insights:%d", position)
	result := &models.CustomerInsights{}
	if err := s.complete(ctx, "customer_insights", cacheKey, systemPrompt, userPrompt, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AIService) complete(ctx context.Context, requestType, cacheKey, systemPrompt, userPrompt string, out any) error {
	if s.config.AIGatewayURL == "" {
		return status.ErrAINotConfigured
	}

	if s.cacheGet(ctx, cacheKey, out) {
		return nil
	}

	started := time.Now()
	content, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.chatComplete(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		s.trackAI(requestType, "error", time.Since(started))
		return err
	}
	s.trackAI(requestType, "success", time.Since(started))

	cleaned := stripCodeFences(content.(string))
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		slog.Warn("AI response was not valid JSON", "type", requestType, "error", err)
		return status.ErrAIMalformedResponse
	}

	s.cacheSet(ctx, cacheKey, out)
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *AIService) chatComplete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.config.AIModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.AIGatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.AIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai gateway request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", status.ErrAIRateLimited
	case http.StatusPaymentRequired:
		return "", status.ErrAICreditsExhausted
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ai gateway error: status %d: %s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", status.ErrAIMalformedResponse
	}
	if len(parsed.Choices) == 0 {
		return "", status.ErrAIMalformedResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

func (s *AIService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), out) == nil
}

func (s *AIService) cacheSet(ctx context.Context, key string, value any) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.config.AICacheTTL).Err(); err != nil {
		slog.Warn("Failed to cache AI response", "key", key, "error", err)
	}
}

func (s *AIService) trackAI(requestType, result string, duration time.Duration) {
	if s.monitor != nil {
		s.monitor.TrackAIRequest(requestType, result, duration)
	}
}

// stripCodeFences removes markdown code block wrappers some models emit
// around JSON payloads.
func stripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}
