package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/services"
)

type AIHandler struct {
	app   *pocketbase.PocketBase
	queue *services.QueueService
	ai    *services.AIService
}

func NewAIHandler(app *pocketbase.PocketBase, queue *services.QueueService, ai *services.AIService) *AIHandler {
	return &AIHandler{
		app:   app,
		queue: queue,
		ai:    ai,
	}
}

// GetPrediction - wait-time prediction for the admin dashboard
func (h *AIHandler) GetPrediction(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	result, err := h.ai.PredictWaitTime(e.Request.Context(), h.queue.Stats())
	if err != nil {
		return aiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// GetOptimization - staffing/flow suggestions for the admin dashboard
func (h *AIHandler) GetOptimization(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	result, err := h.ai.OptimizeQueue(e.Request.Context(), h.queue.Stats())
	if err != nil {
		return aiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// GetInsights - encouraging message for one waiting customer
func (h *AIHandler) GetInsights(e *core.RequestEvent) error {
	number := e.Request.URL.Query().Get("number")
	if number == "" {
		return apis.NewBadRequestError("number query parameter required", nil)
	}

	entry := h.queue.FindByDisplayNumber(number)
	if entry == nil || entry.Status != models.StatusWaiting {
		return apis.NewNotFoundError("No waiting entry with that number", nil)
	}

	result, err := h.ai.CustomerInsights(e.Request.Context(), entry.Position, entry.EstimatedWait)
	if err != nil {
		return aiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// aiError surfaces collaborator failures as transient messages; they never
// affect queue state and are only retried when the user retries.
func aiError(err error) error {
	switch {
	case errors.Is(err, status.ErrAIRateLimited):
		return apis.NewApiError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	case errors.Is(err, status.ErrAICreditsExhausted):
		return apis.NewApiError(http.StatusPaymentRequired, "AI credits exhausted.", nil)
	case errors.Is(err, status.ErrAINotConfigured):
		return apis.NewApiError(http.StatusServiceUnavailable, "AI features are not configured.", nil)
	default:
		return apis.NewApiError(http.StatusServiceUnavailable, "No AI data available right now.", nil)
	}
}
