package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/security"
	"queue-system/services"
)

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z ]+$`)
	contactRe = regexp.MustCompile(`^\d{10}$`)
)

type QueueHandler struct {
	app     *pocketbase.PocketBase
	queue   *services.QueueService
	verify  *services.VerifyService
	limiter *security.RateLimiter
	config  *config.Config
}

func NewQueueHandler(app *pocketbase.PocketBase, queue *services.QueueService, verify *services.VerifyService, limiter *security.RateLimiter, cfg *config.Config) *QueueHandler {
	return &QueueHandler{
		app:     app,
		queue:   queue,
		verify:  verify,
		limiter: limiter,
		config:  cfg,
	}
}

// Register - join the queue
func (h *QueueHandler) Register(e *core.RequestEvent) error {
	ctx := e.Request.Context()

	if err := h.limiter.Allow(ctx, "register:"+e.RealIP(), h.config.RegisterRateLimit); err != nil {
		return apis.NewApiError(http.StatusTooManyRequests, "Too many registrations, please try again later", nil)
	}

	var req struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if !isValidName(req.Name) {
		return apis.NewBadRequestError("Name must be at least 2 letters (letters and spaces only)", nil)
	}
	if !isValidContact(req.Contact) {
		return apis.NewBadRequestError("Contact must be a 10-digit number", nil)
	}

	entry, err := h.queue.Add(strings.TrimSpace(req.Name), req.Contact)
	if err != nil {
		if errors.Is(err, status.ErrDuplicateEntry) {
			return apis.NewBadRequestError("You are already in the queue", nil)
		}
		return apis.NewBadRequestError("Failed to join queue", err)
	}

	token, err := h.verify.IssueToken(entry)
	if err != nil {
		return apis.NewBadRequestError("Failed to issue ticket", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"entry": entry,
		"token": token,
	})
}

// GetStatus - look up own entry by contact or display number
func (h *QueueHandler) GetStatus(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	var entry *models.Entry
	if contact := query.Get("contact"); contact != "" {
		entry = h.queue.FindByContact(contact)
	} else if number := query.Get("number"); number != "" {
		entry = h.queue.FindByDisplayNumber(number)
	} else {
		return apis.NewBadRequestError("contact or number query parameter required", nil)
	}

	if entry == nil {
		return apis.NewNotFoundError("Not in queue", nil)
	}

	stats := h.queue.Stats()
	return e.JSON(http.StatusOK, map[string]any{
		"entry":         entry,
		"total_waiting": stats.TotalWaiting,
		"paused":        stats.Paused,
	})
}

// Leave - self-cancel from the queue
func (h *QueueHandler) Leave(e *core.RequestEvent) error {
	var req struct {
		ID      string `json:"id"`
		Contact string `json:"contact"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	id := req.ID
	if id == "" && req.Contact != "" {
		if entry := h.queue.FindByContact(req.Contact); entry != nil {
			id = entry.ID
		}
	}
	if id == "" {
		return apis.NewBadRequestError("id or contact required", nil)
	}

	if err := h.queue.CancelFromQueue(id); err != nil {
		return lifecycleError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Successfully left queue"})
}

// Verify - resolve a presented ticket token (or raw claim) to a live entry
func (h *QueueHandler) Verify(e *core.RequestEvent) error {
	var req struct {
		Token         string `json:"token"`
		DisplayNumber string `json:"display_number"`
		Contact       string `json:"contact"`
		Timestamp     int64  `json:"timestamp"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	var entry *models.Entry
	if req.Token != "" {
		var err error
		entry, err = h.verify.VerifyToken(req.Token)
		if err != nil {
			if errors.Is(err, status.ErrTokenExpired) {
				return apis.NewBadRequestError("Ticket expired", nil)
			}
			return apis.NewBadRequestError("Invalid ticket", nil)
		}
	} else if req.DisplayNumber != "" && req.Contact != "" {
		entry = h.verify.VerifyClaim(models.VerificationClaim{
			DisplayNumber: req.DisplayNumber,
			Contact:       req.Contact,
			Timestamp:     req.Timestamp,
		})
	} else {
		return apis.NewBadRequestError("token or display_number+contact required", nil)
	}

	if entry == nil {
		// not found or already handled, not an error
		return e.JSON(http.StatusOK, map[string]any{"verified": false})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"verified": true,
		"entry":    entry,
	})
}

func isValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return len(trimmed) >= 2 && nameRe.MatchString(trimmed)
}

func isValidContact(contact string) bool {
	return contactRe.MatchString(contact)
}

// lifecycleError maps registry errors onto API responses.
func lifecycleError(err error) error {
	switch {
	case errors.Is(err, status.ErrEntryNotFound):
		return apis.NewNotFoundError("Entry not found", nil)
	case errors.Is(err, status.ErrInvalidTransition):
		return apis.NewBadRequestError("Transition not allowed from current status", nil)
	case errors.Is(err, status.ErrCounterBusy):
		return apis.NewBadRequestError("Another customer is already being served", nil)
	default:
		return apis.NewBadRequestError("Operation failed", err)
	}
}
