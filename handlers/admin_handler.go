package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/services"
)

type AdminHandler struct {
	app   *pocketbase.PocketBase
	queue *services.QueueService
	audit *services.AuditService
}

func NewAdminHandler(app *pocketbase.PocketBase, queue *services.QueueService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{
		app:   app,
		queue: queue,
		audit: audit,
	}
}

func requireAdmin(e *core.RequestEvent) error {
	if e.Auth == nil || e.Auth.Collection().Name != core.CollectionNameSuperusers {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return nil
}

// ListQueue - full queue view, optionally filtered by ?q=
func (h *AdminHandler) ListQueue(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	query := e.Request.URL.Query().Get("q")
	if query != "" {
		return e.JSON(http.StatusOK, h.queue.Search(query))
	}
	return e.JSON(http.StatusOK, h.queue.Entries())
}

// GetStats - dashboard projection
func (h *AdminHandler) GetStats(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}
	return e.JSON(http.StatusOK, h.queue.Stats())
}

// CallNext - call the front waiting customer
func (h *AdminHandler) CallNext(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	entry := h.queue.CallNext()
	if entry == nil {
		return e.JSON(http.StatusOK, map[string]any{
			"called": false,
			"paused": h.queue.IsPaused(),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"called": true,
		"entry":  entry,
	})
}

// MarkServing - start serving a customer (after verification)
func (h *AdminHandler) MarkServing(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	id, err := bindEntryID(e)
	if err != nil {
		return err
	}
	if err := h.queue.MarkAsServing(id); err != nil {
		return lifecycleError(err)
	}
	return e.JSON(http.StatusOK, h.queue.FindByID(id))
}

// Complete - finish the current service
func (h *AdminHandler) Complete(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	id, err := bindEntryID(e)
	if err != nil {
		return err
	}
	if err := h.queue.CompleteService(id); err != nil {
		return lifecycleError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Service completed"})
}

// Cancel - cancel a customer (no-show handling)
func (h *AdminHandler) Cancel(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	id, err := bindEntryID(e)
	if err != nil {
		return err
	}
	if err := h.queue.CancelFromQueue(id); err != nil {
		return lifecycleError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Entry cancelled"})
}

// Remove - delete an entry outright, independent of status
func (h *AdminHandler) Remove(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	id, err := bindEntryID(e)
	if err != nil {
		return err
	}
	if err := h.queue.Remove(id); err != nil {
		return lifecycleError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Entry removed"})
}

// TogglePause - gate callNext
func (h *AdminHandler) TogglePause(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}
	return e.JSON(http.StatusOK, map[string]any{"paused": h.queue.TogglePause()})
}

// SetServiceTime - tune the estimate multiplier
func (h *AdminHandler) SetServiceTime(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := h.queue.SetAverageServiceTime(req.Minutes); err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}
	return e.JSON(http.StatusOK, map[string]any{"average_service_time": req.Minutes})
}

// AuditToday - today's recorded lifecycle events
func (h *AdminHandler) AuditToday(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	events, err := h.audit.TodayEvents()
	if err != nil {
		return apis.NewBadRequestError("Failed to load audit trail", err)
	}
	return e.JSON(http.StatusOK, events)
}

func bindEntryID(e *core.RequestEvent) (string, error) {
	var req struct {
		ID string `json:"id"`
	}
	if err := e.BindBody(&req); err != nil {
		return "", apis.NewBadRequestError("Invalid request", err)
	}
	if req.ID == "" {
		return "", apis.NewBadRequestError("id required", nil)
	}
	return req.ID, nil
}
