package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/monitoring"
	"queue-system/utils"
)

// Auditor receives lifecycle events for best-effort recording. Failures
// never affect queue state.
type Auditor interface {
	Record(action string, entry models.Entry)
}

// QueueService owns the walk-in queue: the entry collection, the display
// number counter, the pause flag and the served-today counter. All state
// lives in process memory; every mutation runs under one mutex and ends
// with a position recompute, so updates are atomic at the granularity of
// one operation.
type QueueService struct {
	mu sync.Mutex

	entries []*models.Entry // join order
	counter int             // display number source, never reused

	paused            bool
	avgServiceMinutes int

	servedToday    int
	servedDay      string // YYYY-MM-DD the counter belongs to
	serviceSeconds int64  // accumulated observed service durations
	serviceCount   int64

	config    *config.Config
	monitor   *monitoring.Monitor
	auditor   Auditor
	observers []func([]models.Entry)
}

func NewQueueService(cfg *config.Config) *QueueService {
	avg := cfg.AvgServiceMinutes
	if avg <= 0 {
		avg = 5
	}
	return &QueueService{
		config:            cfg,
		avgServiceMinutes: avg,
		servedDay:         time.Now().Format("2006-01-02"),
	}
}

func (s *QueueService) SetMonitor(m *monitoring.Monitor) { s.monitor = m }
func (s *QueueService) SetAuditor(a Auditor)             { s.auditor = a }

// Subscribe registers an observer that receives a snapshot copy after every
// mutation. Observers run on their own goroutine and must not call back
// into mutating operations.
func (s *QueueService) Subscribe(fn func([]models.Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Add registers a new customer. Name and contact are assumed to have passed
// format validation upstream; the only business rule checked here is the
// duplicate key over active entries.
func (s *QueueService) Add(name, contact string) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Status.Active() && e.MatchesIdentity(name, contact) {
			s.track("add", "duplicate")
			return nil, status.ErrDuplicateEntry
		}
	}

	id, err := utils.GenerateEntryID()
	if err != nil {
		s.track("add", "error")
		return nil, fmt.Errorf("generate entry id: %w", err)
	}

	s.counter++
	entry := &models.Entry{
		ID:            id,
		DisplayNumber: fmt.Sprintf("Q%03d", s.counter),
		Name:          name,
		Contact:       contact,
		JoinedAt:      time.Now(),
		Status:        models.StatusWaiting,
	}
	s.entries = append(s.entries, entry)

	s.recomputeLocked()
	s.track("add", "success")
	s.auditLocked("registered", entry)
	s.publishLocked()

	out := *entry
	return &out, nil
}

// Remove deletes the entry outright. This is not a status change; the
// display number is gone for good.
func (s *QueueService) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			removed := *e
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.recomputeLocked()
			s.track("remove", "success")
			s.auditLocked("removed", &removed)
			s.publishLocked()
			return nil
		}
	}
	s.track("remove", "not_found")
	return status.ErrEntryNotFound
}

// CallNext transitions the front waiting entry to called and returns a copy
// of it. Returns nil when the queue is paused or empty.
func (s *QueueService) CallNext() *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		s.track("call_next", "paused")
		return nil
	}

	var next *models.Entry
	for _, e := range s.entries {
		if e.Status == models.StatusWaiting {
			next = e
			break
		}
	}
	if next == nil {
		s.track("call_next", "empty")
		return nil
	}

	next.Status = models.StatusCalled
	s.recomputeLocked()
	s.track("call_next", "success")
	s.auditLocked("called", next)
	s.publishLocked()

	out := *next
	return &out
}

// MarkAsServing moves a waiting or called entry to serving and stamps the
// verification time. Only one entry may hold serving at a time.
func (s *QueueService) MarkAsServing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.findLocked(id)
	if entry == nil {
		s.track("serve", "not_found")
		return status.ErrEntryNotFound
	}
	if entry.Status != models.StatusWaiting && entry.Status != models.StatusCalled {
		s.track("serve", "invalid_transition")
		return status.ErrInvalidTransition
	}
	for _, e := range s.entries {
		if e.Status == models.StatusServing {
			s.track("serve", "counter_busy")
			return status.ErrCounterBusy
		}
	}

	now := time.Now()
	entry.Status = models.StatusServing
	entry.VerifiedAt = &now

	s.recomputeLocked()
	s.track("serve", "success")
	s.auditLocked("serving", entry)
	s.publishLocked()
	return nil
}

// CompleteService finishes the serving entry and bumps the served-today
// counter. The observed service duration feeds the admin stats average.
func (s *QueueService) CompleteService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.findLocked(id)
	if entry == nil {
		s.track("complete", "not_found")
		return status.ErrEntryNotFound
	}
	if entry.Status != models.StatusServing {
		s.track("complete", "invalid_transition")
		return status.ErrInvalidTransition
	}

	now := time.Now()
	entry.Status = models.StatusCompleted
	if entry.VerifiedAt != nil {
		s.serviceSeconds += int64(now.Sub(*entry.VerifiedAt).Seconds())
		s.serviceCount++
	}

	s.rollServedDayLocked(now)
	s.servedToday++

	s.recomputeLocked()
	s.track("complete", "success")
	s.auditLocked("completed", entry)
	s.publishLocked()
	return nil
}

// CancelFromQueue cancels any active entry. Used both for customer
// withdrawal and staff no-show handling.
func (s *QueueService) CancelFromQueue(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.findLocked(id)
	if entry == nil {
		s.track("cancel", "not_found")
		return status.ErrEntryNotFound
	}
	if entry.Status.Terminal() {
		s.track("cancel", "invalid_transition")
		return status.ErrInvalidTransition
	}

	entry.Status = models.StatusCancelled
	s.recomputeLocked()
	s.track("cancel", "success")
	s.auditLocked("cancelled", entry)
	s.publishLocked()
	return nil
}

// TogglePause flips the call-next gate and returns the new value.
func (s *QueueService) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	log.Printf("Queue pause toggled: paused=%v", s.paused)
	return s.paused
}

func (s *QueueService) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetAverageServiceTime tunes the estimate multiplier and recomputes all
// waiting estimates with the new value.
func (s *QueueService) SetAverageServiceTime(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("average service time must be positive, got %d", minutes)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avgServiceMinutes = minutes
	s.recomputeLocked()
	s.publishLocked()
	return nil
}

func (s *QueueService) FindByID(id string) *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.findLocked(id); e != nil {
		out := *e
		return &out
	}
	return nil
}

func (s *QueueService) FindByContact(contact string) *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Contact == contact {
			out := *e
			return &out
		}
	}
	return nil
}

// FindByDisplayNumber accepts either the full label ("Q012") or the bare
// sequence number ("12").
func (s *QueueService) FindByDisplayNumber(number string) *models.Entry {
	if n, err := strconv.Atoi(number); err == nil {
		number = fmt.Sprintf("Q%03d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if strings.EqualFold(e.DisplayNumber, number) {
			out := *e
			return &out
		}
	}
	return nil
}

// Search matches a case-insensitive substring over name, contact and
// display number.
func (s *QueueService) Search(query string) []models.Entry {
	lower := strings.ToLower(query)
	s.mu.Lock()
	defer s.mu.Unlock()

	results := []models.Entry{}
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Name), lower) ||
			strings.Contains(e.Contact, query) ||
			strings.Contains(strings.ToLower(e.DisplayNumber), lower) {
			results = append(results, *e)
		}
	}
	return results
}

// Entries returns a defensive copy of the whole collection in join order.
func (s *QueueService) Entries() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TopWaiting returns copies of the first n waiting entries by position.
func (s *QueueService) TopWaiting(n int) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := []models.Entry{}
	for _, e := range s.entries {
		if e.Status == models.StatusWaiting {
			top = append(top, *e)
			if len(top) == n {
				break
			}
		}
	}
	return top
}

// MarkNotified stamps the entry's notification time. Returns false when the
// entry is unknown or already stamped, making the notification pass
// idempotent per entry even if positions shift afterwards.
func (s *QueueService) MarkNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.findLocked(id)
	if entry == nil || entry.NotifiedAt != nil {
		return false
	}
	now := time.Now()
	entry.NotifiedAt = &now
	return true
}

// Stats builds the read-only projection used by the admin dashboard and the
// AI collaborators.
func (s *QueueService) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollServedDayLocked(time.Now())

	stats := models.Stats{
		AverageServiceTime: s.avgServiceMinutes,
		ObservedServiceAvg: models.ObservedAverage(s.serviceSeconds, s.serviceCount),
		ServedToday:        s.servedToday,
		Paused:             s.paused,
		LastUpdated:        time.Now(),
	}
	for _, e := range s.entries {
		switch e.Status {
		case models.StatusWaiting:
			stats.TotalWaiting++
		case models.StatusServing:
			out := *e
			stats.CurrentlyServing = &out
		}
	}
	return stats
}

// WaitingCount implements monitoring.StatsSource.
func (s *QueueService) WaitingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entries {
		if e.Status == models.StatusWaiting {
			count++
		}
	}
	return count
}

// ServedToday implements monitoring.StatsSource.
func (s *QueueService) ServedToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollServedDayLocked(time.Now())
	return s.servedToday
}

func (s *QueueService) findLocked(id string) *models.Entry {
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *QueueService) recomputeLocked() {
	RecomputePositions(s.entries, s.avgServiceMinutes)
}

func (s *QueueService) rollServedDayLocked(now time.Time) {
	day := now.Format("2006-01-02")
	if day != s.servedDay {
		s.servedDay = day
		s.servedToday = 0
	}
}

func (s *QueueService) snapshotLocked() []models.Entry {
	snapshot := make([]models.Entry, len(s.entries))
	for i, e := range s.entries {
		snapshot[i] = *e
	}
	return snapshot
}

// publishLocked hands a snapshot copy to every observer. Observers run
// outside the lock and never block the mutation path.
func (s *QueueService) publishLocked() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	for _, fn := range s.observers {
		go fn(snapshot)
	}
}

func (s *QueueService) auditLocked(action string, entry *models.Entry) {
	if s.auditor == nil {
		return
	}
	copied := *entry
	go s.auditor.Record(action, copied)
}

func (s *QueueService) track(operation, result string) {
	if s.monitor != nil {
		s.monitor.TrackQueueOperation(operation, result)
	}
}
