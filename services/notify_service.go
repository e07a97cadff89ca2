package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"queue-system/config"
	"queue-system/models"
	"queue-system/monitoring"
)

// Publisher dispatches a one-shot message to a customer-facing channel.
// Failure is reported to the caller but never rolled back into queue state.
type Publisher interface {
	Publish(channel string, message map[string]any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) Publisher {
	return &pubnubPublisher{pn: pn}
}

func (p *pubnubPublisher) Publish(channel string, message map[string]any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// NotifyService runs the near-the-front notification pass and projects live
// positions to Redis and the realtime channel after every queue change.
// Both are fire-and-forget relative to the state machine.
type NotifyService struct {
	queue     *QueueService
	publisher Publisher
	redis     *redis.Client
	monitor   *monitoring.Monitor
	config    *config.Config

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	notified map[string]struct{} // process-local dedupe alongside notified_at
}

func NewNotifyService(queue *QueueService, publisher Publisher, redisClient *redis.Client, cfg *config.Config) *NotifyService {
	service := &NotifyService{
		queue:     queue,
		publisher: publisher,
		redis:     redisClient,
		config:    cfg,
		stopChan:  make(chan struct{}),
		notified:  make(map[string]struct{}),
	}

	queue.Subscribe(service.projectPositions)

	return service
}

func (s *NotifyService) SetMonitor(m *monitoring.Monitor) { s.monitor = m }

// Start launches the periodic notification pass.
func (s *NotifyService) Start() {
	s.wg.Add(1)
	go s.notifyLoop()
	log.Println("Notification service started")
}

func (s *NotifyService) notifyLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.NotifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.NotifyTopWaiting(context.Background())
		case <-s.stopChan:
			log.Println("Notification service stopping")
			return
		}
	}
}

// NotifyTopWaiting sends a one-time heads-up to the first NotifyTopN
// waiting entries. The notified_at stamp plus the dedupe set make the pass
// idempotent per entry: running it twice with no state change sends nothing
// the second time, and an entry never re-triggers once stamped even if its
// position shifts. The stamp is written before the send, so a failed send
// still counts as notified (accepted best-effort race).
func (s *NotifyService) NotifyTopWaiting(ctx context.Context) int {
	top := s.queue.TopWaiting(s.config.NotifyTopN)
	sent := 0

	for _, entry := range top {
		if entry.NotifiedAt != nil || !s.claim(entry.ID) {
			continue
		}
		if !s.queue.MarkNotified(entry.ID) {
			continue
		}

		message := "Almost your turn! Please make your way to the counter area."
		if entry.Position == 1 {
			message = "You're next! Please come to the counter."
		}

		err := s.dispatch(fmt.Sprintf("customer-%s", entry.ID), map[string]any{
			"type":           "queue_notification",
			"display_number": entry.DisplayNumber,
			"position":       entry.Position,
			"message":        message,
		})
		if err != nil {
			log.Printf("Notification send failed for %s: %v", entry.DisplayNumber, err)
			s.trackNotification("failed")
			continue
		}
		s.trackNotification("sent")
		sent++
	}

	return sent
}

// projectPositions pushes the post-mutation snapshot outward: per-entry
// position keys in Redis with a short TTL and a realtime message per
// waiting customer. Runs on an observer goroutine, never in the mutation
// path; errors are logged and dropped.
func (s *NotifyService) projectPositions(snapshot []models.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, entry := range snapshot {
		if entry.Status != models.StatusWaiting {
			continue
		}

		if s.redis != nil {
			posKey := fmt.Sprintf("queue:position:%s", entry.ID)
			if err := s.redis.Set(ctx, posKey, entry.Position, s.config.PositionTTL).Err(); err != nil {
				log.Printf("Error publishing position for %s: %v", entry.DisplayNumber, err)
			}
		}

		err := s.dispatch(fmt.Sprintf("customer-%s", entry.ID), map[string]any{
			"type":                   "queue_position",
			"display_number":         entry.DisplayNumber,
			"position":               entry.Position,
			"estimated_wait_minutes": entry.EstimatedWait,
		})
		if err != nil {
			log.Printf("Error publishing position update for %s: %v", entry.DisplayNumber, err)
		}
	}
}

func (s *NotifyService) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notified[id]; ok {
		return false
	}
	s.notified[id] = struct{}{}
	return true
}

func (s *NotifyService) dispatch(channel string, message map[string]any) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(channel, message)
}

func (s *NotifyService) trackNotification(result string) {
	if s.monitor != nil {
		s.monitor.TrackNotification(result)
	}
}

// Shutdown stops the notification loop and waits for it with a bounded
// timeout.
func (s *NotifyService) Shutdown() {
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Notification service stopped gracefully")
	case <-time.After(10 * time.Second):
		log.Println("Timeout waiting for notification service to stop")
	}
}
