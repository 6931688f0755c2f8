package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/LennySnaider/pymebot-core/internal/pkg/plansync"
)

const (
	// Redis key prefixes
	EventKeyPrefix = "plansync:event:"
	QueueKey       = "plansync:queue"
	ProcessingKey  = "plansync:processing"
	StatsKey       = "plansync:stats"

	// Event settings
	DefaultMaxRetries = 3
	EventTTL          = 24 * time.Hour // Events expire after 24 hours

	popTimeout = 1 * time.Second
)

// Queue drains plan-change events from Redis and runs the batch
// synchronizer for each one. Events that fail are retried up to their
// MaxRetries before being marked failed.
type Queue struct {
	client  *redis.Client
	syncer  *plansync.Service
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a sync event queue.
func NewQueue(client *redis.Client, syncer *plansync.Service, workers int) *Queue {
	if workers <= 0 {
		workers = 2 // Default number of workers
	}
	return &Queue{
		client:  client,
		syncer:  syncer,
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// Enqueue stores an event and pushes it onto the queue.
func (q *Queue) Enqueue(ctx context.Context, planID uint, changes []plansync.ModuleChange) (*Event, error) {
	event := NewEvent(planID, changes)
	if err := q.saveEvent(ctx, event); err != nil {
		return nil, err
	}
	if err := q.client.LPush(ctx, QueueKey, event.ID).Err(); err != nil {
		return nil, fmt.Errorf("enqueue plan sync event: %w", err)
	}
	q.client.HIncrBy(ctx, StatsKey, "enqueued", 1)
	log.Infof("[SyncQueue] enqueued event %s for plan %d", event.ID, planID)
	return event, nil
}

// GetEvent loads an event by id.
func (q *Queue) GetEvent(ctx context.Context, id string) (*Event, error) {
	data, err := q.client.Get(ctx, EventKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("sync event %s not found", id)
		}
		return nil, fmt.Errorf("load sync event %s: %w", id, err)
	}
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("decode sync event %s: %w", id, err)
	}
	return &event, nil
}

// Start starts the queue workers and the stuck-processing sweeper.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[SyncQueue] starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Recovers events stuck in processing after a crash
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, 1*time.Minute)
}

// Stop stops the workers and waits for in-flight events to settle.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	log.Info("[SyncQueue] stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[SyncQueue] all workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		eventID, err := q.client.BRPopLPush(ctx, QueueKey, ProcessingKey, popTimeout).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[SyncQueue] worker %d pop error: %v", id, err)
				time.Sleep(popTimeout)
			}
			continue
		}
		q.process(ctx, eventID)
	}
}

// process runs one event through the synchronizer and settles its status.
func (q *Queue) process(ctx context.Context, eventID string) {
	defer q.client.LRem(ctx, ProcessingKey, 1, eventID)

	event, err := q.GetEvent(ctx, eventID)
	if err != nil {
		log.Errorf("[SyncQueue] %v", err)
		return
	}

	now := time.Now()
	event.Status = StatusProcessing
	event.StartedAt = &now
	event.Attempts++
	if err := q.saveEvent(ctx, event); err != nil {
		log.Errorf("[SyncQueue] %v", err)
	}

	result, syncErr := q.syncer.SyncTenantsWithPlanChanges(ctx, event.PlanID, event.Changes)
	done := time.Now()
	event.ProcessedAt = &done
	event.Result = &result

	if syncErr == nil {
		event.Status = StatusCompleted
		event.LastError = ""
		q.client.HIncrBy(ctx, StatsKey, "completed", 1)
		if err := q.saveEvent(ctx, event); err != nil {
			log.Errorf("[SyncQueue] %v", err)
		}
		return
	}

	event.LastError = syncErr.Error()
	if event.Attempts < event.MaxRetries {
		event.Status = StatusPending
		if err := q.saveEvent(ctx, event); err != nil {
			log.Errorf("[SyncQueue] %v", err)
		}
		q.client.LPush(ctx, QueueKey, event.ID)
		q.client.HIncrBy(ctx, StatsKey, "retried", 1)
		log.Warnf("[SyncQueue] event %s failed (attempt %d/%d), requeued: %v", event.ID, event.Attempts, event.MaxRetries, syncErr)
		return
	}

	event.Status = StatusFailed
	q.client.HIncrBy(ctx, StatsKey, "failed", 1)
	if err := q.saveEvent(ctx, event); err != nil {
		log.Errorf("[SyncQueue] %v", err)
	}
	log.Errorf("[SyncQueue] event %s failed permanently after %d attempts: %v", event.ID, event.Attempts, syncErr)
}

// stuckSweeper periodically requeues events stuck in the processing list
// longer than maxAge.
func (q *Queue) stuckSweeper(maxAge, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			ids, err := q.client.LRange(ctx, ProcessingKey, 0, -1).Result()
			if err != nil {
				log.Errorf("[SyncQueue] sweeper LRange error: %v", err)
				continue
			}
			for _, id := range ids {
				event, err := q.GetEvent(ctx, id)
				if err != nil {
					// Event data missing; remove the stray entry
					q.client.LRem(ctx, ProcessingKey, 1, id)
					continue
				}
				if event.Status != StatusProcessing || event.StartedAt == nil {
					q.client.LRem(ctx, ProcessingKey, 1, id)
					continue
				}
				if time.Since(*event.StartedAt) < maxAge {
					continue
				}
				event.Status = StatusPending
				if err := q.saveEvent(ctx, event); err != nil {
					log.Errorf("[SyncQueue] %v", err)
					continue
				}
				q.client.LRem(ctx, ProcessingKey, 1, id)
				q.client.LPush(ctx, QueueKey, id)
				log.Warnf("[SyncQueue] requeued stuck event %s", id)
			}
		}
	}
}

func (q *Queue) saveEvent(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode sync event %s: %w", event.ID, err)
	}
	if err := q.client.Set(ctx, EventKeyPrefix+event.ID, data, EventTTL).Err(); err != nil {
		return fmt.Errorf("store sync event %s: %w", event.ID, err)
	}
	return nil
}
