package syncqueue

import (
	"time"

	"github.com/google/uuid"

	"github.com/LennySnaider/pymebot-core/internal/pkg/plansync"
)

// Event statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Event is one queued plan-change propagation. Admin flows enqueue it and
// return immediately; a worker drains the queue and runs the batch sync.
type Event struct {
	ID          string                  `json:"id"`
	PlanID      uint                    `json:"plan_id"`
	Changes     []plansync.ModuleChange `json:"changes,omitempty"`
	Status      string                  `json:"status"`
	Attempts    int                     `json:"attempts"`
	MaxRetries  int                     `json:"max_retries"`
	CreatedAt   time.Time               `json:"created_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	ProcessedAt *time.Time              `json:"processed_at,omitempty"`
	LastError   string                  `json:"last_error,omitempty"`
	Result      *plansync.Result        `json:"result,omitempty"`
}

// NewEvent creates a pending plan-change event.
func NewEvent(planID uint, changes []plansync.ModuleChange) *Event {
	return &Event{
		ID:         uuid.New().String(),
		PlanID:     planID,
		Changes:    changes,
		Status:     StatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}
}
