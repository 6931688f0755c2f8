package syncqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/authority"
	"github.com/LennySnaider/pymebot-core/internal/pkg/cache"
	"github.com/LennySnaider/pymebot-core/internal/pkg/env"
	"github.com/LennySnaider/pymebot-core/internal/pkg/permission"
	"github.com/LennySnaider/pymebot-core/internal/pkg/plansync"
)

const isolatedSyncQueueTestRedisDB = 13

// stubTenantRepo can be switched between an empty tenant list (events
// complete trivially) and a hard list failure (events fail and retry).
type stubTenantRepo struct {
	listErr error
}

func (r *stubTenantRepo) GetByID(id string) (*models.Tenant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTenantRepo) ListByPlan(planID uint, activeOnly bool) ([]models.Tenant, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return []models.Tenant{}, nil
}

func (r *stubTenantRepo) ListActive() ([]models.Tenant, error) { return []models.Tenant{}, nil }
func (r *stubTenantRepo) UpdatePlan(tenantID string, planID uint) error {
	return nil
}

type stubAuthority struct{}

func (a *stubAuthority) GetTenantPermissions(ctx context.Context, tenantID, role, scope string) (*authority.PermissionsResponse, error) {
	return nil, apperrors.NotFound("tenant", tenantID)
}

func (a *stubAuthority) UpdateTenantPermissions(ctx context.Context, tenantID string, resp *authority.PermissionsResponse) error {
	return nil
}

type stubPlanRepo struct{}

func (p *stubPlanRepo) GetByID(id uint) (*models.Plan, error) { return &models.Plan{ID: id}, nil }
func (p *stubPlanRepo) GetAll() ([]models.Plan, error)        { return nil, nil }
func (p *stubPlanRepo) Update(plan *models.Plan) error        { return nil }

func newIsolatedRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := fmt.Sprintf("%s:%s",
		env.GetEnv("CACHE_HOST", "localhost"),
		env.GetEnv("CACHE_PORT", "6379"),
	)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedSyncQueueTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	_, err := client.Ping(ctx).Result()
	cancel()
	if err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush isolated redis db: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func newTestQueue(t *testing.T, tenants *stubTenantRepo) (*Queue, *redis.Client) {
	t.Helper()
	client := newIsolatedRedisClient(t)
	resolver := permission.NewResolver(&stubAuthority{}, &stubPlanRepo{}, cache.New(time.Minute))
	syncer := plansync.NewService(tenants, resolver)
	return NewQueue(client, syncer, 1), client
}

func TestNewEvent(t *testing.T) {
	changes := []plansync.ModuleChange{{ModuleCode: "properties", Enabled: true}}
	event := NewEvent(7, changes)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, uint(7), event.PlanID)
	assert.Equal(t, changes, event.Changes)
	assert.Equal(t, StatusPending, event.Status)
	assert.Equal(t, 0, event.Attempts)
	assert.Equal(t, DefaultMaxRetries, event.MaxRetries)
	assert.False(t, event.CreatedAt.IsZero())
	assert.Nil(t, event.StartedAt)
	assert.Nil(t, event.Result)
}

func TestQueue_EnqueueAndGetEvent(t *testing.T) {
	q, client := newTestQueue(t, &stubTenantRepo{})
	ctx := context.Background()

	event, err := q.Enqueue(ctx, 7, []plansync.ModuleChange{{ModuleCode: "properties", Enabled: true}})
	require.NoError(t, err)

	length, err := client.LLen(ctx, QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	loaded, err := q.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, loaded.ID)
	assert.Equal(t, uint(7), loaded.PlanID)
	assert.Equal(t, StatusPending, loaded.Status)
	require.Len(t, loaded.Changes, 1)
	assert.Equal(t, "properties", loaded.Changes[0].ModuleCode)
}

func TestQueue_GetEvent_Missing(t *testing.T) {
	q, _ := newTestQueue(t, &stubTenantRepo{})

	_, err := q.GetEvent(context.Background(), "no-such-event")
	assert.Error(t, err)
}

func TestQueue_ProcessCompletesEvent(t *testing.T) {
	q, _ := newTestQueue(t, &stubTenantRepo{})
	ctx := context.Background()

	event, err := q.Enqueue(ctx, 7, nil)
	require.NoError(t, err)

	q.process(ctx, event.ID)

	done, err := q.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 1, done.Attempts)
	require.NotNil(t, done.Result)
	assert.Equal(t, plansync.Result{}, *done.Result)
	assert.NotNil(t, done.ProcessedAt)
	assert.Empty(t, done.LastError)
}

func TestQueue_ProcessRetriesThenFailsPermanently(t *testing.T) {
	repo := &stubTenantRepo{listErr: fmt.Errorf("db gone")}
	q, client := newTestQueue(t, repo)
	ctx := context.Background()

	event, err := q.Enqueue(ctx, 7, nil)
	require.NoError(t, err)

	// Drive the worker loop by hand: pop, process, observe.
	for attempt := 1; attempt < DefaultMaxRetries; attempt++ {
		id, err := client.RPop(ctx, QueueKey).Result()
		require.NoError(t, err)
		q.process(ctx, id)

		current, err := q.GetEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, current.Status, "attempt %d should requeue", attempt)
		assert.Equal(t, attempt, current.Attempts)
		assert.NotEmpty(t, current.LastError)
	}

	id, err := client.RPop(ctx, QueueKey).Result()
	require.NoError(t, err)
	q.process(ctx, id)

	failed, err := q.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, DefaultMaxRetries, failed.Attempts)

	// A permanently failed event is not requeued.
	length, err := client.LLen(ctx, QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestQueue_StartStop(t *testing.T) {
	q, _ := newTestQueue(t, &stubTenantRepo{})
	ctx := context.Background()

	q.Start()
	q.Start() // second start is a no-op

	event, err := q.Enqueue(ctx, 7, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := q.GetEvent(ctx, event.ID)
		return err == nil && current.Status == StatusCompleted
	}, 5*time.Second, 50*time.Millisecond)

	q.Stop()
	q.Stop()
}
