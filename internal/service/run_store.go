package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/campus-timetable-api/internal/engine"
	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// planningRun is the stored state of one generation request, kept until the
// proposal TTL elapses or the run is committed.
type planningRun struct {
	RunID           string                `json:"run_id"`
	Status          string                `json:"status"`
	CohortIDs       []string              `json:"cohort_ids"`
	Config          models.PlanningConfig `json:"config"`
	IgnoreCommitted bool                  `json:"ignore_committed"`
	RequestedAt     time.Time             `json:"requested_at"`
	Result          *engine.Result        `json:"result,omitempty"`
	Error           string                `json:"error,omitempty"`
}

// RunStore keeps planning runs for their TTL window.
type RunStore interface {
	Save(ctx context.Context, run planningRun) error
	Get(ctx context.Context, id string) (planningRun, bool, error)
	Delete(ctx context.Context, id string) error
}

type memoryRunStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]planningRun
}

func newMemoryRunStore(ttl time.Duration) *memoryRunStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &memoryRunStore{
		ttl:   ttl,
		items: make(map[string]planningRun),
	}
}

func (s *memoryRunStore) Save(_ context.Context, run planningRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.RunID] = run
	return nil
}

func (s *memoryRunStore) Get(ctx context.Context, id string) (planningRun, bool, error) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planningRun{}, false, nil
	}
	if time.Since(run.RequestedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return planningRun{}, false, nil
	}
	return run, true, nil
}

func (s *memoryRunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// redisRunStore shares planning runs across instances. TTL enforcement is
// delegated to key expiry.
type redisRunStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunStore wraps a Redis client as a run store.
func NewRedisRunStore(client *redis.Client, ttl time.Duration) RunStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisRunStore{client: client, ttl: ttl}
}

func runKey(id string) string {
	return "planner:run:" + id
}

func (s *redisRunStore) Save(ctx context.Context, run planningRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode planning run: %w", err)
	}
	if err := s.client.Set(ctx, runKey(run.RunID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store planning run: %w", err)
	}
	return nil
}

func (s *redisRunStore) Get(ctx context.Context, id string) (planningRun, bool, error) {
	payload, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return planningRun{}, false, nil
	}
	if err != nil {
		return planningRun{}, false, fmt.Errorf("load planning run: %w", err)
	}
	var run planningRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return planningRun{}, false, fmt.Errorf("decode planning run: %w", err)
	}
	return run, true, nil
}

func (s *redisRunStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, runKey(id)).Err(); err != nil {
		return fmt.Errorf("delete planning run: %w", err)
	}
	return nil
}
