package hooks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/okapi-ai/okapi/compaction"
)

// BeforeCompactionHook is called before context compaction
type BeforeCompactionHook func(ctx context.Context, sessionID uuid.UUID) error

// AfterCompactionHook is called after context compaction with the run's metrics
type AfterCompactionHook func(ctx context.Context, metrics *compaction.Metrics) error

// UsageUpdatedHook is called after the token tracker absorbs a final usage event
type UsageUpdatedHook func(ctx context.Context, snap compaction.TokenSnapshot) error

// Registry holds all registered hooks
type Registry struct {
	mu               sync.RWMutex
	beforeCompaction []BeforeCompactionHook
	afterCompaction  []AfterCompactionHook
	usageUpdated     []UsageUpdatedHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeCompaction: []BeforeCompactionHook{},
		afterCompaction:  []AfterCompactionHook{},
		usageUpdated:     []UsageUpdatedHook{},
	}
}

// OnBeforeCompaction registers a hook to be called before compaction
func (r *Registry) OnBeforeCompaction(hook BeforeCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCompaction = append(r.beforeCompaction, hook)
}

// OnAfterCompaction registers a hook to be called after compaction
func (r *Registry) OnAfterCompaction(hook AfterCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCompaction = append(r.afterCompaction, hook)
}

// OnUsageUpdated registers a hook to be called after a usage update
func (r *Registry) OnUsageUpdated(hook UsageUpdatedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usageUpdated = append(r.usageUpdated, hook)
}

// TriggerBeforeCompaction calls all registered before-compaction hooks
func (r *Registry) TriggerBeforeCompaction(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.RLock()
	hooks := make([]BeforeCompactionHook, len(r.beforeCompaction))
	copy(hooks, r.beforeCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterCompaction calls all registered after-compaction hooks
func (r *Registry) TriggerAfterCompaction(ctx context.Context, metrics *compaction.Metrics) error {
	r.mu.RLock()
	hooks := make([]AfterCompactionHook, len(r.afterCompaction))
	copy(hooks, r.afterCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, metrics); err != nil {
			return err
		}
	}
	return nil
}

// TriggerUsageUpdated calls all registered usage-updated hooks
func (r *Registry) TriggerUsageUpdated(ctx context.Context, snap compaction.TokenSnapshot) error {
	r.mu.RLock()
	hooks := make([]UsageUpdatedHook, len(r.usageUpdated))
	copy(hooks, r.usageUpdated)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}
