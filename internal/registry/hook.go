package registry

import (
	"context"
	"time"

	"github.com/giantswarm/registrar/internal/api"
)

// Hook exposes administrative operations of a registry that ordinary
// consumers do not need: type invalidation, type-level events and the
// progress of watcher notifications.
type Hook struct {
	r *Registry
}

// Invalidate removes every supplier of t, notifying their watchers, and
// then drops t from the registry, including its watchers.
func (h *Hook) Invalidate(ctx context.Context, t api.Type) error {
	if t.IsZero() {
		return api.NewArgumentError(string(actionInvalidate), "type", "must not be empty")
	}
	_, err := h.r.submit(ctx, actionInvalidate, func(timeout time.Duration) bool {
		return h.r.store.removeType(t, timeout)
	})
	return err
}

// InvalidateAll invalidates every type of ts in a single action.
func (h *Hook) InvalidateAll(ctx context.Context, ts []api.Type) error {
	for _, t := range ts {
		if t.IsZero() {
			return api.NewArgumentError(string(actionInvalidate), "type", "must not be empty")
		}
	}
	_, err := h.r.submit(ctx, actionInvalidate, func(timeout time.Duration) bool {
		changed := false
		for _, t := range ts {
			changed = h.r.store.removeType(t, timeout) || changed
		}
		return changed
	})
	return err
}

// AddTypeListener registers l for TypeAdded and TypeRemoved events. Events
// are only produced by the loading-cache container.
func (h *Hook) AddTypeListener(l api.TypeListener) { h.r.store.addTypeListener(l) }

// RemoveTypeListener unregisters l.
func (h *Hook) RemoveTypeListener(l api.TypeListener) { h.r.store.removeTypeListener(l) }

// HasPendingListenerUpdateTasks reports whether watcher notifications are
// still running.
func (h *Hook) HasPendingListenerUpdateTasks() bool { return h.r.store.hasPending() }

// AddEndOfListenerUpdateTasksListener calls l once every notification
// pending at the time of the call has finished. Notifications dispatched
// later are not waited for.
func (h *Hook) AddEndOfListenerUpdateTasksListener(l api.CompletionListener) {
	h.r.store.onPendingDone(l)
}
