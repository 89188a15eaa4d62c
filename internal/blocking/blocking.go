package blocking

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/future"
)

// Kind selects a blocking supplier implementation.
type Kind string

const (
	// KindFuture waits on a settable future that is swapped on removal.
	KindFuture Kind = "future"

	// KindCondition waits on a condition variable guarded by a read/write lock.
	KindCondition Kind = "condition"
)

// Supplier gives access to the supplier registered for an ID and lets
// consumers wait until one is available.
//
// A Supplier is a watcher: once registered for its ID it follows the
// registry. The first matching ADD makes it available; a REMOVE of that
// same registration makes it unavailable again, while REMOVEs of other
// registrations are ignored.
type Supplier interface {
	api.Watcher

	// ID returns the ID the supplier waits for.
	ID() api.ID

	// Get returns the current value without blocking. ok is false while no
	// supplier is available.
	Get() (v any, ok bool)

	// Current returns the registration currently delegated to.
	Current() (*api.SupplierRegistration, bool)

	// GetSync blocks until a supplier is available or ctx ends, in which
	// case it returns an *api.InterruptedError.
	GetSync(ctx context.Context) (any, error)

	// GetSyncTimeout is GetSync bounded by timeout. Expiry returns an
	// *api.TimeoutError.
	GetSyncTimeout(ctx context.Context, timeout time.Duration) (any, error)

	// GetAsync returns a future resolved with the supplier once available.
	GetAsync() *future.Future[api.Supplier]
}

// New returns a blocking supplier of the given kind for id.
func New(kind Kind, id api.ID) (Supplier, error) {
	switch kind {
	case KindFuture, "":
		return NewFuture(id), nil
	case KindCondition:
		return NewCond(id), nil
	default:
		return nil, fmt.Errorf("unknown blocking strategy %q", kind)
	}
}

// Value waits for s and asserts the result to T.
func Value[T any](ctx context.Context, s Supplier, timeout time.Duration) (T, error) {
	var zero T
	v, err := s.GetSyncTimeout(ctx, timeout)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("supplier for %s returned %T, not %T", s.ID(), v, zero)
	}
	return typed, nil
}
