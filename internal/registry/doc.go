// Package registry implements a concurrent, type-indexed service registry.
//
// A Registry maps api.IDs to suppliers. Watchers registered for an
// IDMatcher hear about every matching supplier that is added or removed,
// starting with a back-fill of the suppliers already present.
//
// # Serialization
//
// All mutations (Put, Remove, RemoveAll, AddWatcher, RemoveWatcher and the
// Hook invalidations) are queued and applied one at a time by a single
// serializer goroutine. The call returns after its action ran and the
// resulting watcher notifications were dispatched, bounded by the registry
// timeout. The caller's context only bounds the caller's own wait: an action
// that was queued runs even if its caller gave up.
//
// Reads (Get, GetAll, IDs) look at the stored registrations directly and
// may observe a supplier before its watchers were notified.
//
// # Notification
//
// How watchers are called depends on the configured execution strategy.
// With the same-thread strategy watchers run on the serializer goroutine and
// must not call back into the registry's mutating methods, which would
// deadlock. Watcher failures and panics are logged and never reach the
// mutating caller.
//
// # Lifecycle
//
// Close drains queued actions and stops the serializer. The registry does
// not restart it: mutations submitted after Close, or after the serializer
// died from a panic, block until their context ends.
//
// Example:
//
//	r, err := registry.New(registry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	id := api.NamedIDFor[*Greeter]("english")
//	bs, _ := r.NewBlockingSupplier(ctx, id)
//	go r.Put(ctx, id, api.Instance(&Greeter{}))
//	g, err := blocking.Value[*Greeter](ctx, bs, time.Second)
package registry
