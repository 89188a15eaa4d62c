// Package blocking provides suppliers that let consumers wait for a service
// to be registered.
//
// Two implementations are available. The future-based one keeps a settable
// future in an atomic pointer and swaps it for a fresh one when the
// registration it resolved to is removed. The condition-based one guards the
// current registration with a read/write lock and parks waiters on a
// condition variable.
//
// Both behave the same from the outside: the first ADD wins, later ADDs are
// ignored until that registration is removed, and removals of any other
// registration do nothing. GetSyncTimeout reports expiry as an
// *api.TimeoutError while an ended context yields an *api.InterruptedError.
//
// Suppliers from this package do nothing on their own; they have to be
// registered as watchers, which the registry does in NewBlockingSupplier.
package blocking
