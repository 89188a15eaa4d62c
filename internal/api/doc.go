// Package api defines the vocabulary shared by every registrar package.
//
// # Identity
//
// An ID names what a supplier provides: a Type descriptor plus an optional
// Qualifier. Type descriptors are explicit values built by the caller,
// either by name or from a Go type:
//
//	api.NewID(api.NewType("acme.io/billing.Ledger", ""))
//	api.IDFor[*billing.Ledger]()
//	api.NamedIDFor[*sql.DB]("reporting")
//
// Two IDs are equal when their types are equal and their qualifiers are
// equal (compared by instance when present, otherwise by qualifier type).
// ID.Matches implements the lookup rule used for get and for watchers: an
// unqualified ID accepts every supplier of the same raw type, a qualified ID
// only the exact same ID.
//
// # Suppliers, watchers and registrations
//
//   - Supplier: a lazily evaluated value provider (SupplierFunc, Instance)
//   - Watcher: receives Add/Remove callbacks with the SupplierRegistration
//   - IDMatcher: the declared ID of a watcher plus its acceptance predicate
//   - Registration: the opaque token handed back by put and addWatcher
//
// Registrations compare by pointer identity; that identity is what a
// blocking supplier uses to decide whether a REMOVE concerns its current
// delegate.
//
// # Errors
//
// ArgumentError, InterruptedError and TimeoutError form the error taxonomy
// of the registry. Use IsArgument, IsInterrupted and IsTimeout to classify
// returned errors.
package api
