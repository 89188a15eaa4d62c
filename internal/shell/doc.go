// Package shell implements the interactive registrar shell: a readline
// command loop over an in-process registry.
//
// Values entered in the shell are strings. Types are named by the user,
// either plainly ("greeter") or with generic parameters ("box[int]"), and an
// ID may carry a name qualifier ("greeter@english"). Registrations are
// referred to by their token, or any unique prefix of it.
//
// Commands follow the Command interface and are looked up in a Registry by
// name or alias.
package shell
