package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	argErr := NewArgumentError("put", "supplier", "must not be nil")
	interrupted := NewInterruptedError("getSync", context.Canceled)
	timeout := NewTimeoutError("getSync", 50*time.Millisecond, "greeter")

	tests := []struct {
		name        string
		err         error
		argument    bool
		interrupted bool
		timeout     bool
	}{
		{name: "argument", err: argErr, argument: true},
		{name: "wrapped argument", err: fmt.Errorf("registering: %w", argErr), argument: true},
		{name: "interrupted", err: interrupted, interrupted: true},
		{name: "timeout", err: timeout, timeout: true},
		{name: "wrapped timeout", err: fmt.Errorf("wait: %w", timeout), timeout: true},
		{name: "plain", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.argument, IsArgument(tt.err))
			assert.Equal(t, tt.interrupted, IsInterrupted(tt.err))
			assert.Equal(t, tt.timeout, IsTimeout(tt.err))
		})
	}
}

func TestInterruptedError_UnwrapsContextError(t *testing.T) {
	err := NewInterruptedError("put", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "put: interrupted while waiting: context deadline exceeded", err.Error())
}

func TestTimeoutError_Message(t *testing.T) {
	assert.Equal(t, "getSync: timed out after 1s waiting for greeter",
		NewTimeoutError("getSync", time.Second, "greeter").Error())
	assert.Equal(t, "notify: timed out after 20ms",
		NewTimeoutError("notify", 20*time.Millisecond, "").Error())
}

func TestWatcherRegistration_Accepts(t *testing.T) {
	english := NewNamedID(NewType("greeter", ""), "english")
	german := NewNamedID(NewType("greeter", ""), "german")
	other := NewID(NewType("counter", ""))

	byType := NewWatcherRegistration(MatchID(NewID(NewType("greeter", ""))), &WatcherFuncs{})
	assert.True(t, byType.Accepts(english))
	assert.True(t, byType.Accepts(german))
	assert.False(t, byType.Accepts(other))
	assert.False(t, byType.IsWeak())

	exact := NewWeakWatcherRegistration(MatchID(english), &WatcherFuncs{})
	assert.True(t, exact.Accepts(english))
	assert.False(t, exact.Accepts(german))
	assert.True(t, exact.IsWeak())

	// A predicate is never consulted for another raw type.
	all := NewWatcherRegistration(MatchFunc(english, func(ID) bool { return true }), &WatcherFuncs{})
	assert.True(t, all.Accepts(german))
	assert.False(t, all.Accepts(other))
}

func TestSupplierRegistration(t *testing.T) {
	calls := 0
	reg := NewSupplierRegistration(NewID(NewType("counter", "")), SupplierFunc(func() any {
		calls++
		return calls
	}))
	assert.Equal(t, 1, reg.Get())
	assert.Equal(t, 2, reg.Get(), "suppliers are evaluated on every get")
	assert.NotEqual(t, reg.Token(), NewSupplierRegistration(reg.ID(), Instance(1)).Token())
	assert.Equal(t, "REMOVE", TypeRemoved.String())
}
