package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ledger struct{}

type box[T any] struct{ v T }

type marker struct{}

func TestTypeOf(t *testing.T) {
	lt := TypeOf[ledger]()
	assert.Equal(t, "github.com/giantswarm/registrar/internal/api.ledger", lt.Raw)
	assert.Empty(t, lt.Params)

	bt := TypeOf[box[int]]()
	assert.Equal(t, "github.com/giantswarm/registrar/internal/api.box", bt.Raw)
	assert.Equal(t, "[int]", bt.Params)
	assert.Equal(t, Type{Raw: bt.Raw}, bt.RawType())

	assert.Equal(t, "[]string", TypeOf[[]string]().Raw)
	assert.Equal(t, "*api.ledger", TypeOf[*ledger]().Raw)
	assert.True(t, TypeOfValue(nil).IsZero())
	assert.Equal(t, TypeOf[string](), TypeOfValue("x"))
}

func TestIDEqual(t *testing.T) {
	foo := NewType("foo", "")

	tests := []struct {
		name string
		a, b ID
		want bool
	}{
		{"unqualified", NewID(foo), NewID(foo), true},
		{"different type", NewID(foo), NewID(NewType("bar", "")), false},
		{"same instance", NewNamedID(foo, "a"), NewNamedID(foo, "a"), true},
		{"different instance", NewNamedID(foo, "a"), NewNamedID(foo, "b"), false},
		{"instance vs unqualified", NewNamedID(foo, "a"), NewID(foo), false},
		{"same qualifier type", NewQualifiedID(foo, TypeOf[marker]()), NewQualifiedID(foo, TypeOf[marker]()), true},
		{"qualifier type vs unqualified", NewQualifiedID(foo, TypeOf[marker]()), NewID(foo), false},
		{"non comparable instance", NewNamedID(foo, []string{"a"}), NewNamedID(foo, []string{"a"}), true},
		{"generic params differ", NewID(NewType("box", "[int]")), NewID(NewType("box", "[string]")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestIDMatches(t *testing.T) {
	foo := NewType("foo", "")
	fooA := NewNamedID(foo, "A")
	fooB := NewNamedID(foo, "B")

	assert.True(t, NewID(foo).Matches(fooA), "unqualified lookup accepts any qualifier")
	assert.True(t, NewID(foo).Matches(NewID(foo)))
	assert.True(t, fooA.Matches(fooA))
	assert.False(t, fooA.Matches(fooB))
	assert.False(t, fooA.Matches(NewID(foo)))
	assert.False(t, NewID(foo).Matches(NewID(NewType("bar", ""))))

	boxInt := NewID(NewType("box", "[int]"))
	assert.True(t, NewID(NewType("box", "")).Matches(boxInt), "raw lookup accepts parameterized types")
	assert.False(t, boxInt.Matches(NewID(NewType("box", "[string]"))))
}

func TestIDString(t *testing.T) {
	foo := NewType("foo", "")
	assert.Equal(t, "foo", NewID(foo).String())
	assert.Equal(t, "foo@A", NewNamedID(foo, "A").String())
	assert.Equal(t, "box[int]", NewID(NewType("box", "[int]")).String())
	assert.Equal(t, "<none>", ID{}.String())
}

func TestWatcherRegistrationAccepts(t *testing.T) {
	foo := NewType("foo", "")
	reg := NewWatcherRegistration(MatchID(NewID(foo)), &WatcherFuncs{})
	assert.True(t, reg.Accepts(NewNamedID(foo, "A")))
	assert.False(t, reg.Accepts(NewID(NewType("bar", ""))))

	onlyA := NewWatcherRegistration(MatchFunc(NewID(foo), func(id ID) bool {
		return id.Qualifier.Value == "A"
	}), &WatcherFuncs{})
	assert.True(t, onlyA.Accepts(NewNamedID(foo, "A")))
	assert.False(t, onlyA.Accepts(NewNamedID(foo, "B")))
	assert.NotEqual(t, reg.Token(), onlyA.Token())
}
