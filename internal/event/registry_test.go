package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddReturnsDistinctTokens(t *testing.T) {
	r := NewRegistry[int]("test")
	a := r.Add(func(int) {})
	b := r.Add(func(int) {})

	assert.False(t, a.IsZero())
	assert.False(t, b.IsZero())
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_AddNilIsIgnored(t *testing.T) {
	r := NewRegistry[int]("test")
	tok := r.Add(nil)

	assert.True(t, tok.IsZero())
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Remove(tok))
}

func TestRegistry_RemoveOnlyThatCallback(t *testing.T) {
	r := NewRegistry[int]("test")
	var got []string
	r.Add(func(int) { got = append(got, "a") })
	tok := r.Add(func(int) { got = append(got, "b") })
	r.Add(func(int) { got = append(got, "c") })

	require.True(t, r.Remove(tok))
	r.Emit(1)

	assert.Equal(t, []string{"a", "c"}, got)
}

func TestRegistry_RemoveDuringEmitKeepsSnapshot(t *testing.T) {
	r := NewRegistry[int]("test")
	var got []string
	var tokB Token
	r.Add(func(int) {
		got = append(got, "a")
		r.Remove(tokB)
	})
	tokB = r.Add(func(int) { got = append(got, "b") })

	r.Emit(1)
	assert.Equal(t, []string{"a", "b"}, got)

	got = nil
	r.Emit(2)
	assert.Equal(t, []string{"a"}, got)
}

func TestRegistry_AddDuringEmitWaitsForNextEmit(t *testing.T) {
	r := NewRegistry[int]("test")
	calls := 0
	r.Add(func(int) {
		r.Add(func(int) { calls++ })
	})

	r.Emit(1)
	assert.Equal(t, 0, calls)

	r.Emit(2)
	assert.Equal(t, 1, calls)
}

func TestRegistry_ClearDropsEverything(t *testing.T) {
	r := NewRegistry[string]("test")
	called := false
	r.Add(func(string) { called = true })

	r.Clear()
	r.Emit("x")

	assert.False(t, called)
	assert.Equal(t, 0, r.Len())
}
