package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateListenerIsNoOp(t *testing.T) {
	b := New(zerolog.Nop())

	calls := 0
	assert.True(t, b.On("engine:ready", "counter", func(string, Payload) { calls++ }))
	assert.False(t, b.On("engine:ready", "counter", func(string, Payload) { calls += 100 }))

	b.Emit("engine:ready", nil)
	assert.Equal(t, 1, calls)
}

func TestOffRemovesListener(t *testing.T) {
	b := New(zerolog.Nop())

	calls := 0
	b.On("command:roll", "counter", func(string, Payload) { calls++ })
	b.Off("command:roll", "counter")

	b.Emit("command:roll", nil)
	assert.Equal(t, 0, calls)

	// The name is free again after Off.
	assert.True(t, b.On("command:roll", "counter", func(string, Payload) { calls++ }))
}

func TestEmitDeliversPayload(t *testing.T) {
	b := New(zerolog.Nop())

	var gotEvent string
	var gotPayload Payload
	b.On("command:points", "recorder", func(event string, payload Payload) {
		gotEvent = event
		gotPayload = payload
	})

	b.Emit("command:points", Payload{"user": "alice"})
	assert.Equal(t, "command:points", gotEvent)
	assert.Equal(t, "alice", gotPayload["user"])
}

func TestForwardRelaysUnaltered(t *testing.T) {
	src := New(zerolog.Nop())
	dst := New(zerolog.Nop())
	src.Forward(dst)

	var got Payload
	dst.On("command:roll", "recorder", func(_ string, payload Payload) { got = payload })

	sent := Payload{"user": "alice", "args": []string{"20"}}
	src.Emit("command:roll", sent)
	assert.Equal(t, sent, got)
}

func TestForwardRefusesCycles(t *testing.T) {
	a := New(zerolog.Nop())
	b := New(zerolog.Nop())
	a.Forward(b)
	b.Forward(a) // dropped: would make Emit recurse forever

	deliveries := 0
	b.On("ping", "counter", func(string, Payload) { deliveries++ })
	a.Emit("ping", nil)
	assert.Equal(t, 1, deliveries)

	aDeliveries := 0
	a.On("ping", "counter", func(string, Payload) { aDeliveries++ })
	b.Emit("ping", nil)
	assert.Equal(t, 0, aDeliveries)
}

func TestForwardRefusesSelf(t *testing.T) {
	b := New(zerolog.Nop())
	b.Forward(b)

	calls := 0
	b.On("ping", "counter", func(string, Payload) { calls++ })
	b.Emit("ping", nil)
	assert.Equal(t, 1, calls)
}

func TestForwardRefusesTransitiveCycle(t *testing.T) {
	a := New(zerolog.Nop())
	b := New(zerolog.Nop())
	c := New(zerolog.Nop())
	a.Forward(b)
	b.Forward(c)
	c.Forward(a) // dropped: a already reaches c through b

	calls := 0
	c.On("ping", "counter", func(string, Payload) { calls++ })
	a.Emit("ping", nil)
	assert.Equal(t, 1, calls)
}

func TestRemoveAll(t *testing.T) {
	src := New(zerolog.Nop())
	dst := New(zerolog.Nop())
	src.Forward(dst)

	calls := 0
	src.On("x", "a", func(string, Payload) { calls++ })
	dst.On("x", "b", func(string, Payload) { calls++ })

	src.RemoveAll()
	src.Emit("x", nil)
	assert.Equal(t, 0, calls)
}
