package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_DeliversInOrder(t *testing.T) {
	b := NewBroadcaster[int]()
	var got []string

	b.Subscribe(func(v int) { got = append(got, "first") })
	b.Subscribe(func(v int) { got = append(got, "second") })

	b.Publish(1)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster[string]()
	calls := 0

	unsubscribe := b.Subscribe(func(string) { calls++ })
	b.Publish("a")
	unsubscribe()
	unsubscribe()
	b.Publish("b")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_HandlerMayUnsubscribeItself(t *testing.T) {
	b := NewBroadcaster[int]()
	calls := 0

	var unsubscribe func()
	unsubscribe = b.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, calls)
}
