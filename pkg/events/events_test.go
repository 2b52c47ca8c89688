package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := NewBroker()
	b.Start()
	t.Cleanup(b.Stop)

	sub := b.Subscribe()
	t.Cleanup(func() { b.Unsubscribe(sub) })

	b.Publish(&Event{Type: EventSchemaCreated, Message: "s1"})

	var got *Event
	assert.Eventually(t, func() bool {
		select {
		case got = <-sub:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, EventSchemaCreated, got.Type)
	assert.False(t, got.Timestamp.IsZero())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	t.Cleanup(b.Stop)

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, ok := <-sub
	assert.False(t, ok)
}

func TestMultipleSubscribersEachReceiveEvent(t *testing.T) {
	b := NewBroker()
	b.Start()
	t.Cleanup(b.Stop)

	subA := b.Subscribe()
	subB := b.Subscribe()
	t.Cleanup(func() { b.Unsubscribe(subA) })
	t.Cleanup(func() { b.Unsubscribe(subB) })

	b.Publish(&Event{Type: EventTaskCompleted})

	for _, sub := range []Subscriber{subA, subB} {
		assert.Eventually(t, func() bool {
			select {
			case <-sub:
				return true
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	}
}
