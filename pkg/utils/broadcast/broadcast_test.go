//nolint:thelper // ok for tests
package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastServer_FanOut(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", (<-chan int)(source))
	defer b.Close()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	go func() { source <- 42 }()

	assert.Equal(t, 42, <-sub1)
	assert.Equal(t, 42, <-sub2)
}

func TestBroadcastServer_SlowSubscriberIsSkipped(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", (<-chan int)(source),
		WithSendTimeout[int](10*time.Millisecond))
	defer b.Close()

	_ = b.Subscribe() // never reads
	fast := b.Subscribe()

	received := make(chan int, 2)
	go func() {
		for v := range fast {
			received <- v
		}
	}()

	source <- 1
	source <- 2

	assert.Equal(t, 1, <-received)
	assert.Equal(t, 2, <-received)
}

func TestBroadcastServer_CancelSubscriptionClosesChannel(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", (<-chan int)(source))
	defer b.Close()

	sub := b.Subscribe()
	b.CancelSubscription(sub)

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel was not closed")
	}
}

func TestBroadcastServer_CloseClosesSubscribers(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", (<-chan int)(source))
	sub := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed on shutdown")
	}
}
