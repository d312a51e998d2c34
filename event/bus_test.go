package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	bus := NewActivityBus()

	var mu sync.Mutex
	received := make(map[string][]*ActivityEvent)

	for i := 0; i < 2; i++ {
		bus.AddHandler(HandlerFunc[string, *ActivityEvent](func(key string, e *ActivityEvent) {
			mu.Lock()
			defer mu.Unlock()
			received[key] = append(received[key], e)
		}))
	}

	e := &ActivityEvent{
		Type:      ActivityLike,
		PostID:    "post",
		ActorID:   "actor",
		Timestamp: time.Now(),
	}
	require.NoError(t, bus.OnEvent("author", e))
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received["author"], 2)
	assert.Same(t, e, received["author"][0])
	assert.Same(t, e, received["author"][1])
}

func TestBus_DoesNotBlockOnHandlers(t *testing.T) {
	bus := NewActivityBus()

	release := make(chan struct{})
	bus.AddHandler(HandlerFunc[string, *ActivityEvent](func(string, *ActivityEvent) {
		<-release
	}))

	done := make(chan struct{})
	go func() {
		_ = bus.OnEvent("author", &ActivityEvent{Type: ActivityComment})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnEvent blocked on handler")
	}

	close(release)
	bus.Wait()
}
