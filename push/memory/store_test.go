package memory

import (
	"testing"

	"github.com/edel-social/edel-server/push/tests"
)

func TestPush_MemoryStore(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*memory).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}

func TestPush_MemoryPusher(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*memory).reset()
	}
	tests.RunPusherTests(t, testStore, teardown)
}
