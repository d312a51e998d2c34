package memory

import (
	"testing"

	"github.com/edel-social/edel-server/post/tests"
)

func TestPost_MemoryStore(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*memory).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}
