package memory

import (
	"testing"

	"github.com/edel-social/edel-server/blob/tests"
)

func TestBlob_MemoryStore(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}
