package memory

import (
	"testing"

	"github.com/edel-social/edel-server/s3/tests"
)

func TestS3_MemoryStore(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}
