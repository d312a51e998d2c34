package memory

import (
	"testing"

	"github.com/edel-social/edel-server/profile/tests"
)

func TestProfile_MemoryStore(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*Memory).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}
