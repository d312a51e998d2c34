package memory

import (
	"testing"

	"github.com/edel-social/edel-server/post/tests"
)

func TestPost_MemoryServer(t *testing.T) {
	testStore := NewInMemory()
	teardown := func() {
		testStore.(*memory).reset()
	}
	tests.RunServerTests(t, testStore, teardown)
}
