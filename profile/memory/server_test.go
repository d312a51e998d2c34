package memory

import (
	"testing"

	"github.com/edel-social/edel-server/profile/tests"
)

func TestProfile_MemoryServer(t *testing.T) {
	profiles := NewInMemory()
	teardown := func() {
		profiles.(*Memory).reset()
	}
	tests.RunServerTests(t, profiles, teardown)
}
