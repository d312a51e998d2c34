package push_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/push"
)

func TestParseTokenType(t *testing.T) {
	for platform, expected := range map[string]push.TokenType{
		"":        push.TokenTypeFCMAndroid,
		"android": push.TokenTypeFCMAndroid,
		"FCM":     push.TokenTypeFCMAndroid,
		"ios":     push.TokenTypeFCMAPNS,
		"APNS":    push.TokenTypeFCMAPNS,
	} {
		actual, err := push.ParseTokenType(platform)
		require.NoError(t, err, platform)
		assert.Equal(t, expected, actual, platform)
	}

	_, err := push.ParseTokenType("windows")
	assert.ErrorIs(t, err, push.ErrInvalidTokenType)
}

func TestNoOpPusher(t *testing.T) {
	var pusher push.Pusher = &push.NoOpPusher{}
	assert.NoError(t, pusher.SendPushes(context.Background(), []string{"user"}, "title", "body", nil))
}
