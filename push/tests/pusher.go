package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/push"
)

// testFCMClient captures the messages sent for verification
type testFCMClient struct {
	sync.Mutex

	sent []*messaging.MulticastMessage
	fail map[string]error
}

func (c *testFCMClient) SendEachForMulticast(_ context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	c.Lock()
	defer c.Unlock()

	c.sent = append(c.sent, message)

	resp := &messaging.BatchResponse{
		Responses: make([]*messaging.SendResponse, len(message.Tokens)),
	}
	for i, token := range message.Tokens {
		if err, ok := c.fail[token]; ok {
			resp.Responses[i] = &messaging.SendResponse{Error: err}
			resp.FailureCount++
			continue
		}
		resp.Responses[i] = &messaging.SendResponse{Success: true, MessageID: token}
		resp.SuccessCount++
	}
	return resp, nil
}

func (c *testFCMClient) messages() []*messaging.MulticastMessage {
	c.Lock()
	defer c.Unlock()
	return append([]*messaging.MulticastMessage(nil), c.sent...)
}

func RunPusherTests(t *testing.T, s push.TokenStore, teardown func()) {
	for _, tf := range []func(t *testing.T, s push.TokenStore){
		testFCMPusher_SendPush,
		testFCMPusher_NoTokens,
		testFCMPusher_Batching,
		testFCMPusher_FailedToken,
	} {
		tf(t, s)
		teardown()
	}
}

func testFCMPusher_SendPush(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	fcmClient := &testFCMClient{}
	pusher := push.NewFCMPusher(zap.NewNop(), store, fcmClient)

	// Create 5 users with 2 tokens each
	users := make([]string, 5)
	for i := 0; i < 5; i++ {
		users[i] = fmt.Sprintf("user%d", i)

		err := store.AddToken(ctx, users[i], fmt.Sprintf("install%d_1", i), push.TokenTypeFCMAPNS, fmt.Sprintf("token%d_1", i))
		require.NoError(t, err)
		err = store.AddToken(ctx, users[i], fmt.Sprintf("install%d_2", i), push.TokenTypeFCMAndroid, fmt.Sprintf("token%d_2", i))
		require.NoError(t, err)
	}

	data := map[string]string{"type": "like", "post_id": "post123"}
	err := pusher.SendPushes(ctx, users[:3], "Test Title", "Test Body", data)
	require.NoError(t, err)

	sent := fcmClient.messages()
	require.Len(t, sent, 1)
	message := sent[0]

	// 2 tokens * 3 users
	assert.ElementsMatch(t, []string{
		"token0_1", "token0_2",
		"token1_1", "token1_2",
		"token2_1", "token2_2",
	}, message.Tokens)

	assert.Equal(t, "Test Title", message.Notification.Title)
	assert.Equal(t, "Test Body", message.Notification.Body)
	assert.Equal(t, data, message.Data)

	require.NotNil(t, message.Android)
	assert.Equal(t, "high", message.Android.Priority)
	assert.Equal(t, "default", message.Android.Notification.Sound)

	aps := message.APNS.Payload.Aps
	assert.Equal(t, "Test Title", aps.Alert.Title)
	assert.Equal(t, "Test Body", aps.Alert.Body)
	assert.Equal(t, "default", aps.Sound)
	require.NotNil(t, aps.Badge)
	assert.Equal(t, 1, *aps.Badge)
	assert.Equal(t, "like", aps.ThreadID)
}

func testFCMPusher_NoTokens(t *testing.T, store push.TokenStore) {
	fcmClient := &testFCMClient{}
	pusher := push.NewFCMPusher(zap.NewNop(), store, fcmClient)

	require.NoError(t, pusher.SendPushes(context.Background(), []string{"nobody"}, "title", "body", nil))
	assert.Empty(t, fcmClient.messages())
}

func testFCMPusher_Batching(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	fcmClient := &testFCMClient{}
	pusher := push.NewFCMPusher(zap.NewNop(), store, fcmClient)

	total := push.MaxMulticastTokens + 20
	for i := 0; i < total; i++ {
		require.NoError(t, store.AddToken(ctx, "user", fmt.Sprintf("install%d", i), push.TokenTypeFCMAndroid, fmt.Sprintf("token%d", i)))
	}

	require.NoError(t, pusher.SendPushes(ctx, []string{"user"}, "title", "body", nil))

	sent := fcmClient.messages()
	require.Len(t, sent, 2)
	assert.Len(t, sent[0].Tokens, push.MaxMulticastTokens)
	assert.Len(t, sent[1].Tokens, 20)
}

func testFCMPusher_FailedToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	fcmClient := &testFCMClient{
		fail: map[string]error{"bad": errors.New("transient failure")},
	}
	pusher := push.NewFCMPusher(zap.NewNop(), store, fcmClient)

	require.NoError(t, store.AddToken(ctx, "user", "install1", push.TokenTypeFCMAndroid, "good"))
	require.NoError(t, store.AddToken(ctx, "user", "install2", push.TokenTypeFCMAndroid, "bad"))

	require.NoError(t, pusher.SendPushes(ctx, []string{"user"}, "title", "body", nil))

	// Only unregistered tokens are pruned
	tokens, err := store.GetTokens(ctx, "user")
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}
