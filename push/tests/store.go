package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/push"
)

func RunStoreTests(t *testing.T, s push.TokenStore, teardown func()) {
	for _, tf := range []func(t *testing.T, s push.TokenStore){
		testAddAndGetTokens,
		testUpdateExistingToken,
		testDeleteToken,
		testClearToken,
		testMultipleUsers,
	} {
		tf(t, s)
		teardown()
	}
}

func testAddAndGetTokens(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	// Initially no tokens
	tokens, err := store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	// Add tokens for two devices
	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token1"))
	require.NoError(t, store.AddToken(ctx, "user1", "device2", push.TokenTypeFCMAndroid, "token2"))

	tokens, err = store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	tokenMap := make(map[string]push.Token)
	for _, token := range tokens {
		tokenMap[token.AppInstallID] = token
	}

	assert.Equal(t, "token1", tokenMap["device1"].Token)
	assert.Equal(t, push.TokenTypeFCMAPNS, tokenMap["device1"].Type)
	assert.Equal(t, "user1", tokenMap["device1"].UserID)
	assert.Equal(t, "token2", tokenMap["device2"].Token)
	assert.Equal(t, push.TokenTypeFCMAndroid, tokenMap["device2"].Type)
}

func testUpdateExistingToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token1"))
	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token2"))

	tokens, err := store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "token2", tokens[0].Token)
}

func testDeleteToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token1"))

	// Type must match
	require.NoError(t, store.DeleteToken(ctx, push.TokenTypeFCMAndroid, "token1"))
	tokens, err := store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	require.NoError(t, store.DeleteToken(ctx, push.TokenTypeFCMAPNS, "token1"))
	tokens, err = store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	// Deleting again is a no-op
	require.NoError(t, store.DeleteToken(ctx, push.TokenTypeFCMAPNS, "token1"))
}

func testClearToken(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token1"))
	require.NoError(t, store.AddToken(ctx, "user1", "device2", push.TokenTypeFCMAPNS, "token2"))
	require.NoError(t, store.AddToken(ctx, "user2", "device1", push.TokenTypeFCMAPNS, "token3"))

	require.NoError(t, store.ClearTokens(ctx, "user1"))

	tokens, err := store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	tokens, err = store.GetTokens(ctx, "user2")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func testMultipleUsers(t *testing.T, store push.TokenStore) {
	ctx := context.Background()

	require.NoError(t, store.AddToken(ctx, "user1", "device1", push.TokenTypeFCMAPNS, "token1"))
	require.NoError(t, store.AddToken(ctx, "user2", "device1", push.TokenTypeFCMAPNS, "token2"))
	require.NoError(t, store.AddToken(ctx, "user3", "device1", push.TokenTypeFCMAPNS, "token3"))

	tokens, err := store.GetTokens(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "token1", tokens[0].Token)

	tokens, err = store.GetTokens(ctx, "user2")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "token2", tokens[0].Token)

	tokens, err = store.GetTokensBatch(ctx, "user1", "user3", "missing")
	require.NoError(t, err)
	var values []string
	for _, token := range tokens {
		values = append(values, token.Token)
	}
	assert.ElementsMatch(t, []string{"token1", "token3"}, values)

	tokens, err = store.GetTokensBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
