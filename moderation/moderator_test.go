package moderation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/moderation/memory"
)

func checker(name string, client moderation.Client) moderation.Checker {
	return moderation.Checker{
		Name:    name,
		Reason:  "flagged by " + name,
		Timeout: time.Second,
		Client:  client,
	}
}

func TestModerateText_AllSafe(t *testing.T) {
	m := moderation.NewModerator(zap.NewNop(), []moderation.Checker{
		checker(moderation.CheckerPurgoMalum, memory.NewClient(false)),
		checker(moderation.CheckerModerateContent, memory.NewClient(false)),
		checker(moderation.CheckerOpenAI, memory.NewClient(false)),
		checker(moderation.CheckerSightengine, memory.NewClient(false)),
	}, nil)

	verdict := m.ModerateText(context.Background(), "hello world")
	require.True(t, verdict.IsSafe)
	require.Empty(t, verdict.Reason)
	require.NotNil(t, verdict.FlaggedBy)
	require.Empty(t, verdict.FlaggedBy)
}

func TestModerateText_FirstFlaggerReason(t *testing.T) {
	m := moderation.NewModerator(zap.NewNop(), []moderation.Checker{
		checker(moderation.CheckerPurgoMalum, memory.NewClient(false)),
		checker(moderation.CheckerModerateContent, memory.NewClient(true)),
		checker(moderation.CheckerOpenAI, memory.NewClient(false)),
		checker(moderation.CheckerSightengine, memory.NewClient(true)),
	}, nil)

	verdict := m.ModerateText(context.Background(), "something nasty")
	require.False(t, verdict.IsSafe)
	require.Equal(t, "flagged by ModerateContent", verdict.Reason)
	require.Equal(t, []string{moderation.CheckerModerateContent, moderation.CheckerSightengine}, verdict.FlaggedBy)
}

func TestModerateText_VendorCategoryLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	m := moderation.NewModerator(zap.New(core), []moderation.Checker{
		checker(moderation.CheckerPurgoMalum, memory.NewClient(false)),
		checker(moderation.CheckerOpenAI, memory.NewFlaggingClient("violence")),
	}, nil)

	verdict := m.ModerateText(context.Background(), "something nasty")
	require.Equal(t, "flagged by OpenAI", verdict.Reason)

	entries := logs.FilterMessage("Moderation checker flagged text").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, moderation.CheckerOpenAI, fields["checker"])
	require.Equal(t, "violence", fields["category"])
}

func TestModerateText_PipelineOrderIndependentOfCompletion(t *testing.T) {
	// The first checker answers last.
	m := moderation.NewModerator(zap.NewNop(), []moderation.Checker{
		checker(moderation.CheckerPurgoMalum, memory.NewSlowClient(true, 100*time.Millisecond)),
		checker(moderation.CheckerModerateContent, memory.NewClient(true)),
		checker(moderation.CheckerOpenAI, memory.NewSlowClient(true, 50*time.Millisecond)),
	}, nil)

	verdict := m.ModerateText(context.Background(), "something nasty")
	require.Equal(t, "flagged by PurgoMalum", verdict.Reason)
	require.Equal(t, []string{
		moderation.CheckerPurgoMalum,
		moderation.CheckerModerateContent,
		moderation.CheckerOpenAI,
	}, verdict.FlaggedBy)
}

func TestModerateText_FailOpen(t *testing.T) {
	down := memory.NewFailingClient(errors.New("connection refused"))

	m := moderation.NewModerator(zap.NewNop(), []moderation.Checker{
		checker(moderation.CheckerPurgoMalum, down),
		checker(moderation.CheckerOpenAI, down),
	}, nil)

	verdict := m.ModerateText(context.Background(), "anything")
	require.True(t, verdict.IsSafe)
	require.Empty(t, verdict.FlaggedBy)
	require.Equal(t, 2, down.Calls())
}

func TestModerateText_TimeoutFailsOpen(t *testing.T) {
	m := moderation.NewModerator(zap.NewNop(), []moderation.Checker{
		{
			Name:    moderation.CheckerPurgoMalum,
			Reason:  "profanity",
			Timeout: 10 * time.Millisecond,
			Client:  memory.NewSlowClient(true, time.Second),
		},
		checker(moderation.CheckerOpenAI, memory.NewClient(true)),
	}, nil)

	start := time.Now()
	verdict := m.ModerateText(context.Background(), "anything")
	require.Less(t, time.Since(start), 500*time.Millisecond)

	require.False(t, verdict.IsSafe)
	require.Equal(t, []string{moderation.CheckerOpenAI}, verdict.FlaggedBy)
	require.Equal(t, "flagged by OpenAI", verdict.Reason)
}

func TestModerateText_NoCheckers(t *testing.T) {
	m := moderation.NewModerator(zap.NewNop(), nil, nil)

	verdict := m.ModerateText(context.Background(), "anything")
	require.True(t, verdict.IsSafe)
	require.Empty(t, verdict.FlaggedBy)
}

func TestModerateImage_Unavailable(t *testing.T) {
	m := moderation.NewModerator(zap.NewNop(), nil, nil)

	verdict := m.ModerateImage(context.Background(), "https://example.com/a.jpg")
	require.True(t, verdict.IsSafe)
	require.Equal(t, moderation.ReasonImageModerationUnavailable, verdict.Reason)
	require.Equal(t, []string{}, verdict.FlaggedBy)
}

func TestModerateImage(t *testing.T) {
	image := func(client moderation.ImageClient) *moderation.ImageChecker {
		return &moderation.ImageChecker{
			Name:    moderation.CheckerSightengine,
			Timeout: time.Second,
			Client:  client,
		}
	}

	t.Run("flagged", func(t *testing.T) {
		m := moderation.NewModerator(zap.NewNop(), nil, image(memory.NewFlaggingClient("image contains weapons")))

		verdict := m.ModerateImage(context.Background(), "https://example.com/a.jpg")
		require.False(t, verdict.IsSafe)
		require.Equal(t, "image contains weapons", verdict.Reason)
		require.Equal(t, []string{moderation.CheckerSightengine}, verdict.FlaggedBy)
	})

	t.Run("flagged without reason", func(t *testing.T) {
		m := moderation.NewModerator(zap.NewNop(), nil, image(memory.NewClient(true)))

		verdict := m.ModerateImage(context.Background(), "https://example.com/a.jpg")
		require.False(t, verdict.IsSafe)
		require.NotEmpty(t, verdict.Reason)
	})

	t.Run("safe", func(t *testing.T) {
		m := moderation.NewModerator(zap.NewNop(), nil, image(memory.NewClient(false)))

		verdict := m.ModerateImage(context.Background(), "https://example.com/a.jpg")
		require.True(t, verdict.IsSafe)
		require.Empty(t, verdict.Reason)
		require.Empty(t, verdict.FlaggedBy)
	})

	t.Run("vendor failure", func(t *testing.T) {
		m := moderation.NewModerator(zap.NewNop(), nil, image(memory.NewFailingClient(errors.New("timeout"))))

		verdict := m.ModerateImage(context.Background(), "https://example.com/a.jpg")
		require.True(t, verdict.IsSafe)
		require.Empty(t, verdict.FlaggedBy)
	})
}

func TestVerdict_JSON(t *testing.T) {
	b, err := json.Marshal(moderation.NewVerdict())
	require.NoError(t, err)
	require.JSONEq(t, `{"is_safe":true,"flagged_by":[]}`, string(b))

	v := moderation.NewVerdict()
	v.Flag(moderation.CheckerPurgoMalum, "first")
	v.Flag(moderation.CheckerOpenAI, "second")

	b, err = json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"is_safe":false,"reason":"first","flagged_by":["PurgoMalum","OpenAI"]}`, string(b))

	clone := v.Clone()
	clone.FlaggedBy[0] = "changed"
	require.Equal(t, moderation.CheckerPurgoMalum, v.FlaggedBy[0])
}

func TestConfig_Enabled(t *testing.T) {
	require.Equal(t, moderation.Enablement{PurgoMalum: true}, moderation.Config{}.Enabled())
	require.Equal(t, moderation.Enablement{PurgoMalum: true, Sightengine: true}, moderation.Config{
		SightengineAPIUser:   "u",
		SightengineAPISecret: "s",
	}.Enabled())

	cfg := moderation.Config{}.WithDefaults()
	require.Equal(t, moderation.DefaultTextTimeout, cfg.TextTimeout)
	require.Equal(t, moderation.DefaultSightengineTextTimeout, cfg.SightengineTextTimeout)
	require.Equal(t, moderation.DefaultImageTimeout, cfg.ImageTimeout)
}
