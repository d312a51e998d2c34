package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/s3/aws"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultProfileCacheTTL, cfg.ProfileCacheTTL)
	require.Equal(t, DefaultObjectBaseURL, cfg.ObjectBaseURL)
	require.Equal(t, moderation.DefaultTextTimeout, cfg.Moderation.TextTimeout)
	require.Equal(t, moderation.DefaultImageTimeout, cfg.Moderation.ImageTimeout)

	require.False(t, cfg.UsePostgres())
	require.False(t, cfg.UseS3())
	require.False(t, cfg.UseFCM())

	cfg = Config{
		ListenAddress:           ":9000",
		DatabaseURL:             "postgres://localhost/edel",
		S3:                      aws.Config{Bucket: "uploads"},
		FirebaseCredentialsFile: "firebase.json",
	}.WithDefaults()

	require.Equal(t, ":9000", cfg.ListenAddress)
	require.True(t, cfg.UsePostgres())
	require.True(t, cfg.UseS3())
	require.True(t, cfg.UseFCM())
}
