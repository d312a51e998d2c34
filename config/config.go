// Package config collects the settings the server is started with.
package config

import (
	"time"

	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/s3/aws"
)

const (
	DefaultListenAddress   = ":8000"
	DefaultProfileCacheTTL = time.Minute
	DefaultObjectBaseURL   = "http://localhost:8000/objects/"
)

type Config struct {
	ListenAddress string
	Debug         bool

	JWTSecret string
	TokenTTL  time.Duration

	// DatabaseURL selects the postgres stores. Empty uses in-memory stores.
	DatabaseURL string

	// S3 stores uploads in a bucket. An empty bucket keeps uploads in memory
	// and serves them under ObjectBaseURL.
	S3            aws.Config
	ObjectBaseURL string

	// FirebaseCredentialsFile enables FCM pushes. Empty disables them.
	FirebaseCredentialsFile string

	ProfileCacheTTL time.Duration

	Moderation moderation.Config
}

func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func (c Config) UseS3() bool {
	return c.S3.Bucket != ""
}

func (c Config) UseFCM() bool {
	return c.FirebaseCredentialsFile != ""
}

// WithDefaults fills in unset optional values.
func (c Config) WithDefaults() Config {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.ProfileCacheTTL <= 0 {
		c.ProfileCacheTTL = DefaultProfileCacheTTL
	}
	if c.ObjectBaseURL == "" {
		c.ObjectBaseURL = DefaultObjectBaseURL
	}
	c.Moderation = c.Moderation.WithDefaults()
	return c
}
