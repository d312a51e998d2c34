package moderation

import (
	"time"
)

const (
	DefaultTextTimeout            = 5 * time.Second
	DefaultSightengineTextTimeout = 10 * time.Second
	DefaultImageTimeout           = 15 * time.Second
)

// Config holds vendor credentials and per-call timeouts. A vendor without
// credentials is disabled, except PurgoMalum which needs none.
type Config struct {
	ModerateContentAPIKey string
	OpenAIAPIKey          string
	SightengineAPIUser    string
	SightengineAPISecret  string

	// Endpoint overrides. Empty means the vendor default.
	PurgoMalumURL      string
	ModerateContentURL string
	OpenAIURL          string
	SightengineURL     string

	TextTimeout            time.Duration
	SightengineTextTimeout time.Duration
	ImageTimeout           time.Duration
}

// Enablement is the set of checkers that participate in moderation. It is
// derived once, when the pipeline is built.
type Enablement struct {
	PurgoMalum      bool
	ModerateContent bool
	OpenAI          bool
	Sightengine     bool
}

func (c Config) Enabled() Enablement {
	return Enablement{
		PurgoMalum:      true,
		ModerateContent: c.ModerateContentAPIKey != "",
		OpenAI:          c.OpenAIAPIKey != "",
		Sightengine:     c.SightengineAPIUser != "" && c.SightengineAPISecret != "",
	}
}

// WithDefaults fills in zero timeouts.
func (c Config) WithDefaults() Config {
	if c.TextTimeout <= 0 {
		c.TextTimeout = DefaultTextTimeout
	}
	if c.SightengineTextTimeout <= 0 {
		c.SightengineTextTimeout = DefaultSightengineTextTimeout
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = DefaultImageTimeout
	}
	return c
}
