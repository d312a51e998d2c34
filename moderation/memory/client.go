package memory

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/edel-social/edel-server/moderation"
)

type Client struct {
	flagged bool
	reason  string
	err     error
	delay   time.Duration

	// keywords, when set, flag only input containing one of them
	keywords []string

	calls atomic.Int64
}

// NewClient creates a new memory-based moderation client with a predetermined
// response.
func NewClient(flagged bool) *Client {
	return &Client{flagged: flagged}
}

// NewFlaggingClient always flags, reporting reason.
func NewFlaggingClient(reason string) *Client {
	return &Client{flagged: true, reason: reason}
}

// NewKeywordClient flags text or image URLs containing any of keywords,
// case-insensitively.
func NewKeywordClient(reason string, keywords ...string) *Client {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Client{flagged: true, reason: reason, keywords: lowered}
}

// NewFailingClient always fails with err, simulating a vendor outage.
func NewFailingClient(err error) *Client {
	return &Client{err: err}
}

// NewSlowClient answers after delay, or fails with the context error if the
// context is done first.
func NewSlowClient(flagged bool, delay time.Duration) *Client {
	return &Client{flagged: flagged, delay: delay}
}

// Calls returns the number of classification requests served.
func (c *Client) Calls() int {
	return int(c.calls.Load())
}

func (c *Client) ClassifyText(ctx context.Context, text string) (*moderation.Result, error) {
	return c.classify(ctx, text)
}

func (c *Client) ClassifyImage(ctx context.Context, url string) (*moderation.Result, error) {
	return c.classify(ctx, url)
}

func (c *Client) classify(ctx context.Context, input string) (*moderation.Result, error) {
	c.calls.Add(1)

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.err != nil {
		return nil, c.err
	}
	if len(c.keywords) > 0 && !c.matches(input) {
		return &moderation.Result{}, nil
	}
	return &moderation.Result{Flagged: c.flagged, Reason: c.reason}, nil
}

func (c *Client) matches(input string) bool {
	input = strings.ToLower(input)
	for _, k := range c.keywords {
		if strings.Contains(input, k) {
			return true
		}
	}
	return false
}
