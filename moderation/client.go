package moderation

import (
	"context"
)

// Client classifies text against a single moderation vendor.
type Client interface {
	ClassifyText(ctx context.Context, text string) (*Result, error)
}

// ImageClient classifies an already uploaded image, referenced by URL.
type ImageClient interface {
	ClassifyImage(ctx context.Context, url string) (*Result, error)
}

// Shared moderation result structure
type Result struct {
	Flagged bool `json:"flagged"`

	// Reason is an optional vendor specific explanation, such as the image
	// category that triggered.
	Reason string `json:"reason,omitempty"`
}
