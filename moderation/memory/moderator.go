package memory

import (
	"time"

	"go.uber.org/zap"

	"github.com/edel-social/edel-server/moderation"
)

// TextReason is the reason reported by moderators built with NewModerator.
const TextReason = "content contains inappropriate language or profanity"

// NewModerator returns a Moderator with text as its only text checker and
// image as its image checker. A nil image leaves image moderation
// unavailable.
func NewModerator(text, image *Client) *moderation.Moderator {
	checkers := []moderation.Checker{
		{
			Name:    moderation.CheckerPurgoMalum,
			Reason:  TextReason,
			Timeout: time.Second,
			Client:  text,
		},
	}

	var imageChecker *moderation.ImageChecker
	if image != nil {
		imageChecker = &moderation.ImageChecker{
			Name:    moderation.CheckerSightengine,
			Timeout: time.Second,
			Client:  image,
		}
	}

	return moderation.NewModerator(zap.NewNop(), checkers, imageChecker)
}
