package moderation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Checker names, in pipeline order. They are part of the public API since
// they are surfaced to clients through Verdict.FlaggedBy.
const (
	CheckerPurgoMalum      = "PurgoMalum"
	CheckerModerateContent = "ModerateContent"
	CheckerOpenAI          = "OpenAI"
	CheckerSightengine     = "Sightengine"
)

const defaultImageReason = "inappropriate image content"

// Service is what the HTTP layer depends on.
type Service interface {
	ModerateText(ctx context.Context, text string) *Verdict
	ModerateImage(ctx context.Context, imageURL string) *Verdict
}

// Checker is a single text moderation step.
type Checker struct {
	Name string

	// Reason is reported on the verdict when this is the first checker to flag.
	Reason string

	Timeout time.Duration
	Client  Client
}

// ImageChecker is the single image moderation step.
type ImageChecker struct {
	Name    string
	Timeout time.Duration
	Client  ImageClient
}

// Moderator aggregates the verdicts of an ordered list of checkers. Vendor
// failures never surface to callers; the failing checker counts as safe.
type Moderator struct {
	log      *zap.Logger
	checkers []Checker
	image    *ImageChecker
}

// NewModerator returns a Moderator running checkers in the order given. A nil
// image checker means image moderation is unavailable.
func NewModerator(log *zap.Logger, checkers []Checker, image *ImageChecker) *Moderator {
	return &Moderator{
		log:      log,
		checkers: checkers,
		image:    image,
	}
}

// Checkers returns the names of the enabled text checkers, in pipeline order.
func (m *Moderator) Checkers() []string {
	names := make([]string, len(m.checkers))
	for i, c := range m.checkers {
		names[i] = c.Name
	}
	return names
}

// ImageEnabled reports whether an image checker is configured.
func (m *Moderator) ImageEnabled() bool {
	return m.image != nil
}

// ModerateText runs every enabled checker concurrently. Results are collected
// by pipeline position so FlaggedBy and Reason do not depend on which vendor
// answers first.
func (m *Moderator) ModerateText(ctx context.Context, text string) *Verdict {
	flagged := make([]bool, len(m.checkers))

	var eg errgroup.Group
	for i, c := range m.checkers {
		eg.Go(func() error {
			flagged[i] = m.classifyText(ctx, c, text)
			return nil
		})
	}
	_ = eg.Wait()

	verdict := NewVerdict()
	for i, c := range m.checkers {
		if flagged[i] {
			verdict.Flag(c.Name, c.Reason)
		}
	}

	verdictCount.WithLabelValues("text", verdict.result()).Inc()
	if !verdict.IsSafe {
		m.log.Info("Text rejected by moderation",
			zap.Strings("flagged_by", verdict.FlaggedBy),
			zap.String("reason", verdict.Reason),
		)
	}

	return verdict
}

func (m *Moderator) classifyText(ctx context.Context, c Checker, text string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	result, err := c.Client.ClassifyText(ctx, text)
	checkerDuration.WithLabelValues(c.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		checkerResults.WithLabelValues(c.Name, outcomeError).Inc()
		m.log.Warn("Moderation checker failed, treating content as safe",
			zap.String("checker", c.Name),
			zap.Error(err),
		)
		return false
	}
	if result == nil || !result.Flagged {
		checkerResults.WithLabelValues(c.Name, outcomeSafe).Inc()
		return false
	}

	checkerResults.WithLabelValues(c.Name, outcomeFlagged).Inc()
	m.log.Debug("Moderation checker flagged text",
		zap.String("checker", c.Name),
		zap.String("category", result.Reason),
	)
	return true
}

// ModerateImage classifies the image at imageURL. Without an image checker the
// verdict is safe with ReasonImageModerationUnavailable.
func (m *Moderator) ModerateImage(ctx context.Context, imageURL string) *Verdict {
	if m.image == nil {
		m.log.Warn("Image moderation unavailable, image was not checked", zap.String("url", imageURL))
		verdictCount.WithLabelValues("image", "unavailable").Inc()
		return &Verdict{
			IsSafe:    true,
			Reason:    ReasonImageModerationUnavailable,
			FlaggedBy: []string{},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, m.image.Timeout)
	defer cancel()

	verdict := NewVerdict()

	start := time.Now()
	result, err := m.image.Client.ClassifyImage(ctx, imageURL)
	checkerDuration.WithLabelValues(m.image.Name).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		checkerResults.WithLabelValues(m.image.Name, outcomeError).Inc()
		m.log.Warn("Image moderation failed, treating image as safe",
			zap.String("checker", m.image.Name),
			zap.String("url", imageURL),
			zap.Error(err),
		)
	case result != nil && result.Flagged:
		reason := result.Reason
		if reason == "" {
			reason = defaultImageReason
		}

		checkerResults.WithLabelValues(m.image.Name, outcomeFlagged).Inc()
		verdict.Flag(m.image.Name, reason)
		m.log.Info("Image rejected by moderation",
			zap.String("url", imageURL),
			zap.String("reason", reason),
		)
	default:
		checkerResults.WithLabelValues(m.image.Name, outcomeSafe).Inc()
	}

	verdictCount.WithLabelValues("image", verdict.result()).Inc()
	return verdict
}
