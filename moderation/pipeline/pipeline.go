// Package pipeline assembles the moderation checkers from configuration.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/moderation/moderatecontent"
	"github.com/edel-social/edel-server/moderation/openai"
	"github.com/edel-social/edel-server/moderation/purgomalum"
	"github.com/edel-social/edel-server/moderation/sightengine"
)

// Reasons reported when a checker is the first to flag text.
const (
	ReasonPurgoMalum      = "content contains inappropriate language or profanity"
	ReasonModerateContent = "inappropriate content detected by ModerateContent"
	ReasonOpenAI          = "inappropriate content detected by OpenAI"
	ReasonSightengine     = "inappropriate content detected by Sightengine"
)

// New builds a Moderator from cfg. The set of enabled checkers is fixed for
// the lifetime of the returned Moderator.
func New(log *zap.Logger, cfg moderation.Config) *moderation.Moderator {
	cfg = cfg.WithDefaults()
	enabled := cfg.Enabled()

	var checkers []moderation.Checker
	var image *moderation.ImageChecker

	if enabled.PurgoMalum {
		checkers = append(checkers, moderation.Checker{
			Name:    moderation.CheckerPurgoMalum,
			Reason:  ReasonPurgoMalum,
			Timeout: cfg.TextTimeout,
			Client:  purgomalum.NewClient(cfg.PurgoMalumURL),
		})
	}

	if enabled.ModerateContent {
		checkers = append(checkers, moderation.Checker{
			Name:    moderation.CheckerModerateContent,
			Reason:  ReasonModerateContent,
			Timeout: cfg.TextTimeout,
			Client:  moderatecontent.NewClient(cfg.ModerateContentAPIKey, cfg.ModerateContentURL),
		})
	}

	if enabled.OpenAI {
		checkers = append(checkers, moderation.Checker{
			Name:    moderation.CheckerOpenAI,
			Reason:  ReasonOpenAI,
			Timeout: cfg.TextTimeout,
			Client:  openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIURL),
		})
	}

	if enabled.Sightengine {
		client := sightengine.NewClient(log.Named("sightengine"), cfg.SightengineAPIUser, cfg.SightengineAPISecret, cfg.SightengineURL)

		checkers = append(checkers, moderation.Checker{
			Name:    moderation.CheckerSightengine,
			Reason:  ReasonSightengine,
			Timeout: cfg.SightengineTextTimeout,
			Client:  client,
		})
		image = &moderation.ImageChecker{
			Name:    moderation.CheckerSightengine,
			Timeout: cfg.ImageTimeout,
			Client:  client,
		}
	}

	log.Info("Moderation pipeline configured",
		zap.Bool("purgomalum", enabled.PurgoMalum),
		zap.Bool("moderatecontent", enabled.ModerateContent),
		zap.Bool("openai", enabled.OpenAI),
		zap.Bool("sightengine", enabled.Sightengine),
	)

	return moderation.NewModerator(log, checkers, image)
}
