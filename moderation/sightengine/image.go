package sightengine

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/edel-social/edel-server/moderation"
)

const (
	SexualThreshold    = 0.5
	WeaponThreshold    = 0.7
	OffensiveThreshold = 0.6
	GoreThreshold      = 0.5
)

const (
	ReasonSexual    = "image contains sexual content or nudity"
	ReasonWeapon    = "image contains weapons"
	ReasonOffensive = "image contains offensive content"
	ReasonGore      = "image contains violent or gore content"
)

type ImageResponse struct {
	Status string    `json:"status"`
	Error  *apiError `json:"error"`

	Nudity struct {
		SexualActivity float64 `json:"sexual_activity"`
		SexualDisplay  float64 `json:"sexual_display"`
	} `json:"nudity"`

	// Weapon is decoded lazily since only the numeric form is understood. A
	// non-numeric value fails the check once evaluation reaches it.
	Weapon json.RawMessage `json:"weapon"`

	Offensive struct {
		Prob float64 `json:"prob"`
	} `json:"offensive"`
	Gore struct {
		Prob float64 `json:"prob"`
	} `json:"gore"`
}

type category struct {
	reason  string
	exceeds func(r *ImageResponse) (bool, error)
}

var categories = []category{
	{
		reason: ReasonSexual,
		exceeds: func(r *ImageResponse) (bool, error) {
			return r.Nudity.SexualActivity > SexualThreshold || r.Nudity.SexualDisplay > SexualThreshold, nil
		},
	},
	{
		reason: ReasonWeapon,
		exceeds: func(r *ImageResponse) (bool, error) {
			if len(r.Weapon) == 0 || string(r.Weapon) == "null" {
				return false, nil
			}
			var prob float64
			if err := json.Unmarshal(r.Weapon, &prob); err != nil {
				return false, errors.Wrap(err, "unexpected weapon score")
			}
			return prob > WeaponThreshold, nil
		},
	},
	{
		reason: ReasonOffensive,
		exceeds: func(r *ImageResponse) (bool, error) {
			return r.Offensive.Prob > OffensiveThreshold, nil
		},
	},
	{
		reason: ReasonGore,
		exceeds: func(r *ImageResponse) (bool, error) {
			return r.Gore.Prob > GoreThreshold, nil
		},
	},
}

// Evaluate applies the category thresholds in order, stopping at the first
// one exceeded. Missing scores count as zero.
func Evaluate(r *ImageResponse) (*moderation.Result, error) {
	for _, c := range categories {
		exceeded, err := c.exceeds(r)
		if err != nil {
			return nil, err
		}
		if exceeded {
			return &moderation.Result{Flagged: true, Reason: c.reason}, nil
		}
	}
	return &moderation.Result{Flagged: false}, nil
}
