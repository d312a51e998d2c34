package moderation

import (
	"slices"
)

// ReasonImageModerationUnavailable is set on image verdicts when no image
// vendor is configured. The verdict is still safe.
const ReasonImageModerationUnavailable = "image moderation unavailable"

// Verdict is the aggregated outcome of a moderation request.
//
// IsSafe is true iff FlaggedBy is empty. Reason holds the message of the first
// checker, in pipeline order, that flagged the content.
type Verdict struct {
	IsSafe    bool     `json:"is_safe"`
	Reason    string   `json:"reason,omitempty"`
	FlaggedBy []string `json:"flagged_by"`
}

// NewVerdict returns a verdict with nothing flagged.
func NewVerdict() *Verdict {
	return &Verdict{
		IsSafe:    true,
		FlaggedBy: []string{},
	}
}

// Flag records that checker flagged the content. The reason is kept only if
// no earlier checker has set one.
func (v *Verdict) Flag(checker, reason string) {
	v.FlaggedBy = append(v.FlaggedBy, checker)
	if v.Reason == "" {
		v.Reason = reason
	}
	v.IsSafe = false
}

func (v *Verdict) Clone() *Verdict {
	return &Verdict{
		IsSafe:    v.IsSafe,
		Reason:    v.Reason,
		FlaggedBy: slices.Clone(v.FlaggedBy),
	}
}

func (v *Verdict) result() string {
	if v.IsSafe {
		return "safe"
	}
	return "flagged"
}
