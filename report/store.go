package report

import (
	"context"
	"errors"
	"slices"
	"time"
)

const MaxDescriptionLength = 500

const (
	ReasonSpam           = "spam"
	ReasonHarassment     = "harassment"
	ReasonViolence       = "violence"
	ReasonHateSpeech     = "hate_speech"
	ReasonMisinformation = "misinformation"
	ReasonOther          = "other"
)

const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusResolved = "resolved"
)

var (
	ValidReasons  = []string{ReasonSpam, ReasonHarassment, ReasonViolence, ReasonHateSpeech, ReasonMisinformation, ReasonOther}
	ValidStatuses = []string{StatusPending, StatusReviewed, StatusResolved}
)

var (
	ErrNotFound = errors.New("report not found")
	ErrExists   = errors.New("report already exists")
)

func IsValidReason(reason string) bool {
	return slices.Contains(ValidReasons, reason)
}

func IsValidStatus(status string) bool {
	return slices.Contains(ValidStatuses, status)
}

// IsReviewStatus reports whether a report can be moved to status. Reports
// never return to pending.
func IsReviewStatus(status string) bool {
	return status == StatusReviewed || status == StatusResolved
}

type Report struct {
	ID          string
	PostID      string
	ReporterID  string
	Reason      string
	Description string
	Status      string
	ReviewedAt  *time.Time
	ReviewedBy  string
	CreatedAt   time.Time
}

func (r *Report) Clone() *Report {
	cloned := *r
	if r.ReviewedAt != nil {
		reviewedAt := *r.ReviewedAt
		cloned.ReviewedAt = &reviewedAt
	}
	return &cloned
}

type Store interface {
	// CreateReport returns ErrExists if the reporter already reported the post.
	CreateReport(ctx context.Context, r *Report) error

	GetReport(ctx context.Context, id string) (*Report, error)

	// ListReports returns reports newest first. An empty status matches all
	// reports.
	ListReports(ctx context.Context, status string) ([]*Report, error)

	CountByStatus(ctx context.Context, status string) (int, error)

	// UpdateStatus records a review of the report by reviewerID.
	UpdateStatus(ctx context.Context, id, status, reviewerID string) (*Report, error)
}
