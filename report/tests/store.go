package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/report"
)

func RunStoreTests(t *testing.T, s report.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s report.Store){
		testStore,
		testListReports,
	} {
		tf(t, s)
		teardown()
	}
}

func newReport(postID, reporterID string, createdAt time.Time) *report.Report {
	return &report.Report{
		ID:          model.MustGenerateID(),
		PostID:      postID,
		ReporterID:  reporterID,
		Reason:      report.ReasonSpam,
		Description: "buy now",
		Status:      report.StatusPending,
		CreatedAt:   createdAt.UTC().Truncate(time.Millisecond),
	}
}

func testStore(t *testing.T, s report.Store) {
	ctx := context.Background()

	postID := model.MustGenerateID()
	reporterID := model.MustGenerateID()
	adminID := model.MustGenerateID()

	r := newReport(postID, reporterID, time.Now())

	_, err := s.GetReport(ctx, r.ID)
	require.ErrorIs(t, err, report.ErrNotFound)

	_, err = s.UpdateStatus(ctx, r.ID, report.StatusReviewed, adminID)
	require.ErrorIs(t, err, report.ErrNotFound)

	require.NoError(t, s.CreateReport(ctx, r))

	stored, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.PostID, stored.PostID)
	require.Equal(t, r.ReporterID, stored.ReporterID)
	require.Equal(t, r.Reason, stored.Reason)
	require.Equal(t, r.Description, stored.Description)
	require.Equal(t, report.StatusPending, stored.Status)
	require.Nil(t, stored.ReviewedAt)
	require.Empty(t, stored.ReviewedBy)
	require.True(t, r.CreatedAt.Equal(stored.CreatedAt))

	// One report per post and reporter
	duplicate := newReport(postID, reporterID, time.Now())
	require.ErrorIs(t, s.CreateReport(ctx, duplicate), report.ErrExists)

	other := newReport(postID, model.MustGenerateID(), time.Now())
	require.NoError(t, s.CreateReport(ctx, other))

	updated, err := s.UpdateStatus(ctx, r.ID, report.StatusResolved, adminID)
	require.NoError(t, err)
	require.Equal(t, report.StatusResolved, updated.Status)
	require.Equal(t, adminID, updated.ReviewedBy)
	require.NotNil(t, updated.ReviewedAt)

	stored, err = s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, report.StatusResolved, stored.Status)
	require.Equal(t, adminID, stored.ReviewedBy)
	require.NotNil(t, stored.ReviewedAt)
}

func testListReports(t *testing.T, s report.Store) {
	ctx := context.Background()

	reports, err := s.ListReports(ctx, "")
	require.NoError(t, err)
	require.Empty(t, reports)

	count, err := s.CountByStatus(ctx, report.StatusPending)
	require.NoError(t, err)
	require.Zero(t, count)

	start := time.Now().Add(-time.Hour)
	var created []*report.Report
	for i := range 4 {
		r := newReport(model.MustGenerateID(), model.MustGenerateID(), start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.CreateReport(ctx, r))
		created = append(created, r)
	}

	_, err = s.UpdateStatus(ctx, created[1].ID, report.StatusReviewed, "admin")
	require.NoError(t, err)

	reports, err = s.ListReports(ctx, "")
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for i, r := range reports {
		require.Equal(t, created[len(created)-1-i].ID, r.ID)
	}

	reports, err = s.ListReports(ctx, report.StatusPending)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	require.Equal(t, created[3].ID, reports[0].ID)
	require.Equal(t, created[2].ID, reports[1].ID)
	require.Equal(t, created[0].ID, reports[2].ID)

	reports, err = s.ListReports(ctx, report.StatusReviewed)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, created[1].ID, reports[0].ID)

	count, err = s.CountByStatus(ctx, report.StatusPending)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	count, err = s.CountByStatus(ctx, report.StatusResolved)
	require.NoError(t, err)
	require.Zero(t, count)
}
