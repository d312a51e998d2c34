package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edel-social/edel-server/report"
)

type memory struct {
	sync.Mutex

	reports map[string]*report.Report
}

func NewInMemory() report.Store {
	return &memory{
		reports: make(map[string]*report.Report),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.reports = make(map[string]*report.Report)
}

func (m *memory) CreateReport(_ context.Context, r *report.Report) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.reports[r.ID]; ok {
		return report.ErrExists
	}
	for _, existing := range m.reports {
		if existing.PostID == r.PostID && existing.ReporterID == r.ReporterID {
			return report.ErrExists
		}
	}

	m.reports[r.ID] = r.Clone()
	return nil
}

func (m *memory) GetReport(_ context.Context, id string) (*report.Report, error) {
	m.Lock()
	defer m.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *memory) ListReports(_ context.Context, status string) ([]*report.Report, error) {
	m.Lock()
	defer m.Unlock()

	var reports []*report.Report
	for _, r := range m.reports {
		if status == "" || r.Status == status {
			reports = append(reports, r.Clone())
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return reports, nil
}

func (m *memory) CountByStatus(_ context.Context, status string) (int, error) {
	m.Lock()
	defer m.Unlock()

	var count int
	for _, r := range m.reports {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memory) UpdateStatus(_ context.Context, id, status, reviewerID string) (*report.Report, error) {
	m.Lock()
	defer m.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}

	now := time.Now()
	r.Status = status
	r.ReviewedAt = &now
	r.ReviewedBy = reviewerID
	return r.Clone(), nil
}
