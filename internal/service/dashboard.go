package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
)

const defaultActivityLimit = 10

// DashboardService talks to the landing page endpoints
type DashboardService struct {
	backend *apiclient.Client
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(backend *apiclient.Client) *DashboardService {
	return &DashboardService{backend: backend}
}

// Overview returns the landing page summary
func (s *DashboardService) Overview(ctx context.Context) (models.DashboardOverview, error) {
	var overview models.DashboardOverview
	if err := getData(ctx, s.backend, "/dashboard/overview", nil, &overview); err != nil {
		return nil, err
	}
	return overview, nil
}

// Activity returns the most recent user actions; limit defaults to 10
func (s *DashboardService) Activity(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	var result struct {
		Activities []models.Activity `json:"activities"`
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := getData(ctx, s.backend, "/dashboard/activity", q, &result); err != nil {
		return nil, err
	}
	return result.Activities, nil
}
