package service

import (
	"context"

	"github.com/worklog-hq/worklog-backend/internal/activities/cache"
	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

func (s *ActivityService) referenceDate(date *domain.Date) domain.Date {
	if date != nil && !date.IsZero() {
		return *date
	}
	return s.Today()
}

// MyDashboard is ownerID's landing view for date (today when nil).
func (s *ActivityService) MyDashboard(ctx context.Context, ownerID string, date *domain.Date, scope dashboard.PendingScope) (dashboard.ContributorToday, error) {
	logger := NewLogger(ctx)
	ref := s.referenceDate(date)
	key := cache.Key("mine", ownerID, ref.String(), string(scope))

	var view dashboard.ContributorToday
	if s.cached(ctx, logger, key, &view) {
		return view, nil
	}

	acts, err := s.store.ListByOwners(ctx, []string{ownerID}, nil, nil)
	if err != nil {
		logger.LogErrorf("my_dashboard", "owner_id=%s error=%v", ownerID, err)
		return dashboard.ContributorToday{}, err
	}

	view = dashboard.BuildContributorToday(acts, ref, scope)
	s.remember(ctx, logger, key, []string{ownerID}, view)
	return view, nil
}

// DailyGroups lists ownerID's activities grouped per date.
func (s *ActivityService) DailyGroups(ctx context.Context, ownerID string, from, to *domain.Date, order dashboard.Order) ([]dashboard.DailyGroup, error) {
	acts, err := s.store.ListByOwners(ctx, []string{ownerID}, from, to)
	if err != nil {
		return nil, err
	}
	return dashboard.GroupByDate(acts, order), nil
}

// TeamDashboard computes statistics over supervisorID's supervisees.
func (s *ActivityService) TeamDashboard(ctx context.Context, supervisorID string, date *domain.Date, scope dashboard.PendingScope) (dashboard.Statistics, error) {
	logger := NewLogger(ctx)
	ref := s.referenceDate(date)
	key := cache.Key("team", supervisorID, ref.String(), string(scope))

	var stats dashboard.Statistics
	if s.cached(ctx, logger, key, &stats) {
		return stats, nil
	}

	ids, err := s.dir.SuperviseeIDs(ctx, supervisorID)
	if err != nil {
		logger.LogErrorf("team_dashboard", "supervisor_id=%s error=%v", supervisorID, err)
		return dashboard.Statistics{}, err
	}
	acts, err := s.store.ListByOwners(ctx, ids, nil, nil)
	if err != nil {
		logger.LogErrorf("team_dashboard", "supervisor_id=%s error=%v", supervisorID, err)
		return dashboard.Statistics{}, err
	}

	stats = dashboard.ComputeStatistics(acts, ref, scope)
	s.remember(ctx, logger, key, ids, stats)
	return stats, nil
}

// TeamToday groups the supervisees' work submitted on date by project and
// then by user.
func (s *ActivityService) TeamToday(ctx context.Context, supervisorID string, date *domain.Date) (dashboard.SupervisorToday, error) {
	ref := s.referenceDate(date)

	ids, err := s.dir.SuperviseeIDs(ctx, supervisorID)
	if err != nil {
		return dashboard.SupervisorToday{}, err
	}
	acts, err := s.store.ListByOwners(ctx, ids, &ref, &ref)
	if err != nil {
		return dashboard.SupervisorToday{}, err
	}
	return dashboard.BuildSupervisorToday(acts, ref), nil
}

// Digest summarises every owner's work submitted on date.
func (s *ActivityService) Digest(ctx context.Context, date domain.Date) ([]dashboard.ProjectSummary, error) {
	acts, err := s.store.ListSubmittedOn(ctx, date)
	if err != nil {
		return nil, err
	}
	return dashboard.GroupByProjectThenUser(acts), nil
}

func (s *ActivityService) cached(ctx context.Context, logger *Logger, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logger.LogWarnf("cache_get", "key=%s error=%v", key, err)
		return false
	}
	return hit
}

func (s *ActivityService) remember(ctx context.Context, logger *Logger, key string, ownerIDs []string, v any) {
	if err := s.cache.Set(ctx, key, ownerIDs, v); err != nil {
		logger.LogWarnf("cache_set", "key=%s error=%v", key, err)
	}
}
