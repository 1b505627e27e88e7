// Package dashboard turns flat activity lists into the summaries shown on the
// reporting screens. Everything here is pure and deterministic; callers scope
// the input (own activities, supervisees' activities) before handing it over.
package dashboard

import (
	"math"
	"sort"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

// DailyGroup holds the activities of one calendar date.
type DailyGroup struct {
	Date       domain.Date
	Activities []domain.Activity
}

// Order is the secondary ordering applied inside a DailyGroup.
type Order int

const (
	// OrderInput keeps input order.
	OrderInput Order = iota
	// OrderPriority sorts by priority weight descending; ties keep input order.
	OrderPriority
	// OrderStartTime sorts by window start; ties keep input order.
	OrderStartTime
)

// GroupByDate buckets activities per date, dates ascending.
func GroupByDate(activities []domain.Activity, order Order) []DailyGroup {
	index := make(map[string]int)
	groups := make([]DailyGroup, 0)
	for _, a := range activities {
		i, ok := index[a.Date.String()]
		if !ok {
			i = len(groups)
			index[a.Date.String()] = i
			groups = append(groups, DailyGroup{Date: a.Date})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})

	for _, g := range groups {
		sortWithin(g.Activities, order)
	}
	return groups
}

func sortWithin(acts []domain.Activity, order Order) {
	switch order {
	case OrderPriority:
		sort.SliceStable(acts, func(i, j int) bool {
			return acts[i].Priority.Weight() > acts[j].Priority.Weight()
		})
	case OrderStartTime:
		sort.SliceStable(acts, func(i, j int) bool {
			return acts[i].Window.Start < acts[j].Window.Start
		})
	}
}

// UserGroup is one user's activities inside a project.
type UserGroup struct {
	UserID     string
	Activities []domain.Activity
}

// ProjectSummary nests per-user activity lists under a project. ProjectID is
// empty for activities that reference no project.
type ProjectSummary struct {
	ProjectID     string
	ActivityCount int
	Users         []UserGroup
}

// GroupByProjectThenUser builds one summary per referenced project, in order
// of first appearance, users likewise. Activities without a project are
// collected in a trailing summary. Nothing is padded: an empty input gives an
// empty result.
func GroupByProjectThenUser(activities []domain.Activity) []ProjectSummary {
	projectIdx := make(map[string]int)
	userIdx := make(map[string]map[string]int)
	out := make([]ProjectSummary, 0)

	for _, a := range activities {
		pi, ok := projectIdx[a.ProjectID]
		if !ok {
			pi = len(out)
			projectIdx[a.ProjectID] = pi
			userIdx[a.ProjectID] = make(map[string]int)
			out = append(out, ProjectSummary{ProjectID: a.ProjectID})
		}
		ps := &out[pi]
		ui, ok := userIdx[a.ProjectID][a.OwnerID]
		if !ok {
			ui = len(ps.Users)
			userIdx[a.ProjectID][a.OwnerID] = ui
			ps.Users = append(ps.Users, UserGroup{UserID: a.OwnerID})
		}
		ps.Users[ui].Activities = append(ps.Users[ui].Activities, a)
		ps.ActivityCount++
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProjectID != "" && out[j].ProjectID == ""
	})
	return out
}

// PendingScope says whether pending work is counted across all dates or only
// on the reference date.
type PendingScope string

const (
	PendingAllDates      PendingScope = "all"
	PendingReferenceDate PendingScope = "date"
)

// ParsePendingScope defaults to PendingAllDates.
func ParsePendingScope(s string) PendingScope {
	if PendingScope(s) == PendingReferenceDate {
		return PendingReferenceDate
	}
	return PendingAllDates
}

// Statistics is the headline block of a dashboard.
type Statistics struct {
	ReferenceDate      domain.Date
	PendingScope       PendingScope
	ActivitiesToday    int
	PendingCount       int
	CompletedCount     int
	ActiveProjectCount int
	ActiveUsersToday   int
	CompletionRate     int
}

// ComputeStatistics counts:
//   - ActivitiesToday: submitted activities dated referenceDate
//   - PendingCount: pending or in-progress activities within scope
//   - CompletionRate: completed / (completed + pending) as a rounded
//     percentage, 0 when both are zero
//   - ActiveUsersToday: distinct owners among ActivitiesToday
func ComputeStatistics(activities []domain.Activity, referenceDate domain.Date, scope PendingScope) Statistics {
	stats := Statistics{ReferenceDate: referenceDate, PendingScope: scope}
	projects := make(map[string]struct{})
	var todays []domain.Activity

	for _, a := range activities {
		inScope := scope != PendingReferenceDate || a.Date.Equal(referenceDate)
		switch a.Status {
		case domain.StatusSubmitted:
			if a.Date.Equal(referenceDate) {
				stats.ActivitiesToday++
				todays = append(todays, a)
			}
		case domain.StatusPending, domain.StatusInProgress:
			if inScope {
				stats.PendingCount++
			}
		case domain.StatusCompleted:
			if inScope {
				stats.CompletedCount++
			}
		}
		if a.Status != domain.StatusCancelled && a.HasProject() {
			projects[a.ProjectID] = struct{}{}
		}
	}

	stats.ActiveProjectCount = len(projects)
	stats.ActiveUsersToday = CountDistinctUsers(todays)
	stats.CompletionRate = CompletionRate(stats.CompletedCount, stats.PendingCount)
	return stats
}

// CompletionRate never divides by zero.
func CompletionRate(completed, pending int) int {
	total := completed + pending
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// CountDistinctUsers deduplicates by owner id.
func CountDistinctUsers(activities []domain.Activity) int {
	seen := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		seen[a.OwnerID] = struct{}{}
	}
	return len(seen)
}

// ContributorToday is what a contributor sees on their landing screen.
type ContributorToday struct {
	Date       domain.Date
	Activities []domain.Activity
	Stats      Statistics
}

// BuildContributorToday selects the reference date's activities ordered by
// start time and attaches statistics over the full input.
func BuildContributorToday(activities []domain.Activity, referenceDate domain.Date, scope PendingScope) ContributorToday {
	todays := make([]domain.Activity, 0)
	for _, a := range activities {
		if a.Date.Equal(referenceDate) {
			todays = append(todays, a)
		}
	}
	sortWithin(todays, OrderStartTime)
	return ContributorToday{
		Date:       referenceDate,
		Activities: todays,
		Stats:      ComputeStatistics(activities, referenceDate, scope),
	}
}

// SupervisorToday groups supervisees' submitted work for the reference date.
type SupervisorToday struct {
	Date        domain.Date
	Projects    []ProjectSummary
	ActiveUsers int
	Submitted   int
}

func BuildSupervisorToday(activities []domain.Activity, referenceDate domain.Date) SupervisorToday {
	submitted := make([]domain.Activity, 0)
	for _, a := range activities {
		if a.Status == domain.StatusSubmitted && a.Date.Equal(referenceDate) {
			submitted = append(submitted, a)
		}
	}
	return SupervisorToday{
		Date:        referenceDate,
		Projects:    GroupByProjectThenUser(submitted),
		ActiveUsers: CountDistinctUsers(submitted),
		Submitted:   len(submitted),
	}
}
