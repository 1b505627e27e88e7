package http

import (
	"time"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
)

// Handler bundles the dependencies for activity HTTP endpoints.
type Handler struct {
	svc *service.ActivityService
}

func New(svc *service.ActivityService) *Handler {
	return &Handler{svc: svc}
}

type createReq struct {
	Date         string `json:"date"`
	HoraInicio   string `json:"hora_inicio"`
	HoraFin      string `json:"hora_fin"`
	ProjectID    string `json:"project_id"`
	Priority     string `json:"priority"`
	Description  string `json:"description"`
	Observations string `json:"observations"`
	Results      string `json:"results"`
	Draft        bool   `json:"draft"`
}

type updateReq struct {
	Date         *string `json:"date"`
	HoraInicio   *string `json:"hora_inicio"`
	HoraFin      *string `json:"hora_fin"`
	ProjectID    *string `json:"project_id"`
	Priority     *string `json:"priority"`
	Description  *string `json:"description"`
	Observations *string `json:"observations"`
	Results      *string `json:"results"`
	Status       *string `json:"status"`
}

type batchSubmitReq struct {
	IDs []string `json:"ids"`
}

type activityView struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Date         string    `json:"date"`
	HoraInicio   string    `json:"hora_inicio"`
	HoraFin      string    `json:"hora_fin"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority,omitempty"`
	Description  string    `json:"description"`
	Observations string    `json:"observations,omitempty"`
	Results      string    `json:"results,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toActivityView(a domain.Activity) activityView {
	return activityView{
		ID:           a.ID,
		OwnerID:      a.OwnerID,
		ProjectID:    a.ProjectID,
		Date:         a.Date.String(),
		HoraInicio:   a.Window.Start.String(),
		HoraFin:      a.Window.End.String(),
		Status:       string(a.Status),
		Priority:     string(a.Priority),
		Description:  a.Description,
		Observations: a.Observations,
		Results:      a.Results,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toActivityViews(acts []domain.Activity) []activityView {
	out := make([]activityView, 0, len(acts))
	for _, a := range acts {
		out = append(out, toActivityView(a))
	}
	return out
}

type statsView struct {
	ReferenceDate      string `json:"reference_date"`
	PendingScope       string `json:"pending_scope"`
	ActivitiesToday    int    `json:"activities_today"`
	PendingCount       int    `json:"pending_count"`
	CompletedCount     int    `json:"completed_count"`
	ActiveProjectCount int    `json:"active_project_count"`
	ActiveUsersToday   int    `json:"active_users_today"`
	CompletionRate     int    `json:"completion_rate"`
}

func toStatsView(s dashboard.Statistics) statsView {
	return statsView{
		ReferenceDate:      s.ReferenceDate.String(),
		PendingScope:       string(s.PendingScope),
		ActivitiesToday:    s.ActivitiesToday,
		PendingCount:       s.PendingCount,
		CompletedCount:     s.CompletedCount,
		ActiveProjectCount: s.ActiveProjectCount,
		ActiveUsersToday:   s.ActiveUsersToday,
		CompletionRate:     s.CompletionRate,
	}
}

type dailyGroupView struct {
	Date       string         `json:"date"`
	Activities []activityView `json:"activities"`
}

func toDailyGroupViews(groups []dashboard.DailyGroup) []dailyGroupView {
	out := make([]dailyGroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, dailyGroupView{Date: g.Date.String(), Activities: toActivityViews(g.Activities)})
	}
	return out
}

type userGroupView struct {
	UserID     string         `json:"user_id"`
	Activities []activityView `json:"activities"`
}

type projectSummaryView struct {
	ProjectID     string          `json:"project_id"`
	ActivityCount int             `json:"activity_count"`
	Users         []userGroupView `json:"users"`
}

func toProjectSummaryViews(summaries []dashboard.ProjectSummary) []projectSummaryView {
	out := make([]projectSummaryView, 0, len(summaries))
	for _, p := range summaries {
		users := make([]userGroupView, 0, len(p.Users))
		for _, u := range p.Users {
			users = append(users, userGroupView{UserID: u.UserID, Activities: toActivityViews(u.Activities)})
		}
		out = append(out, projectSummaryView{ProjectID: p.ProjectID, ActivityCount: p.ActivityCount, Users: users})
	}
	return out
}

type batchFailureView struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
