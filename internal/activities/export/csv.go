package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

var activityHeader = []string{
	"date", "hora_inicio", "hora_fin", "minutes", "status", "priority",
	"project_id", "description", "observations", "results", "id",
}

// DailyGroupsCSV writes one row per activity, grouped by date as given.
func DailyGroupsCSV(out io.Writer, groups []dashboard.DailyGroup) error {
	w := csv.NewWriter(out)

	if err := w.Write(activityHeader); err != nil {
		return err
	}
	for _, g := range groups {
		for _, a := range g.Activities {
			if err := w.Write(activityRow(a)); err != nil {
				return fmt.Errorf("write activity %s: %w", a.ID, err)
			}
		}
	}

	w.Flush()
	return w.Error()
}

// ProjectSummariesCSV writes the project / user breakdown of a digest, one
// row per activity.
func ProjectSummariesCSV(out io.Writer, summaries []dashboard.ProjectSummary) error {
	w := csv.NewWriter(out)

	header := append([]string{"project_activity_count", "user_id"}, activityHeader...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range summaries {
		count := strconv.Itoa(p.ActivityCount)
		for _, u := range p.Users {
			for _, a := range u.Activities {
				row := append([]string{count, u.UserID}, activityRow(a)...)
				if err := w.Write(row); err != nil {
					return fmt.Errorf("write activity %s: %w", a.ID, err)
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

func activityRow(a domain.Activity) []string {
	return []string{
		a.Date.String(),
		a.Window.Start.String(),
		a.Window.End.String(),
		strconv.Itoa(a.Window.Minutes()),
		string(a.Status),
		string(a.Priority),
		a.ProjectID,
		a.Description,
		a.Observations,
		a.Results,
		a.ID,
	}
}
