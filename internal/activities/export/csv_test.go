package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

func act(t *testing.T, id, owner, project, start, end string) domain.Activity {
	t.Helper()
	w, err := domain.ParseTimeWindow(start, end)
	require.NoError(t, err)
	return domain.Activity{
		ID:          id,
		OwnerID:     owner,
		ProjectID:   project,
		Date:        domain.NewDate(2025, time.July, 1),
		Window:      w,
		Status:      domain.StatusSubmitted,
		Priority:    domain.PriorityLow,
		Description: "review, then \"ship\"",
	}
}

func TestDailyGroupsCSV(t *testing.T) {
	groups := dashboard.GroupByDate([]domain.Activity{
		act(t, "a", "u1", "P", "09:00", "10:30"),
		act(t, "b", "u1", "", "2:00 PM", "3:00 PM"),
	}, dashboard.OrderInput)

	var buf bytes.Buffer
	require.NoError(t, DailyGroupsCSV(&buf, groups))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, activityHeader, rows[0])
	assert.Equal(t, []string{"2025-07-01", "09:00", "10:30", "90", "submitted", "low", "P", "review, then \"ship\"", "", "", "a"}, rows[1])
	assert.Equal(t, "14:00", rows[2][1])
	assert.Equal(t, "", rows[2][6])
}

func TestDailyGroupsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DailyGroupsCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProjectSummariesCSV(t *testing.T) {
	summaries := dashboard.GroupByProjectThenUser([]domain.Activity{
		act(t, "a", "u1", "P", "09:00", "10:00"),
		act(t, "b", "u1", "P", "10:00", "11:00"),
		act(t, "c", "u2", "P", "09:00", "10:00"),
	})

	var buf bytes.Buffer
	require.NoError(t, ProjectSummariesCSV(&buf, summaries))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"3", "u1"}, rows[1][:2])
	assert.Equal(t, []string{"3", "u2"}, rows[3][:2])
	assert.Equal(t, "c", rows[3][len(rows[3])-1])
}
