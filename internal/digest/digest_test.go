package digest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

type fakeSource struct {
	today    domain.Date
	acts     []domain.Activity
	err      error
	askedFor []string
}

func (f *fakeSource) Digest(_ context.Context, date domain.Date) ([]dashboard.ProjectSummary, error) {
	f.askedFor = append(f.askedFor, date.String())
	if f.err != nil {
		return nil, f.err
	}
	return dashboard.GroupByProjectThenUser(f.acts), nil
}

func (f *fakeSource) Today() domain.Date { return f.today }

func submitted(t *testing.T, id, owner, project string) domain.Activity {
	t.Helper()
	w, err := domain.ParseTimeWindow("09:00", "10:00")
	require.NoError(t, err)
	return domain.Activity{
		ID: id, OwnerID: owner, ProjectID: project,
		Date: domain.NewDate(2025, time.June, 30), Window: w, Status: domain.StatusSubmitted,
	}
}

func TestJob_RunYesterday(t *testing.T) {
	src := &fakeSource{
		today: domain.NewDate(2025, time.July, 1),
		acts: []domain.Activity{
			submitted(t, "a", "u1", "P"),
			submitted(t, "b", "u2", ""),
		},
	}
	dir := filepath.Join(t.TempDir(), "out")

	path, err := NewJob(src, dir).RunYesterday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-30"}, src.askedFor)
	assert.Equal(t, filepath.Join(dir, "digest-2025-06-30.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "u1", rows[1][1])
	assert.Equal(t, "u2", rows[2][1])
}

func TestJob_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	_, err := NewJob(src, t.TempDir()).Run(context.Background(), domain.NewDate(2025, time.July, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestWriteFile_RemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest-2025-06-30.csv")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("project_activity_count,user_id\n"))
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("ok\n"))
		return err
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(b))
}

func TestScheduler(t *testing.T) {
	job := NewJob(&fakeSource{}, t.TempDir())

	bad := NewScheduler(job, "every night", nil)
	assert.Error(t, bad.Start())

	good := NewScheduler(job, "0 5 0 * * *", time.UTC)
	require.NoError(t, good.Start())
	<-good.Stop().Done()
}
