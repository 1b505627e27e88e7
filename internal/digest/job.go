package digest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
	"github.com/worklog-hq/worklog-backend/internal/activities/export"
)

// Source yields the submitted work of a day, grouped by project then user.
type Source interface {
	Digest(ctx context.Context, date domain.Date) ([]dashboard.ProjectSummary, error)
	Today() domain.Date
}

// Job writes the daily digest of submitted activities.
type Job struct {
	src    Source
	outDir string
}

func NewJob(src Source, outDir string) *Job {
	return &Job{src: src, outDir: outDir}
}

// Run builds the digest for date, logs one line per project and writes
// digest-<date>.csv into the output directory. It returns the file path.
func (j *Job) Run(ctx context.Context, date domain.Date) (string, error) {
	summaries, err := j.src.Digest(ctx, date)
	if err != nil {
		return "", fmt.Errorf("build digest: %w", err)
	}

	total := 0
	for _, p := range summaries {
		project := p.ProjectID
		if project == "" {
			project = "(none)"
		}
		log.Printf("[info] digest date=%s project=%s activities=%d users=%d", date, project, p.ActivityCount, len(p.Users))
		total += p.ActivityCount
	}

	if err := os.MkdirAll(j.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create digest dir: %w", err)
	}
	path := filepath.Join(j.outDir, fmt.Sprintf("digest-%s.csv", date))

	err = writeFile(path, func(w io.Writer) error {
		return export.ProjectSummariesCSV(w, summaries)
	})
	if err != nil {
		return "", err
	}

	log.Printf("[info] digest date=%s projects=%d activities=%d file=%s", date, len(summaries), total, path)
	return path, nil
}

// RunYesterday runs the digest for the day before the source's today.
func (j *Job) RunYesterday(ctx context.Context) (string, error) {
	return j.Run(ctx, j.src.Today().AddDays(-1))
}

// writeFile creates path and fills it with write. A failed write or close
// removes the partial file.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create digest file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write digest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close digest file: %w", err)
	}
	return nil
}
