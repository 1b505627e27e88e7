package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

func TestActivityMetrics(t *testing.T) {
	m := ActivityMetrics{}

	before := testutil.ToFloat64(validationRejections.WithLabelValues("past_date"))
	m.Rejected("past_date")
	m.Rejected("")
	assert.Equal(t, before+1, testutil.ToFloat64(validationRejections.WithLabelValues("past_date")))

	before = testutil.ToFloat64(transitions.WithLabelValues("completed", "submitted"))
	m.Transitioned(domain.StatusCompleted, domain.StatusSubmitted)
	assert.Equal(t, before+1, testutil.ToFloat64(transitions.WithLabelValues("completed", "submitted")))

	ok := testutil.ToFloat64(batchSubmit.WithLabelValues("succeeded"))
	failed := testutil.ToFloat64(batchSubmit.WithLabelValues("failed"))
	m.BatchOutcome(true)
	m.BatchOutcome(false)
	m.BatchOutcome(false)
	assert.Equal(t, ok+1, testutil.ToFloat64(batchSubmit.WithLabelValues("succeeded")))
	assert.Equal(t, failed+2, testutil.ToFloat64(batchSubmit.WithLabelValues("failed")))
}
