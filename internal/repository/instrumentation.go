package repository

import (
	"time"

	"github.com/auditops/auditops-backend/internal/pkg/metrics"
)

// instrumentQuery wraps a database operation with timing metrics. Only
// the audit pipeline paths are instrumented; request-scoped queries are
// already covered by the HTTP duration histogram.
func instrumentQuery(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	return err
}
