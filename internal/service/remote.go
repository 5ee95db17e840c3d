package service

import (
	"context"
	"time"

	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

// timedCall runs one remote operation under the operation timeout and records its duration.
func timedCall(ctx context.Context, metrics *MetricsService, timeout time.Duration, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := appErrors.WithTimeout(ctx, timeout, fn)
	metrics.ObserveDBQuery(name, time.Since(start))
	return err
}
