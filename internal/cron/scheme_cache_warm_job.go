package cron

import (
	"context"
	"fmt"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/logger"
	"github.com/01101001raj/dms-backend/pkg/types"
)

type schemeLister interface {
	LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error)
}

// SchemeCacheWarmJobParams configure the scheme cache warm job.
type SchemeCacheWarmJobParams struct {
	Logger  *logger.Logger
	Schemes schemeLister
}

// NewSchemeCacheWarmJob builds the job that primes the live-scheme cache
// for the current day, so the first order of the day does not pay the
// cold read.
func NewSchemeCacheWarmJob(params SchemeCacheWarmJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Schemes == nil {
		return nil, fmt.Errorf("scheme service required")
	}
	return &schemeCacheWarmJob{logg: params.Logger, schemes: params.Schemes}, nil
}

type schemeCacheWarmJob struct {
	logg    *logger.Logger
	schemes schemeLister
}

func (j *schemeCacheWarmJob) Name() string { return "scheme-cache-warm" }

func (j *schemeCacheWarmJob) Run(ctx context.Context) error {
	today := types.Today()
	live, err := j.schemes.LiveOn(ctx, today)
	if err != nil {
		return fmt.Errorf("warming scheme cache for %s: %w", today, err)
	}
	logCtx := j.logg.WithField(ctx, "date", today.String())
	logCtx = j.logg.WithField(logCtx, "live_schemes", len(live))
	j.logg.Info(logCtx, "scheme cache warmed")
	return nil
}
