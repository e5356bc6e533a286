package cron

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/engine"
	"github.com/01101001raj/dms-backend/pkg/logger"
	"github.com/01101001raj/dms-backend/pkg/metrics"
)

const (
	totalsAuditPageSize  = 200
	totalsAuditTolerance = 0.005
)

type orderAuditRepo interface {
	ListPage(ctx context.Context, offset, limit int) ([]models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type catalogAuditSource interface {
	Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error)
}

// TotalsAuditJobParams configure the totals audit job.
type TotalsAuditJobParams struct {
	Logger   *logger.Logger
	Orders   orderAuditRepo
	Catalog  catalogAuditSource
	Metrics  *metrics.EngineMetrics
	PageSize int
}

// NewTotalsAuditJob builds the job that recomputes every stored order
// total from its persisted item list and flags divergence. Stored
// totals must always be re-derivable from the lines; a mismatch means
// either data corruption or an engine regression.
func NewTotalsAuditJob(params TotalsAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = totalsAuditPageSize
	}
	return &totalsAuditJob{
		logg:     params.Logger,
		orders:   params.Orders,
		catalog:  params.Catalog,
		metrics:  params.Metrics,
		pageSize: pageSize,
	}, nil
}

type totalsAuditJob struct {
	logg     *logger.Logger
	orders   orderAuditRepo
	catalog  catalogAuditSource
	metrics  *metrics.EngineMetrics
	pageSize int
}

func (j *totalsAuditJob) Name() string { return "order-totals-audit" }

func (j *totalsAuditJob) Run(ctx context.Context) error {
	// GST rates are global, so one base-catalog snapshot serves the
	// whole sweep; frozen unit prices come from the lines themselves.
	catalog, _, err := j.catalog.Snapshot(ctx, nil)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	var errs []error
	var audited, mismatched int
	for offset := 0; ; offset += j.pageSize {
		page, err := j.orders.ListPage(ctx, offset, j.pageSize)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, order := range page {
			items, err := j.orders.ListItems(ctx, order.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("listing items for %s: %w", order.ID, err))
				continue
			}
			audited++
			totals := engine.TotalsFromItems(items, catalog)
			if totals.Degenerate {
				j.incMismatch()
				mismatched++
				j.logg.Warn(j.logg.WithOrderID(ctx, order.ID.String()), "stored order has degenerate recomputed totals")
				continue
			}
			if math.Abs(totals.TotalAmount-order.TotalAmount) > totalsAuditTolerance {
				j.incMismatch()
				mismatched++
				logCtx := j.logg.WithOrderID(ctx, order.ID.String())
				logCtx = j.logg.WithField(logCtx, "stored_total", order.TotalAmount)
				logCtx = j.logg.WithField(logCtx, "recomputed_total", totals.TotalAmount)
				j.logg.Warn(logCtx, "stored order total diverges from item list")
			}
		}
		if len(page) < j.pageSize {
			break
		}
	}

	logCtx := j.logg.WithField(ctx, "audited", audited)
	logCtx = j.logg.WithField(logCtx, "mismatched", mismatched)
	j.logg.Info(logCtx, "order totals audit finished")
	return multierr.Combine(errs...)
}

func (j *totalsAuditJob) incMismatch() {
	if j.metrics == nil {
		return
	}
	j.metrics.IncTotalsMismatch()
}
