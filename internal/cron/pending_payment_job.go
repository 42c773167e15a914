package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultPendingPaymentTTL = time.Hour
	pendingPaymentBatchSize  = 100
	pendingPaymentMaxBatches = 20
)

type pendingPaymentExpirer interface {
	ExpirePendingPayments(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PendingPaymentJobParams configure the job that releases abandoned online payments.
type PendingPaymentJobParams struct {
	Logger    *logger.Logger
	Checkout  pendingPaymentExpirer
	TTL       time.Duration
	BatchSize int
}

// NewPendingPaymentJob builds the job that compensates online orders left unpaid past the TTL.
func NewPendingPaymentJob(params PendingPaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = pendingPaymentBatchSize
	}
	return &pendingPaymentJob{
		logg:     params.Logger,
		checkout: params.Checkout,
		ttl:      ttl,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type pendingPaymentJob struct {
	logg     *logger.Logger
	checkout pendingPaymentExpirer
	ttl      time.Duration
	batch    int
	now      func() time.Time
}

func (j *pendingPaymentJob) Name() string { return "pending-payment-expiry" }

// Run drains expired orders batch by batch. A batch that released fewer orders
// than its size ends the run; settled or in-flight payments are not counted.
func (j *pendingPaymentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for i := 0; i < pendingPaymentMaxBatches; i++ {
		n, err := j.checkout.ExpirePendingPayments(ctx, cutoff, j.batch)
		total += n
		if err != nil {
			return fmt.Errorf("expire pending payments: %w", err)
		}
		if n < j.batch {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
	})
	j.logg.Info(logCtx, "pending payment expiry complete")
	return nil
}
