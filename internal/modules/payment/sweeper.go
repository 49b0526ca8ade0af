package payment

import (
	"context"
	"errors"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/logging"

	"go.uber.org/zap"
)

const defaultExpireAfter = 48 * time.Hour

type SweeperOptions struct {
	MinAge      time.Duration
	ExpireAfter time.Duration
	BatchSize   int
	Logger      *zap.Logger
}

// Sweeper polls unsettled orders so a payment whose verify call never
// arrived still reaches the ledger.
type Sweeper struct {
	orders      pendingOrders
	payments    confirmer
	minAge      time.Duration
	expireAfter time.Duration
	batchSize   int
	logger      *zap.Logger
	now         func() time.Time
}

type SweepResult struct {
	Checked int `json:"checked"`
	Settled int `json:"settled"`
	Pending int `json:"pending"`
	Expired int `json:"expired"`
	Errors  int `json:"errors"`
}

func NewSweeper(orders pendingOrders, payments confirmer, opts SweeperOptions) *Sweeper {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.ExpireAfter <= 0 {
		opts.ExpireAfter = defaultExpireAfter
	}
	return &Sweeper{
		orders:      orders,
		payments:    payments,
		minAge:      opts.MinAge,
		expireAfter: opts.ExpireAfter,
		batchSize:   opts.BatchSize,
		logger:      logging.OrNop(opts.Logger).Named("payment_sweeper"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	now := s.now()
	orders, err := s.orders.ListPendingOlderThan(ctx, now.Add(-s.minAge), s.batchSize)
	if err != nil {
		return res, err
	}

	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		_, err := s.payments.ConfirmPayment(ctx, o.OrderRef)
		switch {
		case err == nil:
			res.Settled++
		case errors.Is(err, ErrPaymentFailed):
			if now.Sub(o.CreatedAt) < s.expireAfter {
				res.Pending++
				continue
			}
			if err := s.orders.UpdateStatus(ctx, o.OrderRef, domain.PaymentOrderFailed, "expired", "unpaid past expiry"); err != nil {
				res.Errors++
				s.logger.Warn("expire payment order failed", zap.String("order_id", o.OrderRef), zap.Error(err))
				continue
			}
			res.Expired++
		case errors.Is(err, ErrDuplicatePayment):
			// settled by this call and already logged for refund
			res.Errors++
		case errors.Is(err, ErrReceiptNotFound), errors.Is(err, ErrAmountMismatch):
			// parked for manual reconciliation; the next sweep must not pick it up
			res.Errors++
			if err := s.orders.UpdateStatus(ctx, o.OrderRef, domain.PaymentOrderFailed, ProviderStatusPaid, err.Error()); err != nil {
				s.logger.Warn("park payment order failed", zap.String("order_id", o.OrderRef), zap.Error(err))
			}
		default:
			res.Errors++
			s.logger.Warn("payment reconciliation failed",
				zap.String("order_id", o.OrderRef),
				zap.String("appointment_id", o.AppointmentID),
				zap.Error(err),
			)
		}
	}

	if res.Checked > 0 {
		s.logger.Info("payment sweep finished",
			zap.Int("checked", res.Checked),
			zap.Int("settled", res.Settled),
			zap.Int("pending", res.Pending),
			zap.Int("expired", res.Expired),
			zap.Int("errors", res.Errors),
		)
	}
	return res, nil
}
