package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/metrics"
	"clinicbook/internal/repository"

	"go.uber.org/zap"
)

type Options struct {
	Cache    SettledCache
	Events   EventPublisher
	Metrics  *metrics.ReservationMetrics
	Logger   *zap.Logger
	Currency string
}

type Service struct {
	store    *repository.Store
	provider Provider
	cache    SettledCache
	events   EventPublisher
	metrics  *metrics.ReservationMetrics
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

func NewService(store *repository.Store, provider Provider, opts Options) *Service {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		store:    store,
		provider: provider,
		cache:    opts.Cache,
		events:   opts.Events,
		metrics:  opts.Metrics,
		logger:   logging.OrNop(opts.Logger).Named("payment"),
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Confirmation describes the outcome of a successful ConfirmPayment.
type Confirmation struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	OrderRef      string `json:"order_id"`
	AlreadyPaid   bool   `json:"already_paid"`
}

// CreatePaymentOrder opens a provider order for the appointment fee. The
// provider call runs outside any doctor lock.
func (s *Service) CreatePaymentOrder(ctx context.Context, actor domain.Actor, appointmentID string) (OrderRef, error) {
	if appointmentID == "" {
		return OrderRef{}, fmt.Errorf("%w: appointment id is required", domain.ErrValidation)
	}

	appt, err := s.store.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return OrderRef{}, err
	}
	if !actor.CanPay(appt) {
		return OrderRef{}, domain.ErrNotOwner
	}
	if appt.IsCancelled() {
		return OrderRef{}, ErrAlreadyCancelled
	}
	if appt.Paid {
		return OrderRef{}, ErrAlreadyPaid
	}
	if !appt.Amount.IsPositive() {
		return OrderRef{}, fmt.Errorf("%w: appointment has no amount to charge", domain.ErrValidation)
	}

	receipt := domain.ReceiptFor(appt.ID)
	amountMinor := domain.MinorUnits(appt.Amount)

	pending, err := s.openOrder(ctx, appt.ID, amountMinor)
	if err != nil {
		return OrderRef{}, err
	}
	if pending != nil {
		s.logger.Info("reusing open payment order",
			zap.String("order_id", pending.OrderRef),
			zap.String("appointment_id", appt.ID),
		)
		return OrderRef{ID: pending.OrderRef, Raw: map[string]interface{}{
			"id":       pending.OrderRef,
			"entity":   "order",
			"amount":   pending.AmountMinor,
			"currency": pending.Currency,
			"receipt":  pending.Receipt,
			"status":   pending.ProviderStatus,
		}}, nil
	}

	ref, err := s.provider.CreateOrder(ctx, amountMinor, s.currency, receipt)
	if err != nil {
		s.logger.Warn("provider order creation failed", zap.String("appointment_id", appt.ID), zap.Error(err))
		if !errors.Is(err, ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return OrderRef{}, err
	}

	providerStatus, _ := ref.Raw["status"].(string)
	if providerStatus == "" {
		providerStatus = ProviderStatusCreated
	}
	order := &domain.PaymentOrder{
		OrderRef:       ref.ID,
		Receipt:        receipt,
		AppointmentID:  appt.ID,
		Amount:         appt.Amount,
		AmountMinor:    amountMinor,
		Currency:       s.currency,
		Status:         domain.PaymentOrderCreated,
		ProviderStatus: providerStatus,
		CreatedAt:      s.now(),
	}
	if err := s.store.PaymentOrders.Create(ctx, order); err != nil {
		s.logger.Error("provider order created but not recorded",
			zap.String("order_id", ref.ID),
			zap.String("appointment_id", appt.ID),
			zap.Error(err),
		)
		return OrderRef{}, fmt.Errorf("record payment order: %w", err)
	}

	s.logger.Info("payment order created",
		zap.String("order_id", ref.ID),
		zap.String("appointment_id", appt.ID),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", s.currency),
	)
	return ref, nil
}

// openOrder returns the newest unsettled order that still charges the
// current amount, so a patient retrying checkout pays into one order.
func (s *Service) openOrder(ctx context.Context, appointmentID string, amountMinor int64) (*domain.PaymentOrder, error) {
	orders, err := s.store.PaymentOrders.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load payment orders: %w", err)
	}
	for i := range orders {
		o := &orders[i]
		if o.Status == domain.PaymentOrderCreated && o.AmountMinor == amountMinor && o.Currency == s.currency {
			return o, nil
		}
	}
	return nil, nil
}

// ConfirmPayment applies a provider order to its appointment once the
// provider reports it paid. Repeated confirmations succeed without effect.
func (s *Service) ConfirmPayment(ctx context.Context, orderRef string) (*Confirmation, error) {
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}

	if s.cache != nil {
		apptID, ok, err := s.cache.Settled(ctx, orderRef)
		if err != nil {
			s.logger.Warn("settled cache lookup failed", zap.String("order_id", orderRef), zap.Error(err))
		} else if ok {
			s.metrics.ObservePayment("cached")
			return &Confirmation{AppointmentID: apptID, OrderRef: orderRef, AlreadyPaid: true}, nil
		}
	}

	order, err := s.provider.FetchOrder(ctx, orderRef)
	if err != nil {
		s.metrics.ObservePayment("provider_unavailable")
		if !errors.Is(err, ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, err
	}

	if order.Status != ProviderStatusPaid {
		s.metrics.ObservePayment("not_paid")
		status, reason := domain.PaymentOrderCreated, ""
		if order.Status == ProviderStatusFailed {
			status, reason = domain.PaymentOrderFailed, "provider reported failure"
		}
		if err := s.store.PaymentOrders.UpdateStatus(ctx, orderRef, status, order.Status, reason); err != nil {
			s.logger.Warn("payment order status update failed", zap.String("order_id", orderRef), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: order status %q", ErrPaymentFailed, order.Status)
	}

	row, err := s.store.PaymentOrders.GetByOrderRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentOrderNotFound) {
			return nil, s.integrity(ErrReceiptNotFound, order, "no order row for paid order")
		}
		return nil, fmt.Errorf("load payment order: %w", err)
	}
	if row.Receipt != order.Receipt {
		return nil, s.integrity(ErrReceiptNotFound, order, "receipt does not match order row",
			zap.String("expected_receipt", row.Receipt))
	}
	if order.AmountMinor != 0 && order.AmountMinor != row.AmountMinor {
		return nil, s.integrity(ErrAmountMismatch, order, "paid amount differs from order",
			zap.Int64("expected_amount_minor", row.AmountMinor))
	}

	now := s.now()
	var (
		appt      *domain.Appointment
		changed   bool
		cancelled bool
		paidBy    string
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := tx.Appointments.GetForUpdate(ctx, row.AppointmentID)
		if err != nil {
			return err
		}
		appt = a

		settled, err := tx.PaymentOrders.MarkSettled(ctx, orderRef, order.Status, now)
		if err != nil {
			return err
		}
		if a.IsCancelled() {
			cancelled = true
			return nil
		}

		first, err := a.MarkPaid(now)
		if err != nil {
			return err
		}
		if !first {
			if settled {
				paidBy, err = otherSettledOrder(ctx, tx, a.ID, orderRef)
			}
			return err
		}
		changed, err = tx.Appointments.MarkPaid(ctx, a.ID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			return nil, s.integrity(ErrReceiptNotFound, order, "receipt resolves to a missing appointment",
				zap.String("appointment_id", row.AppointmentID))
		}
		s.metrics.ObservePayment("error")
		return nil, fmt.Errorf("apply payment: %w", err)
	}

	if cancelled {
		s.metrics.ObservePayment("cancelled")
		s.logger.Error("payment received for cancelled appointment, refund required",
			zap.String("order_id", orderRef),
			zap.String("appointment_id", appt.ID),
			zap.Int64("amount_minor", order.AmountMinor),
			zap.String("currency", order.Currency),
		)
		return nil, ErrAlreadyCancelled
	}

	if paidBy != "" {
		s.metrics.ObservePayment("integrity")
		s.logger.Error("appointment paid twice, refund required",
			zap.String("order_id", orderRef),
			zap.String("paid_by_order_id", paidBy),
			zap.String("appointment_id", appt.ID),
			zap.Int64("amount_minor", order.AmountMinor),
			zap.String("currency", order.Currency),
		)
		return nil, fmt.Errorf("%w: %s already settled by %s", ErrDuplicatePayment, appt.ID, paidBy)
	}

	if s.cache != nil {
		if err := s.cache.MarkSettled(ctx, orderRef, appt.ID); err != nil {
			s.logger.Warn("settled cache write failed", zap.String("order_id", orderRef), zap.Error(err))
		}
	}

	if !changed {
		s.metrics.ObservePayment("already_paid")
		return &Confirmation{AppointmentID: appt.ID, OrderRef: orderRef, AlreadyPaid: true}, nil
	}

	s.metrics.ObservePayment("ok")
	s.logger.Info("appointment paid", zap.String("order_id", orderRef), zap.String("appointment_id", appt.ID))
	if s.events != nil {
		s.events.Publish(ctx, domain.NewAppointmentEvent(domain.EventAppointmentPaid, appt, now))
	}
	return &Confirmation{AppointmentID: appt.ID, OrderRef: orderRef}, nil
}

// otherSettledOrder names the order that paid the appointment before
// orderRef settled. An appointment marked paid without any order row still
// counts as paid elsewhere.
func otherSettledOrder(ctx context.Context, tx *repository.Store, appointmentID, orderRef string) (string, error) {
	orders, err := tx.PaymentOrders.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	for _, o := range orders {
		if o.OrderRef != orderRef && o.Status == domain.PaymentOrderPaid {
			return o.OrderRef, nil
		}
	}
	return "unknown", nil
}

// integrity records a paid order that cannot be applied. These need a human
// and are never retried.
func (s *Service) integrity(kind error, order ProviderOrder, msg string, fields ...zap.Field) error {
	s.metrics.ObservePayment("integrity")
	fields = append([]zap.Field{
		zap.String("order_id", order.ID),
		zap.String("receipt", order.Receipt),
		zap.Int64("amount_minor", order.AmountMinor),
		zap.String("reason", msg),
	}, fields...)
	s.logger.Error("payment needs manual reconciliation", fields...)
	return fmt.Errorf("%w: %s", kind, msg)
}
