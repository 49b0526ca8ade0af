package payment

type CreateOrderRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required"`
}

// VerifyPaymentRequest carries the checkout callback fields. Only the order
// id is trusted; its state is re-read from the provider.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
		Payment struct {
			Entity struct {
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (e webhookEvent) orderID() string {
	if e.Payload.Order.Entity.ID != "" {
		return e.Payload.Order.Entity.ID
	}
	return e.Payload.Payment.Entity.OrderID
}
