package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// orderAPI is the part of the razorpay client used here; *razorpay.Client's
// Order resource satisfies it.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayProvider struct {
	orders  orderAPI
	timeout time.Duration
}

func NewRazorpayProvider(client *razorpay.Client, timeout time.Duration) *RazorpayProvider {
	return newRazorpayProvider(client.Order, timeout)
}

func newRazorpayProvider(orders orderAPI, timeout time.Duration) *RazorpayProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayProvider{orders: orders, timeout: timeout}
}

func (p *RazorpayProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (OrderRef, error) {
	body, err := p.call(ctx, func() (map[string]interface{}, error) {
		return p.orders.Create(map[string]interface{}{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
	})
	if err != nil {
		return OrderRef{}, err
	}

	id, _ := body["id"].(string)
	if id == "" {
		return OrderRef{}, fmt.Errorf("%w: order response has no id", ErrProviderUnavailable)
	}
	return OrderRef{ID: id, Raw: body}, nil
}

func (p *RazorpayProvider) FetchOrder(ctx context.Context, orderID string) (ProviderOrder, error) {
	body, err := p.call(ctx, func() (map[string]interface{}, error) {
		return p.orders.Fetch(orderID, nil, nil)
	})
	if err != nil {
		return ProviderOrder{}, err
	}

	order := ProviderOrder{ID: orderID}
	order.Status, _ = body["status"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Currency, _ = body["currency"].(string)
	order.AmountMinor = minorAmount(body["amount_paid"])
	if order.AmountMinor == 0 {
		order.AmountMinor = minorAmount(body["amount"])
	}
	return order, nil
}

// call runs a blocking client request with the provider timeout. The razorpay
// client takes no context, so an abandoned request finishes in the background.
func (p *RazorpayProvider) call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body: body, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, r.err)
		}
		return r.body, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
	}
}

func minorAmount(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
