package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentOrderStatus string

const (
	PaymentOrderCreated PaymentOrderStatus = "created"
	PaymentOrderPaid    PaymentOrderStatus = "paid"
	PaymentOrderFailed  PaymentOrderStatus = "failed"
)

// PaymentOrder maps a provider order to the appointment it pays for.
type PaymentOrder struct {
	ID             int64              `gorm:"primaryKey" json:"id"`
	OrderRef       string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_ref"`
	Receipt        string             `gorm:"type:varchar(40);index;not null" json:"receipt"`
	AppointmentID  string             `gorm:"type:varchar(36);index;not null" json:"appointment_id"`
	Amount         decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"amount"`
	AmountMinor    int64              `gorm:"not null" json:"amount_minor"`
	Currency       string             `gorm:"type:varchar(3);not null" json:"currency"`
	Status         PaymentOrderStatus `gorm:"type:varchar(20);default:'created';index" json:"status"`
	ProviderStatus string             `gorm:"type:varchar(20)" json:"provider_status"`
	FailureReason  string             `gorm:"type:text" json:"failure_reason,omitempty"`
	SettledAt      *time.Time         `json:"settled_at,omitempty"`
	CreatedAt      time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (PaymentOrder) TableName() string { return "payment_orders" }

// ReceiptFor derives the provider receipt for an appointment. Providers cap
// receipts at 40 characters, so the uuid is stored without dashes.
func ReceiptFor(appointmentID string) string {
	return "rcpt_" + strings.ReplaceAll(appointmentID, "-", "")
}

// ISO 4217 currencies whose minor unit is not hundredths.
var minorUnitDigits = map[string]int{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// HasCentMinorUnit reports whether currency divides into hundredths, the
// only kind MinorUnits handles.
func HasCentMinorUnit(currency string) bool {
	d, ok := minorUnitDigits[strings.ToUpper(currency)]
	return !ok || d == 2
}

// MinorUnits converts an amount to hundredths (paise, cents). Payment
// currencies are limited to HasCentMinorUnit at config load.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
