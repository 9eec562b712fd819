package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillKind string

const (
	BillKindTax      BillKind = "TAX"
	BillKindFee      BillKind = "FEE"
	BillKindDiscount BillKind = "DISCOUNT"
	BillKindGift     BillKind = "GIFT"
	BillKindShipping BillKind = "SHIPPING"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobilePayment PaymentMethod = "MOBILE_PAYMENT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodBankTransfer, PaymentMethodMobilePayment:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

// PaymentStatusFor returns the status an accepted order starts with.
// Cash is collected on delivery, every other method is settled up front.
func PaymentStatusFor(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodCash {
		return PaymentStatusPending
	}
	return PaymentStatusCompleted
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Note       string `json:"note,omitempty"`
}

// OrderItem is a cart line resolved against its promotion at checkout time.
type OrderItem struct {
	CartItem
	UnitPrice            decimal.Decimal `json:"unit_price"`
	LineTotal            decimal.Decimal `json:"line_total"`
	PromotionDescription string          `json:"promotion_description,omitempty"`
	SavingsPercent       decimal.Decimal `json:"savings_percent"`
}

// BillDetail is a labeled adjustment on top of the product total.
// Amounts are non-negative; DISCOUNT details are subtracted, GIFT details carry no amount.
type BillDetail struct {
	Kind        BillKind        `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Order is the transient checkout view model. The backend's persisted order is authoritative.
type Order struct {
	ID              string           `json:"id"`
	Items           []OrderItem      `json:"order_items"`
	BillDetails     []BillDetail     `json:"bill_details"`
	OrderAmount     decimal.Decimal  `json:"order_amount"`
	BillAmount      decimal.Decimal  `json:"bill_amount"`
	Currency        string           `json:"currency"`
	PaymentMethod   PaymentMethod    `json:"payment_method,omitempty"`
	PaymentStatus   PaymentStatus    `json:"payment_status,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
