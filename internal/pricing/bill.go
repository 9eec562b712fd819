package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNoItems         = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNegativeCharge  = errors.New("tax, fee and shipping must not be negative")
)

type Fee struct {
	Description string
	Amount      decimal.Decimal
}

// BillOptions are the store-wide charges applied on top of the product total.
type BillOptions struct {
	Currency   string
	TaxPercent decimal.Decimal
	Fees       []Fee
	Shipping   decimal.Decimal
	Places     int32
}

func (o BillOptions) validate() error {
	if o.TaxPercent.IsNegative() || o.Shipping.IsNegative() {
		return ErrNegativeCharge
	}
	for _, f := range o.Fees {
		if f.Amount.IsNegative() {
			return ErrNegativeCharge
		}
	}
	return nil
}

// BuildOrder prices the cart lines and assembles the bill.
//
// billAmount = orderAmount - discounts + tax(orderAmount - discounts) + fees + shipping
func BuildOrder(items []domain.CartItem, opts BillOptions) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	places := opts.Places

	order := &domain.Order{
		Items:     make([]domain.OrderItem, 0, len(items)),
		Currency:  opts.Currency,
		CreatedAt: time.Now(),
	}

	lineTotals := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrInvalidQuantity)
		}
		unit := UnitPrice(item, places)
		line := Multiply(unit, decimal.NewFromInt(int64(item.Quantity)), places)
		lineTotals = append(lineTotals, line)

		order.Items = append(order.Items, domain.OrderItem{
			CartItem:             item,
			UnitPrice:            unit,
			LineTotal:            line,
			PromotionDescription: Describe(item, places),
			SavingsPercent:       PercentageOf(Subtract(item.Price, unit, places), item.Price, places),
		})
	}
	order.OrderAmount = Sum(lineTotals, places)

	for _, item := range items {
		if n := giftQuantity(item); n > 0 {
			order.BillDetails = append(order.BillDetails, domain.BillDetail{
				Kind:        domain.BillKindGift,
				Amount:      decimal.Zero,
				Description: fmt.Sprintf("%s: %d free", Describe(item, places), n),
			})
		}
	}

	discounts := make([]decimal.Decimal, 0)
	applied := make(map[string]struct{})
	for _, item := range items {
		d := orderDiscount(item, order.OrderAmount, places)
		if !d.IsPositive() {
			continue
		}
		key := orderPromotionKey(item)
		if _, ok := applied[key]; ok {
			continue
		}
		applied[key] = struct{}{}
		discounts = append(discounts, d)
		order.BillDetails = append(order.BillDetails, domain.BillDetail{
			Kind:        domain.BillKindDiscount,
			Amount:      d,
			Description: Describe(item, places),
		})
	}
	discount := Sum(discounts, places)
	if discount.GreaterThan(order.OrderAmount) {
		discount = order.OrderAmount
	}
	taxable := Subtract(order.OrderAmount, discount, places)

	charges := []decimal.Decimal{taxable}
	if opts.TaxPercent.IsPositive() {
		tax := TaxAmount(taxable, opts.TaxPercent, places)
		charges = append(charges, tax)
		order.BillDetails = append(order.BillDetails, domain.BillDetail{
			Kind:        domain.BillKindTax,
			Amount:      tax,
			Description: fmt.Sprintf("Tax %s%%", opts.TaxPercent.String()),
		})
	}
	for _, f := range opts.Fees {
		fee := Round(f.Amount, places)
		charges = append(charges, fee)
		order.BillDetails = append(order.BillDetails, domain.BillDetail{
			Kind:        domain.BillKindFee,
			Amount:      fee,
			Description: f.Description,
		})
	}
	if opts.Shipping.IsPositive() {
		shipping := Round(opts.Shipping, places)
		charges = append(charges, shipping)
		order.BillDetails = append(order.BillDetails, domain.BillDetail{
			Kind:        domain.BillKindShipping,
			Amount:      shipping,
			Description: "Shipping",
		})
	}
	order.BillAmount = Sum(charges, places)

	return order, nil
}
