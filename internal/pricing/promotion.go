package pricing

import (
	"fmt"
	"strconv"

	"github.com/fjod/go_market/internal/domain"
	"github.com/shopspring/decimal"
)

// UnitPrice resolves the price of one unit of the line after its promotion.
//
// Gift promotions never change the price. Otherwise a percent discount wins over a flat
// amount when both are present.
func UnitPrice(item domain.CartItem, places int32) decimal.Decimal {
	price := Round(item.Price, places)
	if item.PromotionType.IsGift() || item.PromotionType == domain.PromotionOrderValueDiscount {
		return price
	}
	if item.DiscountPercent.Valid && item.DiscountPercent.Decimal.IsPositive() {
		return DiscountedPrice(price, item.DiscountPercent.Decimal, places)
	}
	if item.DiscountAmount.Valid && item.DiscountAmount.Decimal.IsPositive() {
		discounted := Subtract(price, item.DiscountAmount.Decimal, places)
		if discounted.IsNegative() {
			return decimal.Zero
		}
		return discounted
	}
	return price
}

// LineTotal is the promoted unit price times quantity.
func LineTotal(item domain.CartItem, places int32) decimal.Decimal {
	return Multiply(UnitPrice(item, places), decimal.NewFromInt(int64(item.Quantity)), places)
}

// Describe returns the text shown next to a line for its promotion, or "" when there is none.
func Describe(item domain.CartItem, places int32) string {
	switch item.PromotionType {
	case domain.PromotionBuyOneGetOne:
		return "Buy 1 get 1 free"
	case domain.PromotionGiftItem:
		if item.GiftProductID != nil {
			return fmt.Sprintf("Free gift: product #%d", *item.GiftProductID)
		}
		return "Free gift included"
	case domain.PromotionOrderQuantityGift:
		if item.MinOrderQuantity != nil {
			return fmt.Sprintf("Free gift when buying %d or more", *item.MinOrderQuantity)
		}
		return "Free gift on quantity purchase"
	case domain.PromotionOrderValueDiscount:
		if item.MinOrderValue.Valid {
			return fmt.Sprintf("Order discount from %s", Round(item.MinOrderValue.Decimal, places).StringFixed(places))
		}
		return "Order discount"
	}
	if item.DiscountPercent.Valid && item.DiscountPercent.Decimal.IsPositive() {
		return fmt.Sprintf("%s%% off", item.DiscountPercent.Decimal.String())
	}
	if item.DiscountAmount.Valid && item.DiscountAmount.Decimal.IsPositive() {
		return fmt.Sprintf("Save %s", Round(item.DiscountAmount.Decimal, places).StringFixed(places))
	}
	return ""
}

// giftQuantity is the number of free units a gift promotion yields for the line.
func giftQuantity(item domain.CartItem) int {
	switch item.PromotionType {
	case domain.PromotionBuyOneGetOne:
		return item.Quantity
	case domain.PromotionGiftItem:
		return 1
	case domain.PromotionOrderQuantityGift:
		if item.MinOrderQuantity == nil || *item.MinOrderQuantity <= 0 {
			return 1
		}
		return item.Quantity / *item.MinOrderQuantity
	}
	return 0
}

// orderDiscount is the order-level discount an ORDER_VALUE_DISCOUNT line grants once the
// order amount reaches its threshold.
func orderDiscount(item domain.CartItem, orderAmount decimal.Decimal, places int32) decimal.Decimal {
	if item.PromotionType != domain.PromotionOrderValueDiscount {
		return decimal.Zero
	}
	if item.MinOrderValue.Valid && orderAmount.LessThan(item.MinOrderValue.Decimal) {
		return decimal.Zero
	}
	if item.DiscountPercent.Valid && item.DiscountPercent.Decimal.IsPositive() {
		return Multiply(orderAmount, item.DiscountPercent.Decimal.Div(hundred), places)
	}
	if item.DiscountAmount.Valid && item.DiscountAmount.Decimal.IsPositive() {
		return Round(item.DiscountAmount.Decimal, places)
	}
	return decimal.Zero
}

// orderPromotionKey identifies an order-level promotion so it applies once per order however
// many lines carry it. Lines without a promotion id are matched on their terms.
func orderPromotionKey(item domain.CartItem) string {
	if item.PromotionID != nil {
		return "id:" + strconv.FormatInt(*item.PromotionID, 10)
	}
	return fmt.Sprintf("terms:%s|%s|%s",
		nullString(item.DiscountPercent), nullString(item.DiscountAmount), nullString(item.MinOrderValue))
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
