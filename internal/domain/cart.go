package domain

import (
	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromotionNone               PromotionType = ""
	PromotionPercentDiscount    PromotionType = "PERCENT_DISCOUNT"
	PromotionBuyOneGetOne       PromotionType = "BUY_ONE_GET_ONE"
	PromotionGiftItem           PromotionType = "GIFT_ITEM"
	PromotionOrderValueDiscount PromotionType = "ORDER_VALUE_DISCOUNT"
	PromotionOrderQuantityGift  PromotionType = "ORDER_QUANTITY_GIFT"
)

// IsGift reports whether the promotion hands out free goods instead of lowering the price.
func (p PromotionType) IsGift() bool {
	return p == PromotionBuyOneGetOne || p == PromotionGiftItem || p == PromotionOrderQuantityGift
}

// CartItem is one product line in the cart, keyed by ProductID.
type CartItem struct {
	ProductID   int64           `json:"product_id" bson:"product_id"`
	ProductName string          `json:"product_name" bson:"product_name"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Slug        string          `json:"slug,omitempty" bson:"slug,omitempty"`
	Status      string          `json:"status,omitempty" bson:"status,omitempty"`
	Brand       string          `json:"brand,omitempty" bson:"brand,omitempty"`
	ImageURL    string          `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Stock       int             `json:"stock" bson:"stock"`
	Quantity    int             `json:"quantity" bson:"quantity"`

	PromotionID      *int64              `json:"promotion_id,omitempty" bson:"promotion_id,omitempty"`
	PromotionType    PromotionType       `json:"promotion_type,omitempty" bson:"promotion_type,omitempty"`
	DiscountPercent  decimal.NullDecimal `json:"discount_percent" bson:"discount_percent"`
	DiscountAmount   decimal.NullDecimal `json:"discount_amount" bson:"discount_amount"`
	GiftProductID    *int64              `json:"gift_product_id,omitempty" bson:"gift_product_id,omitempty"`
	MinOrderValue    decimal.NullDecimal `json:"min_order_value" bson:"min_order_value"`
	MinOrderQuantity *int                `json:"min_order_quantity,omitempty" bson:"min_order_quantity,omitempty"`
}

// CartState is a read-only snapshot of the cart with its undiscounted aggregates.
type CartState struct {
	Items      []CartItem      `json:"items"`
	TotalCount int             `json:"total_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
