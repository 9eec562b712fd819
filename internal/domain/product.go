package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as served by the backend.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Slug        string          `json:"slug"`
	Status      string          `json:"status"`
	Brand       string          `json:"brand"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`

	PromotionID      *int64              `json:"promotion_id,omitempty"`
	PromotionType    PromotionType       `json:"promotion_type,omitempty"`
	DiscountPercent  decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount   decimal.NullDecimal `json:"discount_amount"`
	GiftProductID    *int64              `json:"gift_product_id,omitempty"`
	MinOrderValue    decimal.NullDecimal `json:"min_order_value"`
	MinOrderQuantity *int                `json:"min_order_quantity,omitempty"`
}

func (p Product) ToCartItem(quantity int) CartItem {
	return CartItem{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Price:            p.Price,
		Slug:             p.Slug,
		Status:           p.Status,
		Brand:            p.Brand,
		ImageURL:         p.ImageURL,
		Stock:            p.Stock,
		Quantity:         quantity,
		PromotionID:      p.PromotionID,
		PromotionType:    p.PromotionType,
		DiscountPercent:  p.DiscountPercent,
		DiscountAmount:   p.DiscountAmount,
		GiftProductID:    p.GiftProductID,
		MinOrderValue:    p.MinOrderValue,
		MinOrderQuantity: p.MinOrderQuantity,
	}
}

type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}
