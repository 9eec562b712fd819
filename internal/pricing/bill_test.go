package pricing

import (
	"testing"

	"github.com/fjod/go_market/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func TestUnitPrice_PercentWinsOverAmount(t *testing.T) {
	item := domain.CartItem{
		ProductID:       1,
		Price:           d("10.00"),
		Quantity:        1,
		Stock:           5,
		PromotionType:   domain.PromotionPercentDiscount,
		DiscountPercent: nd("10"),
		DiscountAmount:  nd("5"),
	}

	got := UnitPrice(item, 2)
	assert.True(t, got.Equal(DiscountedPrice(d("10.00"), d("10"), 2)), "got %s", got)
	assert.Equal(t, "9.00", got.StringFixed(2))
}

func TestUnitPrice_Policy(t *testing.T) {
	gift := int64(42)
	tests := []struct {
		name string
		item domain.CartItem
		want string
	}{
		{"none", domain.CartItem{Price: d("5")}, "5.00"},
		{"flat amount", domain.CartItem{Price: d("5"), DiscountAmount: nd("1.25")}, "3.75"},
		{"flat amount floors at zero", domain.CartItem{Price: d("5"), DiscountAmount: nd("7")}, "0.00"},
		{"bogo keeps price", domain.CartItem{Price: d("5"), PromotionType: domain.PromotionBuyOneGetOne, DiscountPercent: nd("50")}, "5.00"},
		{"gift keeps price", domain.CartItem{Price: d("5"), PromotionType: domain.PromotionGiftItem, GiftProductID: &gift}, "5.00"},
		{"order value discount keeps unit price", domain.CartItem{Price: d("5"), PromotionType: domain.PromotionOrderValueDiscount, DiscountAmount: nd("2")}, "5.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitPrice(tt.item, 2).StringFixed(2))
		})
	}
}

func TestBuildOrder_Scenario(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: 1, ProductName: "A", Price: d("10.00"), Quantity: 2, Stock: 10, DiscountPercent: nd("10")},
		{ProductID: 2, ProductName: "B", Price: d("5.00"), Quantity: 1, Stock: 10},
	}
	opts := BillOptions{
		Currency:   "USD",
		TaxPercent: d("8"),
		Fees:       []Fee{{Description: "Service fee", Amount: d("1.00")}},
		Places:     2,
	}

	order, err := BuildOrder(items, opts)
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "9.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "18.00", order.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "10.00", order.Items[0].SavingsPercent.StringFixed(2))
	assert.Equal(t, "10% off", order.Items[0].PromotionDescription)
	assert.Equal(t, "5.00", order.Items[1].LineTotal.StringFixed(2))

	assert.Equal(t, "23.00", order.OrderAmount.StringFixed(2))
	assert.Equal(t, "25.84", order.BillAmount.StringFixed(2))

	require.Len(t, order.BillDetails, 2)
	assert.Equal(t, domain.BillKindTax, order.BillDetails[0].Kind)
	assert.Equal(t, "1.84", order.BillDetails[0].Amount.StringFixed(2))
	assert.Equal(t, domain.BillKindFee, order.BillDetails[1].Kind)
	assert.Equal(t, "1.00", order.BillDetails[1].Amount.StringFixed(2))
}

func TestBuildOrder_GiftLinesDoNotChangeTotal(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: 1, Price: d("4.00"), Quantity: 3, Stock: 10, PromotionType: domain.PromotionBuyOneGetOne},
	}

	order, err := BuildOrder(items, BillOptions{Places: 2})
	require.NoError(t, err)

	assert.Equal(t, "12.00", order.OrderAmount.StringFixed(2))
	assert.Equal(t, "12.00", order.BillAmount.StringFixed(2))
	require.Len(t, order.BillDetails, 1)
	assert.Equal(t, domain.BillKindGift, order.BillDetails[0].Kind)
	assert.True(t, order.BillDetails[0].Amount.IsZero())
	assert.Equal(t, "Buy 1 get 1 free: 3 free", order.BillDetails[0].Description)
}

func TestBuildOrder_OrderValueDiscountThreshold(t *testing.T) {
	promo := domain.CartItem{
		ProductID:      1,
		Price:          d("30.00"),
		Quantity:       1,
		Stock:          10,
		PromotionType:  domain.PromotionOrderValueDiscount,
		DiscountAmount: nd("5"),
		MinOrderValue:  nd("50"),
	}
	other := domain.CartItem{ProductID: 2, Price: d("25.00"), Quantity: 1, Stock: 10}

	below, err := BuildOrder([]domain.CartItem{promo}, BillOptions{Places: 2})
	require.NoError(t, err)
	assert.Equal(t, "30.00", below.BillAmount.StringFixed(2))

	above, err := BuildOrder([]domain.CartItem{promo, other}, BillOptions{TaxPercent: d("10"), Places: 2})
	require.NoError(t, err)
	assert.Equal(t, "55.00", above.OrderAmount.StringFixed(2))
	// (55 - 5) + 10% of 50
	assert.Equal(t, "55.00", above.BillAmount.StringFixed(2))
	assert.Equal(t, domain.BillKindDiscount, above.BillDetails[0].Kind)
	assert.Equal(t, "5.00", above.BillDetails[0].Amount.StringFixed(2))
}

func TestBuildOrder_OrderValueDiscountAppliedOncePerPromotion(t *testing.T) {
	id := int64(7)
	line := func(productID int64) domain.CartItem {
		return domain.CartItem{
			ProductID:       productID,
			Price:           d("40.00"),
			Quantity:        1,
			Stock:           10,
			PromotionID:     &id,
			PromotionType:   domain.PromotionOrderValueDiscount,
			DiscountPercent: nd("10"),
			MinOrderValue:   nd("50"),
		}
	}

	order, err := BuildOrder([]domain.CartItem{line(1), line(2)}, BillOptions{Places: 2})
	require.NoError(t, err)
	assert.Equal(t, "80.00", order.OrderAmount.StringFixed(2))
	// 10% of 80 once, not twice
	assert.Equal(t, "72.00", order.BillAmount.StringFixed(2))

	discounts := 0
	for _, bd := range order.BillDetails {
		if bd.Kind == domain.BillKindDiscount {
			discounts++
		}
	}
	assert.Equal(t, 1, discounts)

	// the same terms without an id also count once
	a, b := line(1), line(2)
	a.PromotionID, b.PromotionID = nil, nil
	order, err = BuildOrder([]domain.CartItem{a, b}, BillOptions{Places: 2})
	require.NoError(t, err)
	assert.Equal(t, "72.00", order.BillAmount.StringFixed(2))
}

func TestBuildOrder_Shipping(t *testing.T) {
	items := []domain.CartItem{{ProductID: 1, Price: d("2.50"), Quantity: 2, Stock: 10}}

	order, err := BuildOrder(items, BillOptions{Shipping: d("3.99"), Places: 2})
	require.NoError(t, err)
	assert.Equal(t, "8.99", order.BillAmount.StringFixed(2))
	assert.Equal(t, domain.BillKindShipping, order.BillDetails[0].Kind)
}

func TestBuildOrder_Errors(t *testing.T) {
	_, err := BuildOrder(nil, BillOptions{Places: 2})
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = BuildOrder([]domain.CartItem{{ProductID: 7, Price: d("1"), Quantity: 0}}, BillOptions{Places: 2})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = BuildOrder([]domain.CartItem{{ProductID: 7, Price: d("1"), Quantity: 1}}, BillOptions{TaxPercent: d("-1"), Places: 2})
	assert.ErrorIs(t, err, ErrNegativeCharge)
}

func TestFormatCurrency(t *testing.T) {
	out, err := FormatCurrency(language.English, d("1234.5"), "USD", 2)
	require.NoError(t, err)
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "$")

	out, err = FormatCurrency(language.English, d("12.345"), "USD", 2)
	require.NoError(t, err)
	assert.Contains(t, out, "12.35")

	_, err = FormatCurrency(language.English, d("1"), "NOPE", 2)
	assert.Error(t, err)
}
