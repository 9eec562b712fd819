package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_market/internal/domain"
)

var (
	ErrEmptyCart               = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition       = errors.New("illegal transition of checkout step")
	ErrSubmissionInFlight      = errors.New("order submission already in progress")
	ErrBankTransferUnconfirmed = errors.New("bank transfer has not been confirmed")
	ErrPaymentMethodRequired   = errors.New("payment method is required")
	ErrInvalidPaymentMethod    = errors.New("unknown payment method")
	ErrInvalidAddress          = errors.New("shipping address is incomplete")
	ErrPricing                 = errors.New("could not price the order")
	ErrNoCheckout              = errors.New("no checkout in progress")
)

func illegalTransition(from, to domain.CheckoutStep) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
