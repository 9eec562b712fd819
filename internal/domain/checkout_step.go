package domain

type CheckoutStep string

const (
	CheckoutStepShipping  CheckoutStep = "shipping"
	CheckoutStepSummary   CheckoutStep = "summary"
	CheckoutStepPayment   CheckoutStep = "payment"
	CheckoutStepSuccess   CheckoutStep = "success"
	CheckoutStepCancelled CheckoutStep = "cancelled"
)

var checkoutTransitions = map[CheckoutStep][]CheckoutStep{
	CheckoutStepShipping: {CheckoutStepSummary, CheckoutStepCancelled},
	CheckoutStepSummary:  {CheckoutStepPayment, CheckoutStepShipping, CheckoutStepCancelled},
	CheckoutStepPayment:  {CheckoutStepSuccess, CheckoutStepSummary, CheckoutStepCancelled},
}

func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepSuccess || s == CheckoutStepCancelled
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

func CanTransitionTo(from, to CheckoutStep) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
