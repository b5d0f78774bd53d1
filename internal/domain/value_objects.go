package domain

// Money is an amount in minor units (cents) with its currency.
type Money struct {
	AmountCents int64
	Currency    string
}

func NewMoney(amountCents int64, currency string) (Money, error) {
	if amountCents < 0 {
		return Money{}, NewInvalidAmountError(amountCents)
	}
	if currency == "" {
		return Money{}, NewMissingRequiredFieldError("currency")
	}
	return Money{AmountCents: amountCents, Currency: currency}, nil
}

// Actor identifies which side of a booking performed an action.
type Actor string

const (
	ActorGuest Actor = "GUEST"
	ActorHost  Actor = "HOST"
)

func (a Actor) Valid() bool {
	return a == ActorGuest || a == ActorHost
}
