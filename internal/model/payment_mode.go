package model

// PaymentMode is how an outflow was paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentBank   PaymentMode = "bank"
	PaymentUPI    PaymentMode = "upi"
	PaymentCheque PaymentMode = "cheque"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentBank, PaymentUPI, PaymentCheque:
		return true
	}
	return false
}
