package entities

import "time"

// PaymentResult is the opaque outcome reported back by the payment
// provider. The backend stores it, it never computes charges itself.
type PaymentResult struct {
	OrderID       string
	TransactionID string
	Status        string
	PaidAt        time.Time
}

const PaymentStatusSucceeded = "succeeded"
