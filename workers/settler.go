package workers

import (
	"context"
	"errors"

	"referral-credit-system/models"
	"referral-credit-system/services"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=./mock_settler_test.go -package=workers . OrderSettler

// OrderSettler settles externally sourced orders exactly once per order ref.
type OrderSettler interface {
	SettleOrder(ctx context.Context, orderRef, accountID, productName string, amount decimal.Decimal) (*services.SettlementResult, error)
}

// Order is a purchase reported by the order service.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ProductName string          `json:"product_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// permanent reports errors that will never succeed on redelivery.
func permanent(err error) bool {
	return errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrConflict)
}
