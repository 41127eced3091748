package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is an append-only purchase log entry. IsFirstPurchase is the snapshot
// taken under the settlement transaction; at most one per account is true.
type Purchase struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID       string          `gorm:"type:uuid;index;not null" json:"accountId"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductSlug     string          `gorm:"type:varchar(255);index" json:"productSlug"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	IsFirstPurchase bool            `gorm:"not null;default:false" json:"isFirstPurchase"`
	CreditsEarned   int64           `gorm:"not null;default:0" json:"creditsEarned"`
	OrderRef        *string         `gorm:"type:varchar(128);uniqueIndex" json:"orderRef,omitempty"` // external order id, idempotency key
	CreatedAt       time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Purchase records are immutable once written.
func (p *Purchase) BeforeUpdate(tx *gorm.DB) error {
	return ErrPurchaseImmutable
}
