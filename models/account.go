package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a registered user of the referral program.
// Identity, email and referral code never change after creation.
type Account struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string  `gorm:"type:varchar(128);not null" json:"name"`
	ReferralCode string  `gorm:"type:varchar(16);uniqueIndex;not null" json:"referralCode"`
	ReferredBy   *string `gorm:"type:uuid;index" json:"referredBy,omitempty"` // referrer account id, relation only

	// Mutated only by the settlement engine
	HasPurchased bool  `gorm:"not null;default:false" json:"hasPurchased"`
	Credits      int64 `gorm:"not null;default:0" json:"credits"`

	Timestamps
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
