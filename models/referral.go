package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralStatus is one-way: pending → converted.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusConverted ReferralStatus = "converted"
)

// Referral links a referrer to the account that registered with its code.
// CreditsAwarded is the idempotency guard for the referral reward.
type Referral struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID string `gorm:"type:uuid;index;not null" json:"referrerId"`
	ReferredID string `gorm:"type:uuid;uniqueIndex;not null" json:"referredId"` // an account is referred at most once

	ReferralCodeUsed string         `gorm:"type:varchar(16);not null" json:"referralCodeUsed"`
	Status           ReferralStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreditsAwarded   bool           `gorm:"not null;default:false" json:"creditsAwarded"`
	ConvertedAt      *time.Time     `json:"convertedAt,omitempty"`

	Referred *Account `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`

	Timestamps
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = ReferralStatusPending
	}
	return nil
}

// IsConverted reports whether the referral reached its terminal state.
func (r *Referral) IsConverted() bool {
	return r.Status == ReferralStatusConverted
}
