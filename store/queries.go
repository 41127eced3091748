package store

import (
	"context"
	"errors"
	"time"

	"referral-credit-system/models"

	"gorm.io/gorm"
)

// Read-only projections. None of these take locks.

func (l *Ledger) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var acct models.Account
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, Classify(err)
	}
	return &acct, nil
}

// ListReferralsByReferrer returns referrals newest first with the referred account preloaded.
func (l *Ledger) ListReferralsByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	var refs []models.Referral
	err := l.db.WithContext(ctx).
		Preload("Referred").
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&refs).Error
	return refs, Classify(err)
}

// CountReferrals counts a referrer's links, optionally filtered by status.
func (l *Ledger) CountReferrals(ctx context.Context, referrerID string, status models.ReferralStatus) (int64, error) {
	var n int64
	q := l.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, Classify(err)
}

// ListConvertedReferrals returns referrals converted in [from, to).
func (l *Ledger) ListConvertedReferrals(ctx context.Context, from, to time.Time) ([]models.Referral, error) {
	var refs []models.Referral
	err := l.db.WithContext(ctx).
		Where("status = ? AND converted_at >= ? AND converted_at < ?", models.ReferralStatusConverted, from, to).
		Order("converted_at ASC").
		Find(&refs).Error
	return refs, Classify(err)
}

// AuditReport lists ledger rows that break the settlement invariants.
type AuditReport struct {
	DuplicateFirstPurchases []string // account ids with more than one first purchase
	InconsistentReferrals   []string // status and credits_awarded disagree
	UnrecordedFirstPurchase []string // has_purchased without a first-purchase record
}

func (r AuditReport) Violations() int {
	return len(r.DuplicateFirstPurchases) + len(r.InconsistentReferrals) + len(r.UnrecordedFirstPurchase)
}

func (l *Ledger) Audit(ctx context.Context) (*AuditReport, error) {
	db := l.db.WithContext(ctx)
	report := &AuditReport{}

	err := db.Model(&models.Purchase{}).
		Select("account_id").
		Where("is_first_purchase = ?", true).
		Group("account_id").
		Having("COUNT(*) > 1").
		Pluck("account_id", &report.DuplicateFirstPurchases).Error
	if err != nil {
		return nil, Classify(err)
	}

	err = db.Model(&models.Referral{}).
		Where("(status = ? AND credits_awarded = ?) OR (status = ? AND credits_awarded = ?)",
			models.ReferralStatusConverted, false, models.ReferralStatusPending, true).
		Pluck("id", &report.InconsistentReferrals).Error
	if err != nil {
		return nil, Classify(err)
	}

	err = db.Model(&models.Account{}).
		Where("has_purchased = ?", true).
		Where("NOT EXISTS (?)",
			db.Model(&models.Purchase{}).
				Select("1").
				Where("purchases.account_id = accounts.id AND purchases.is_first_purchase = ?", true)).
		Pluck("id", &report.UnrecordedFirstPurchase).Error
	if err != nil {
		return nil, Classify(err)
	}
	return report, nil
}
