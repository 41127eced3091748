// Package store is the ledger for accounts, referrals and purchases.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral-credit-system/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger wraps the database handle. All writes go through WithTransaction.
type Ledger struct {
	db *gorm.DB
}

// Open connects to Postgres. TranslateError makes unique violations surface
// as gorm.ErrDuplicatedKey so they can be classified as conflicts.
func Open(dsn string) (*Ledger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", Classify(err))
	}
	return New(db), nil
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) DB() *gorm.DB {
	return l.db
}

func (l *Ledger) AutoMigrate() error {
	return l.db.AutoMigrate(
		&models.Account{},
		&models.Referral{},
		&models.Purchase{},
	)
}

// WithTransaction runs fn inside one database transaction. Any error returned
// by fn, a panic, or a failed commit rolls back every write made through tx.
func (l *Ledger) WithTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	err := l.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
	return Classify(err)
}

// Tx is the transaction-scoped view of the ledger.
type Tx struct {
	db *gorm.DB
}

// LockAccount loads the account and holds a row lock until the transaction ends.
func (t *Tx) LockAccount(id string) (*models.Account, error) {
	var acct models.Account
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// FindAccountByEmail returns nil when no account uses the email.
func (t *Tx) FindAccountByEmail(email string) (*models.Account, error) {
	return t.findAccount("email = ?", email)
}

// FindAccountByCode returns nil when no account owns the code.
func (t *Tx) FindAccountByCode(code string) (*models.Account, error) {
	return t.findAccount("referral_code = ?", code)
}

func (t *Tx) findAccount(query string, arg any) (*models.Account, error) {
	var acct models.Account
	err := t.db.Where(query, arg).Limit(1).Find(&acct).Error
	if err != nil {
		return nil, err
	}
	if acct.ID == "" {
		return nil, nil
	}
	return &acct, nil
}

func (t *Tx) CreateAccount(acct *models.Account) error {
	return t.db.Omit(clause.Associations).Create(acct).Error
}

// MarkFirstPurchase flips has_purchased and grants reward in one statement.
// It returns false when the account was already flagged.
func (t *Tx) MarkFirstPurchase(accountID string, reward int64) (bool, error) {
	res := t.db.Model(&models.Account{}).
		Where("id = ? AND has_purchased = ?", accountID, false).
		Updates(map[string]any{
			"has_purchased": true,
			"credits":       gorm.Expr("credits + ?", reward),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AddCredits increments the counter in the database, never in memory.
func (t *Tx) AddCredits(accountID string, n int64) (bool, error) {
	res := t.db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("credits", gorm.Expr("credits + ?", n))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindReferral returns the uncredited referral for the pair, or nil.
func (t *Tx) FindReferral(referrerID, referredID string) (*models.Referral, error) {
	var ref models.Referral
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referrer_id = ? AND referred_id = ? AND credits_awarded = ?", referrerID, referredID, false).
		Limit(1).
		Find(&ref).Error
	if err != nil {
		return nil, err
	}
	if ref.ID == "" {
		return nil, nil
	}
	return &ref, nil
}

// ConvertReferral checks and sets the credits_awarded guard. Only the caller
// that gets true may apply the referral reward.
func (t *Tx) ConvertReferral(referralID string, at time.Time) (bool, error) {
	res := t.db.Model(&models.Referral{}).
		Where("id = ? AND credits_awarded = ?", referralID, false).
		Updates(map[string]any{
			"status":          models.ReferralStatusConverted,
			"credits_awarded": true,
			"converted_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *Tx) CreateReferral(ref *models.Referral) error {
	return t.db.Omit(clause.Associations).Create(ref).Error
}

func (t *Tx) CreatePurchase(p *models.Purchase) error {
	return t.db.Create(p).Error
}

// FindPurchaseByOrderRef returns nil when the order has not been settled.
func (t *Tx) FindPurchaseByOrderRef(orderRef string) (*models.Purchase, error) {
	var p models.Purchase
	err := t.db.Where("order_ref = ?", orderRef).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}
