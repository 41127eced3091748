package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"referral-credit-system/metrics"
	"referral-credit-system/models"
	"referral-credit-system/store"

	"go.uber.org/zap"
)

const MinNameLength = 2

type RegisterInput struct {
	Email        string
	Name         string
	ReferralCode string // optional code of the referring account
}

// RegisterAccount creates an account with a fresh referral code. When the
// supplied code belongs to an existing account a pending referral is created
// in the same transaction. Unknown codes are ignored.
func (s *ReferralService) RegisterAccount(ctx context.Context, in RegisterInput) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, models.ErrInvalidEmail
	}
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return nil, models.ErrInvalidName
	}
	code := strings.ToUpper(strings.TrimSpace(in.ReferralCode))

	var acct *models.Account
	var err error
	for attempt := 1; ; attempt++ {
		acct, err = s.register(ctx, email, name, code)
		if err == nil {
			break
		}
		// A racing registration took our code between the check and the insert.
		if retryableRegistration(err) && attempt < MaxCodeAttempts {
			s.logger.Debug("[REGISTER] unique violation, retrying", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return nil, err
	}

	referred := acct.ReferredBy != nil
	metrics.Registrations.WithLabelValues(boolLabel(referred)).Inc()
	if referred {
		s.invalidate(context.WithoutCancel(ctx), *acct.ReferredBy)
	}
	s.logger.Info("[REGISTER] account created",
		zap.String("account_id", acct.ID),
		zap.String("referral_code", acct.ReferralCode),
		zap.Bool("referred", referred),
	)
	return acct, nil
}

func (s *ReferralService) register(ctx context.Context, email, name, code string) (*models.Account, error) {
	var acct *models.Account
	err := s.ledger.WithTransaction(ctx, func(tx *store.Tx) error {
		existing, err := tx.FindAccountByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.ErrEmailTaken
		}

		ownCode, err := s.codes.Unique(tx, name)
		if err != nil {
			return err
		}

		var referrer *models.Account
		if code != "" {
			if referrer, err = tx.FindAccountByCode(code); err != nil {
				return err
			}
		}

		a := &models.Account{Email: email, Name: name, ReferralCode: ownCode}
		if referrer != nil {
			a.ReferredBy = &referrer.ID
		}
		if err := tx.CreateAccount(a); err != nil {
			return err
		}

		if referrer != nil {
			err := tx.CreateReferral(&models.Referral{
				ReferrerID:       referrer.ID,
				ReferredID:       a.ID,
				ReferralCodeUsed: code,
				Status:           models.ReferralStatusPending,
			})
			if err != nil {
				return err
			}
		}
		acct = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func retryableRegistration(err error) bool {
	return errors.Is(err, models.ErrConflict) &&
		!errors.Is(err, models.ErrEmailTaken) &&
		!errors.Is(err, models.ErrReferralCodeExhausted)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
