package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-credit-system/metrics"
	"referral-credit-system/models"
	"referral-credit-system/store"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reward amounts are independent: changing one must not change the other.
const (
	FirstPurchaseReward int64 = 2
	ReferralReward      int64 = 2
)

// SettlementResult is what a caller sees after commit.
type SettlementResult struct {
	Purchase        *models.Purchase
	IsFirstPurchase bool
	CreditsEarned   int64
	TotalCredits    int64
	// ReferrerCredited is the referrer account id when this call granted the referral reward.
	ReferrerCredited string
	// Replayed is true when SettleOrder found the order already settled.
	Replayed bool
}

type settleRequest struct {
	accountID   string
	productName string
	amount      decimal.Decimal
	orderRef    string
	keyed       bool
}

func (r *settleRequest) validate() error {
	r.productName = strings.TrimSpace(r.productName)
	r.orderRef = strings.TrimSpace(r.orderRef)
	switch {
	case r.productName == "":
		return models.ErrInvalidProduct
	case !r.amount.IsPositive():
		return models.ErrInvalidAmount
	case r.keyed && r.orderRef == "":
		return models.ErrInvalidOrderRef
	case strings.TrimSpace(r.accountID) == "":
		return models.ErrAccountNotFound
	}
	return nil
}

// SettlePurchase records a purchase and, when it is the account's first,
// credits the purchaser and converts its pending referral in the same transaction.
func (s *ReferralService) SettlePurchase(ctx context.Context, accountID, productName string, amount decimal.Decimal) (*SettlementResult, error) {
	return s.settle(ctx, settleRequest{
		accountID:   accountID,
		productName: productName,
		amount:      amount,
	})
}

// SettleOrder is SettlePurchase keyed by an external order reference.
// Settling the same order again replays the stored outcome without writing.
func (s *ReferralService) SettleOrder(ctx context.Context, orderRef, accountID, productName string, amount decimal.Decimal) (*SettlementResult, error) {
	return s.settle(ctx, settleRequest{
		accountID:   accountID,
		productName: productName,
		amount:      amount,
		orderRef:    orderRef,
		keyed:       true,
	})
}

func (s *ReferralService) settle(ctx context.Context, req settleRequest) (*SettlementResult, error) {
	if err := req.validate(); err != nil {
		metrics.Settlements.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	var result *SettlementResult
	err := s.ledger.WithTransaction(ctx, func(tx *store.Tx) error {
		r, err := s.settleInTx(tx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
			outcome = metrics.OutcomeRejected
		}
		metrics.Settlements.WithLabelValues(outcome).Inc()
		s.logger.Warn("[SETTLE] settlement aborted",
			zap.String("account_id", req.accountID),
			zap.String("order_ref", req.orderRef),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, req, result)
	return result, nil
}

func (s *ReferralService) settleInTx(tx *store.Tx, req settleRequest) (*SettlementResult, error) {
	acct, err := tx.LockAccount(req.accountID)
	if err != nil {
		return nil, err
	}

	if req.keyed {
		existing, err := tx.FindPurchaseByOrderRef(req.orderRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.AccountID != acct.ID {
				return nil, fmt.Errorf("order %s was settled for another account: %w", req.orderRef, models.ErrConflict)
			}
			return &SettlementResult{
				Purchase:        existing,
				IsFirstPurchase: existing.IsFirstPurchase,
				CreditsEarned:   existing.CreditsEarned,
				TotalCredits:    acct.Credits,
				Replayed:        true,
			}, nil
		}
	}

	// Snapshot under the row lock
	isFirst := !acct.HasPurchased

	purchase := &models.Purchase{
		AccountID:       acct.ID,
		ProductName:     req.productName,
		ProductSlug:     slug.Make(req.productName),
		Amount:          req.amount,
		IsFirstPurchase: isFirst,
	}
	if req.keyed {
		ref := req.orderRef
		purchase.OrderRef = &ref
	}
	result := &SettlementResult{Purchase: purchase, IsFirstPurchase: isFirst}

	if isFirst {
		flipped, err := tx.MarkFirstPurchase(acct.ID, FirstPurchaseReward)
		if err != nil {
			return nil, err
		}
		if !flipped {
			return nil, fmt.Errorf("account %s was settled concurrently: %w", acct.ID, models.ErrTransactionAbort)
		}
		acct.HasPurchased = true
		acct.Credits += FirstPurchaseReward
		purchase.CreditsEarned = FirstPurchaseReward

		if acct.ReferredBy != nil {
			referrerID, err := s.creditReferrer(tx, *acct.ReferredBy, acct.ID)
			if err != nil {
				return nil, err
			}
			result.ReferrerCredited = referrerID
		}
	}

	if err := tx.CreatePurchase(purchase); err != nil {
		return nil, err
	}

	result.CreditsEarned = purchase.CreditsEarned
	result.TotalCredits = acct.Credits
	return result, nil
}

// creditReferrer converts the pending referral and pays the referrer. The
// credits_awarded guard is checked and set in the caller's transaction, so a
// retried or racing settlement cannot pay twice. Returns "" when nothing was paid.
func (s *ReferralService) creditReferrer(tx *store.Tx, referrerID, referredID string) (string, error) {
	ref, err := FindPendingReferral(tx, referrerID, referredID)
	if err != nil || ref == nil {
		return "", err
	}

	referrer, err := tx.LockAccount(referrerID)
	if errors.Is(err, models.ErrAccountNotFound) {
		// referral stays pending
		return "", nil
	}
	if err != nil {
		return "", err
	}

	won, err := tx.ConvertReferral(ref.ID, s.now())
	if err != nil || !won {
		return "", err
	}
	if _, err := tx.AddCredits(referrer.ID, ReferralReward); err != nil {
		return "", err
	}
	return referrer.ID, nil
}

func (s *ReferralService) afterCommit(ctx context.Context, req settleRequest, result *SettlementResult) {
	switch {
	case result.Replayed:
		metrics.Settlements.WithLabelValues(metrics.OutcomeReplayed).Inc()
	case result.IsFirstPurchase:
		metrics.Settlements.WithLabelValues(metrics.OutcomeFirstPurchase).Inc()
		metrics.CreditsAwarded.WithLabelValues(metrics.PartyPurchaser).Add(float64(result.CreditsEarned))
	default:
		metrics.Settlements.WithLabelValues(metrics.OutcomeRepeatPurchase).Inc()
	}

	if !result.Replayed {
		touched := []string{req.accountID}
		if result.ReferrerCredited != "" {
			metrics.Conversions.Inc()
			metrics.CreditsAwarded.WithLabelValues(metrics.PartyReferrer).Add(float64(ReferralReward))
			touched = append(touched, result.ReferrerCredited)
		}
		s.invalidate(context.WithoutCancel(ctx), touched...)
	}

	s.logger.Info("[SETTLE] purchase settled",
		zap.String("account_id", req.accountID),
		zap.String("purchase_id", result.Purchase.ID),
		zap.Bool("first_purchase", result.IsFirstPurchase),
		zap.Int64("credits_earned", result.CreditsEarned),
		zap.Int64("total_credits", result.TotalCredits),
		zap.String("referrer_credited", result.ReferrerCredited),
		zap.Bool("replayed", result.Replayed),
	)
}
