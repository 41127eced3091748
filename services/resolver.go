package services

import (
	"referral-credit-system/models"
	"referral-credit-system/store"
)

// FindPendingReferral returns the uncredited referral between referrer and
// referred. A nil result is not an error: the account registered without a
// code, or the reward was already granted.
func FindPendingReferral(tx *store.Tx, referrerID, referredID string) (*models.Referral, error) {
	if referrerID == "" || referrerID == referredID {
		return nil, nil
	}
	ref, err := tx.FindReferral(referrerID, referredID)
	if err != nil {
		return nil, err
	}
	if ref == nil || ref.CreditsAwarded || ref.IsConverted() {
		return nil, nil
	}
	return ref, nil
}
