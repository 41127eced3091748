package services

import (
	"context"
	"strings"
	"testing"

	"referral-credit-system/models"

	"github.com/stretchr/testify/require"
)

func TestRegisterWithoutCode(t *testing.T) {
	s, l := newTestService(t)

	acct := mustRegister(t, s, "  Alice@Example.COM ", "Alice", "")
	require.Equal(t, "alice@example.com", acct.Email)
	require.Regexp(t, `^ALIC\d{3}$`, acct.ReferralCode)
	require.Nil(t, acct.ReferredBy)
	require.False(t, acct.HasPurchased)
	require.Zero(t, acct.Credits)

	stored := reload(t, l, acct.ID)
	require.Equal(t, acct.ReferralCode, stored.ReferralCode)
}

func TestRegisterWithReferralCode(t *testing.T) {
	s, l := newTestService(t)

	bob := mustRegister(t, s, "bob@example.com", "Bob", "")
	alice := mustRegister(t, s, "alice@example.com", "Alice", " "+strings.ToLower(bob.ReferralCode)+" ")
	require.NotNil(t, alice.ReferredBy)
	require.Equal(t, bob.ID, *alice.ReferredBy)

	ref := referralBetween(t, l, bob.ID, alice.ID)
	require.Equal(t, models.ReferralStatusPending, ref.Status)
	require.False(t, ref.CreditsAwarded)
	require.Nil(t, ref.ConvertedAt)
	require.Equal(t, bob.ReferralCode, ref.ReferralCodeUsed)
}

func TestRegisterUnknownCodeIsIgnored(t *testing.T) {
	s, l := newTestService(t)

	acct := mustRegister(t, s, "carol@example.com", "Carol", "NOPE999")
	require.Nil(t, acct.ReferredBy)

	var n int64
	require.NoError(t, l.DB().Model(&models.Referral{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestRegisterEmailTaken(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "dup@example.com", "Dup", "")

	_, err := s.RegisterAccount(context.Background(), RegisterInput{Email: "DUP@example.com", Name: "Other"})
	require.ErrorIs(t, err, models.ErrEmailTaken)
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, RegisterInput{Email: "not-an-email", Name: "X"})
	require.ErrorIs(t, err, models.ErrInvalidEmail)

	_, err = s.RegisterAccount(ctx, RegisterInput{Email: "Name <x@example.com>", Name: "X"})
	require.ErrorIs(t, err, models.ErrInvalidEmail)

	_, err = s.RegisterAccount(ctx, RegisterInput{Email: "x@example.com", Name: "   "})
	require.ErrorIs(t, err, models.ErrInvalidName)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = s.RegisterAccount(ctx, RegisterInput{Email: "x@example.com", Name: " J "})
	require.ErrorIs(t, err, models.ErrInvalidName)

	acct, err := s.RegisterAccount(ctx, RegisterInput{Email: "x@example.com", Name: "Lú"})
	require.NoError(t, err)
	require.Equal(t, "Lú", acct.Name)
}

func TestRegisterRegeneratesCollidingCodes(t *testing.T) {
	s, _ := newTestService(t, WithCodeGenerator(sequenceCodes(5, 5, 6)))

	jane := mustRegister(t, s, "jane@example.com", "Jane", "")
	janet := mustRegister(t, s, "janet@example.com", "Janet", "")
	require.Equal(t, "JANE005", jane.ReferralCode)
	require.Equal(t, "JANE006", janet.ReferralCode)
}

func TestRegisterGivesUpAfterMaxAttempts(t *testing.T) {
	s, _ := newTestService(t, WithCodeGenerator(sequenceCodes(5)))
	mustRegister(t, s, "jane@example.com", "Jane", "")

	_, err := s.RegisterAccount(context.Background(), RegisterInput{Email: "janet@example.com", Name: "Janet"})
	require.ErrorIs(t, err, models.ErrReferralCodeExhausted)
}

func TestRegisterInvalidatesReferrerDashboard(t *testing.T) {
	cache := newMemCache()
	s, _ := newTestService(t, WithStatsCache(cache))

	bob := mustRegister(t, s, "bob@example.com", "Bob", "")
	require.Empty(t, cache.invalidated)

	mustRegister(t, s, "alice@example.com", "Alice", bob.ReferralCode)
	require.Equal(t, []string{bob.ID}, cache.invalidated)
}
