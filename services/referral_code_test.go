package services

import (
	"context"
	"testing"

	"referral-credit-system/models"
	"referral-credit-system/store"
	"referral-credit-system/store/storetest"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		suffix   int
		expected string
	}{
		{"Jane Doe", 42, "JANE042"},
		{"al", 7, "AL007"},
		{"José Núñez", 999, "JOSE999"},
		{"Zoë", 0, "ZOE000"},
		{"o'Brien-Smith", 123, "OBRI123"},
		{"1234 !!", 5, "REF005"},
		{"", 10, "REF010"},
	}

	for _, ts := range tests {
		g := sequenceCodes(ts.suffix)
		require.Equal(t, ts.expected, g.Generate(ts.name), "name=%q", ts.name)
	}
}

func TestGenerateDefaultShape(t *testing.T) {
	g := NewCodeGenerator()
	for i := 0; i < 50; i++ {
		require.Regexp(t, `^MARI\d{3}$`, g.Generate("Maria Lopez"))
	}
}

func TestUniqueSkipsTakenCodes(t *testing.T) {
	l := storetest.NewLedger(t)
	ctx := context.Background()
	require.NoError(t, l.WithTransaction(ctx, func(tx *store.Tx) error {
		return tx.CreateAccount(&models.Account{Email: "j@example.com", Name: "Jane", ReferralCode: "JANE001"})
	}))

	g := sequenceCodes(1, 1, 2)
	var code string
	require.NoError(t, l.WithTransaction(ctx, func(tx *store.Tx) (err error) {
		code, err = g.Unique(tx, "Jane")
		return err
	}))
	require.Equal(t, "JANE002", code)

	stuck := sequenceCodes(1)
	err := l.WithTransaction(ctx, func(tx *store.Tx) error {
		_, err := stuck.Unique(tx, "Jane")
		return err
	})
	require.ErrorIs(t, err, models.ErrReferralCodeExhausted)
	require.ErrorIs(t, err, models.ErrConflict)
}
