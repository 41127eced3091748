package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"referral-credit-system/models"
	"referral-credit-system/store"
	"referral-credit-system/store/storetest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newTestService(t *testing.T, opts ...Option) (*ReferralService, *store.Ledger) {
	t.Helper()
	ledger := storetest.NewLedger(t)
	return NewReferralService(ledger, zap.NewNop(), opts...), ledger
}

// sequenceCodes returns a generator whose suffixes come from vals, then repeat the last one.
func sequenceCodes(vals ...int) *CodeGenerator {
	var mu sync.Mutex
	i := 0
	return &CodeGenerator{
		upper: cases.Upper(language.Und),
		intN: func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			v := vals[min(i, len(vals)-1)]
			i++
			return v % n
		},
	}
}

func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func mustRegister(t *testing.T, s *ReferralService, email, name, code string) *models.Account {
	t.Helper()
	acct, err := s.RegisterAccount(context.Background(), RegisterInput{Email: email, Name: name, ReferralCode: code})
	require.NoError(t, err)
	return acct
}

func reload(t *testing.T, l *store.Ledger, id string) *models.Account {
	t.Helper()
	acct, err := l.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acct
}

func referralBetween(t *testing.T, l *store.Ledger, referrerID, referredID string) models.Referral {
	t.Helper()
	var ref models.Referral
	require.NoError(t, l.DB().Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).First(&ref).Error)
	return ref
}

func purchasesOf(t *testing.T, l *store.Ledger, accountID string) []models.Purchase {
	t.Helper()
	var ps []models.Purchase
	require.NoError(t, l.DB().Where("account_id = ?", accountID).Order("created_at ASC").Find(&ps).Error)
	return ps
}

// memCache is a StatsCache that records invalidations. beforeSet, when set,
// runs once ahead of the next Set.
type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	gens        map[string]int64
	invalidated []string
	gets, sets  int
	beforeSet   func()
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *memCache) Get(_ context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[id]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Version(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id], nil
}

func (c *memCache) Set(_ context.Context, id string, payload []byte, version int64) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[id] != version {
		return store.ErrCacheStale
	}
	c.sets++
	c.data[id] = payload
	return nil
}

func (c *memCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.gens[id]++
		delete(c.data, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}
