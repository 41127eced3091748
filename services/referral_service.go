package services

import (
	"context"
	"strings"
	"time"

	"referral-credit-system/store"

	"go.uber.org/zap"
)

const DefaultReferralBaseURL = "https://referral-system-amber.vercel.app"

// StatsCache stores serialized dashboard projections. Implementations must
// return store.ErrCacheMiss for absent keys, and store.ErrCacheStale from Set
// when the account was invalidated after Version was read.
type StatsCache interface {
	Get(ctx context.Context, accountID string) ([]byte, error)
	Version(ctx context.Context, accountID string) (int64, error)
	Set(ctx context.Context, accountID string, payload []byte, version int64) error
	Invalidate(ctx context.Context, accountIDs ...string) error
}

// ReferralService owns every write to accounts, referrals and purchases.
type ReferralService struct {
	ledger   *store.Ledger
	codes    *CodeGenerator
	cache    StatsCache
	logger   *zap.Logger
	linkBase string
	now      func() time.Time
}

type Option func(*ReferralService)

func WithStatsCache(c StatsCache) Option {
	return func(s *ReferralService) { s.cache = c }
}

func WithReferralBaseURL(base string) Option {
	return func(s *ReferralService) {
		if base != "" {
			s.linkBase = strings.TrimRight(base, "/")
		}
	}
}

func WithCodeGenerator(g *CodeGenerator) Option {
	return func(s *ReferralService) { s.codes = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *ReferralService) { s.now = now }
}

func NewReferralService(ledger *store.Ledger, logger *zap.Logger, opts ...Option) *ReferralService {
	s := &ReferralService{
		ledger:   ledger,
		codes:    NewCodeGenerator(),
		logger:   logger,
		linkBase: DefaultReferralBaseURL,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invalidate drops cached dashboards. Failures only cost freshness.
func (s *ReferralService) invalidate(ctx context.Context, accountIDs ...string) {
	if s.cache == nil || len(accountIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, accountIDs...); err != nil {
		s.logger.Warn("[CACHE] invalidate failed", zap.Strings("accounts", accountIDs), zap.Error(err))
	}
}
