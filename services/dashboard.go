package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"referral-credit-system/models"
	"referral-credit-system/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ReferredAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReferralView is the listing projection of a referral.
type ReferralView struct {
	ID             string                `json:"id"`
	Status         models.ReferralStatus `json:"status"`
	CreditsAwarded bool                  `json:"creditsAwarded"`
	CreatedAt      time.Time             `json:"createdAt"`
	ConvertedAt    *time.Time            `json:"convertedAt,omitempty"`
	Referred       *ReferredAccount      `json:"referred,omitempty"`
}

type DashboardUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ReferralCode string `json:"referralCode"`
	Credits      int64  `json:"credits"`
}

type DashboardStats struct {
	TotalReferrals     int64  `json:"totalReferrals"`
	ConvertedReferrals int64  `json:"convertedReferrals"`
	TotalCreditsEarned int64  `json:"totalCreditsEarned"`
	ReferralLink       string `json:"referralLink"`
}

type Dashboard struct {
	User  DashboardUser  `json:"user"`
	Stats DashboardStats `json:"stats"`
}

// ListReferrals returns the referrals made by accountID, newest first.
func (s *ReferralService) ListReferrals(ctx context.Context, accountID string) ([]ReferralView, error) {
	if _, err := s.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	refs, err := s.ledger.ListReferralsByReferrer(ctx, accountID)
	if err != nil {
		return nil, err
	}

	views := make([]ReferralView, 0, len(refs))
	for _, r := range refs {
		v := ReferralView{
			ID:             r.ID,
			Status:         r.Status,
			CreditsAwarded: r.CreditsAwarded,
			CreatedAt:      r.CreatedAt,
			ConvertedAt:    r.ConvertedAt,
		}
		if r.Referred != nil {
			v.Referred = &ReferredAccount{
				ID:        r.Referred.ID,
				Name:      r.Referred.Name,
				Email:     r.Referred.Email,
				CreatedAt: r.Referred.CreatedAt,
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// GetDashboardStats aggregates referral counts and credits for accountID.
func (s *ReferralService) GetDashboardStats(ctx context.Context, accountID string) (*Dashboard, error) {
	if dash := s.cachedDashboard(ctx, accountID); dash != nil {
		return dash, nil
	}
	// Read before the ledger so a settlement committing meanwhile voids our write.
	version, cacheable := s.dashboardVersion(ctx, accountID)

	acct, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var total, converted int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.ledger.CountReferrals(gctx, accountID, "")
		return err
	})
	g.Go(func() (err error) {
		converted, err = s.ledger.CountReferrals(gctx, accountID, models.ReferralStatusConverted)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash := &Dashboard{
		User: DashboardUser{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			ReferralCode: acct.ReferralCode,
			Credits:      acct.Credits,
		},
		Stats: DashboardStats{
			TotalReferrals:     total,
			ConvertedReferrals: converted,
			TotalCreditsEarned: acct.Credits,
			ReferralLink:       s.ReferralLink(acct.ReferralCode),
		},
	}
	if cacheable {
		s.storeDashboard(ctx, accountID, dash, version)
	}
	return dash, nil
}

// ReferralLink builds the shareable registration URL for a code.
func (s *ReferralService) ReferralLink(code string) string {
	return s.linkBase + "/register?" + url.Values{"r": {code}}.Encode()
}

func (s *ReferralService) cachedDashboard(ctx context.Context, accountID string) *Dashboard {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			s.logger.Warn("[CACHE] dashboard read failed", zap.String("account_id", accountID), zap.Error(err))
		}
		return nil
	}
	var dash Dashboard
	if err := json.Unmarshal(payload, &dash); err != nil {
		s.logger.Warn("[CACHE] dashboard payload corrupt", zap.String("account_id", accountID), zap.Error(err))
		return nil
	}
	return &dash
}

func (s *ReferralService) dashboardVersion(ctx context.Context, accountID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx, accountID)
	if err != nil {
		s.logger.Warn("[CACHE] dashboard version read failed", zap.String("account_id", accountID), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (s *ReferralService) storeDashboard(ctx context.Context, accountID string, dash *Dashboard, version int64) {
	payload, err := json.Marshal(dash)
	if err != nil {
		return
	}
	err = s.cache.Set(ctx, accountID, payload, version)
	switch {
	case errors.Is(err, store.ErrCacheStale):
		s.logger.Debug("[CACHE] dashboard invalidated while computing, not cached", zap.String("account_id", accountID))
	case err != nil:
		s.logger.Warn("[CACHE] dashboard write failed", zap.String("account_id", accountID), zap.Error(err))
	}
}
