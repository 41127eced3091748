package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"referral-credit-system/metrics"
	"referral-credit-system/models"
	"referral-credit-system/store"

	"go.uber.org/zap"
)

//go:generate mockgen -destination=./mock_uploader_test.go -package=services . ReportUploader

// ReportUploader stores exported reports, e.g. in an R2 bucket.
type ReportUploader interface {
	UploadReport(ctx context.Context, key string, body []byte, contentType string) error
}

var reportHeader = []string{"referral_id", "referrer_id", "referred_id", "referral_code_used", "credits_awarded", "converted_at"}

func ReportKey(day time.Time) string {
	return fmt.Sprintf("reports/referrals-%s.csv", day.UTC().Format(time.DateOnly))
}

// ExportReferralReport uploads a CSV of the referrals converted on the UTC day
// containing day and returns the object key.
func (s *ReferralService) ExportReferralReport(ctx context.Context, day time.Time, up ReportUploader) (string, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	refs, err := s.ledger.ListConvertedReferrals(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		return "", err
	}

	body, err := encodeReferralReport(refs)
	if err != nil {
		return "", err
	}

	key := ReportKey(from)
	if err := up.UploadReport(ctx, key, body, "text/csv"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Info("[REPORT] referral report uploaded", zap.String("key", key), zap.Int("rows", len(refs)))
	return key, nil
}

func encodeReferralReport(refs []models.Referral) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, r := range refs {
		convertedAt := ""
		if r.ConvertedAt != nil {
			convertedAt = r.ConvertedAt.UTC().Format(time.RFC3339)
		}
		row := []string{r.ID, r.ReferrerID, r.ReferredID, r.ReferralCodeUsed, fmt.Sprint(r.CreditsAwarded), convertedAt}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// RunAudit checks the ledger invariants and publishes the violation count.
func (s *ReferralService) RunAudit(ctx context.Context) (*store.AuditReport, error) {
	report, err := s.ledger.Audit(ctx)
	if err != nil {
		return nil, err
	}
	metrics.InvariantViolations.Set(float64(report.Violations()))
	if report.Violations() > 0 {
		s.logger.Error("[AUDIT] ledger invariant violations",
			zap.Strings("duplicate_first_purchases", report.DuplicateFirstPurchases),
			zap.Strings("inconsistent_referrals", report.InconsistentReferrals),
			zap.Strings("unrecorded_first_purchases", report.UnrecordedFirstPurchase),
		)
	}
	return report, nil
}
