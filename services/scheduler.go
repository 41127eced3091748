package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartScheduler runs the ledger audit every auditInterval and, when uploader is
// set, exports the previous day's referral report shortly after midnight UTC.
// Callers own the returned scheduler and must shut it down.
func (s *ReferralService) StartScheduler(ctx context.Context, auditInterval time.Duration, uploader ReportUploader) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(auditInterval),
		gocron.NewTask(func() {
			if _, err := s.RunAudit(ctx); err != nil {
				s.logger.Error("[AUDIT] audit failed", zap.Error(err))
			}
		}),
		gocron.WithName("ledger-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule audit: %w", err)
	}

	if uploader != nil {
		_, err = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 15, 0))),
			gocron.NewTask(func() {
				day := s.now().Add(-24 * time.Hour)
				if _, err := s.ExportReferralReport(ctx, day, uploader); err != nil {
					s.logger.Error("[REPORT] export failed", zap.Error(err))
				}
			}),
			gocron.WithName("referral-report"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule report: %w", err)
		}
	}

	sched.Start()
	s.logger.Info("[SCHEDULER] started", zap.Duration("audit_interval", auditInterval), zap.Bool("reports", uploader != nil))
	return sched, nil
}
