package reports

import (
	"context"
	"fmt"
	"time"

	"delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/utils"

	"go.uber.org/zap"
)

// Runner renders report tasks into files under ./public/files and optionally
// emails the result. It implements jobs.ReportRunner.
type Runner struct {
	deliveryRepo repositories.DeliveryRepository
	importRepo   repositories.ImportRepository
	logger       *zap.Logger
}

func NewRunner(
	deliveryRepo repositories.DeliveryRepository,
	importRepo repositories.ImportRepository,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		deliveryRepo: deliveryRepo,
		importRepo:   importRepo,
		logger:       logger,
	}
}

func (r *Runner) Run(ctx context.Context, payload jobs.ReportPayload) error {
	var (
		diskPath string
		title    string
		err      error
	)

	switch payload.Kind {
	case jobs.ReportDeliveryRegister:
		diskPath, title, err = r.runDeliveryRegister(payload)
	case jobs.ReportConflictSummary:
		diskPath, title, err = r.runConflictSummary(payload)
	case jobs.ReportDeliveryStatement:
		diskPath, title, err = r.runDeliveryStatement(ctx, payload)
	default:
		return fmt.Errorf("unknown report kind: %s", payload.Kind)
	}
	if err != nil {
		return err
	}

	r.logger.Info("Report generated",
		zap.String("kind", string(payload.Kind)),
		zap.String("path", diskPath),
		zap.String("requested_by", payload.ActorEmail),
	)

	if payload.Recipient != "" {
		message := fmt.Sprintf("Please find attached the %s you requested.", title)
		if err := utils.SendEmail(payload.Recipient, message, title, diskPath); err != nil {
			return fmt.Errorf("report rendered but delivery failed: %w", err)
		}
	}
	return nil
}

// parseDateRange reads the payload's from/to dates. A missing range defaults
// to the last 30 days so an unscoped register is still bounded.
func parseDateRange(payload jobs.ReportPayload) (time.Time, time.Time, error) {
	to := utils.Today()
	from := to.AddDate(0, 0, -30)

	if payload.From != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.From, utils.DateLocation)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q: %w", payload.From, err)
		}
		from = parsed
	}
	if payload.To != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.To, utils.DateLocation)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q: %w", payload.To, err)
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("report range ends before it starts")
	}
	return from, to, nil
}
