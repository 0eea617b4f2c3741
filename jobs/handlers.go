package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/deliveries/services"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handlers holds the task handlers the orchestrator dispatches to.
type Handlers struct {
	importer   *services.ImportService
	recompute  *services.RecomputeService
	importRepo repositories.ImportRepository
	reports    ReportRunner
	logger     *zap.Logger
}

func NewHandlers(
	importer *services.ImportService,
	recompute *services.RecomputeService,
	importRepo repositories.ImportRepository,
	reports ReportRunner,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		importer:   importer,
		recompute:  recompute,
		importRepo: importRepo,
		reports:    reports,
		logger:     logger,
	}
}

func (h *Handlers) HandleImportBatch(ctx context.Context, task *asynq.Task) error {
	var payload ImportBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid import payload: %v: %w", err, asynq.SkipRetry)
	}

	data, err := os.ReadFile(payload.FilePath)
	if err != nil {
		// The stored workbook is gone; retrying cannot bring it back.
		return fmt.Errorf("failed to read stored workbook: %v: %w", err, asynq.SkipRetry)
	}

	result, err := h.importer.ProcessImport(ctx, data, payload.Mapping, payload.BatchID, payload.ActorEmail)
	if err != nil {
		return fmt.Errorf("import batch %s failed: %w", payload.BatchID, err)
	}

	h.logger.Info("import task finished",
		zap.String("batch_id", payload.BatchID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("conflicts", result.Conflicts),
	)

	// The workbook served its purpose once the batch reaches a terminal state.
	if err := os.Remove(payload.FilePath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove stored workbook",
			zap.String("path", payload.FilePath),
			zap.Error(err),
		)
	}

	// Send the importing user a conflict summary when rows were rejected, so
	// review can start without polling the batch. Best-effort.
	if result.Conflicts > 0 && h.reports != nil && payload.ActorEmail != "" {
		batchID := payload.BatchID
		if err := h.reports.Run(ctx, ReportPayload{
			Kind:       ReportConflictSummary,
			BatchID:    &batchID,
			Recipient:  payload.ActorEmail,
			ActorEmail: payload.ActorEmail,
		}); err != nil {
			h.logger.Warn("failed to deliver conflict summary",
				zap.String("batch_id", payload.BatchID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (h *Handlers) HandleRecompute(ctx context.Context, task *asynq.Task) error {
	var payload RecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid recompute payload: %v: %w", err, asynq.SkipRetry)
	}

	switch payload.Scope {
	case ScopeRecord:
		if payload.RecordID == nil {
			return fmt.Errorf("record scope without record_id: %w", asynq.SkipRetry)
		}
		_, err := h.recompute.RecomputeOne(ctx, *payload.RecordID, payload.ActorEmail)
		return err
	case ScopeSupplier:
		if payload.SupplierID == nil {
			return fmt.Errorf("supplier scope without supplier_id: %w", asynq.SkipRetry)
		}
		_, err := h.recompute.RecomputeBySupplier(ctx, *payload.SupplierID, payload.ActorEmail)
		return err
	case ScopeDateRange:
		from, err := time.Parse("2006-01-02", payload.From)
		if err != nil {
			return fmt.Errorf("invalid from date: %v: %w", err, asynq.SkipRetry)
		}
		to, err := time.Parse("2006-01-02", payload.To)
		if err != nil {
			return fmt.Errorf("invalid to date: %v: %w", err, asynq.SkipRetry)
		}
		_, err = h.recompute.RecomputeDateRange(ctx, from, to, payload.ActorEmail)
		return err
	case ScopeIDs:
		_, err := h.recompute.RecomputeByIDs(ctx, payload.IDs, payload.ActorEmail)
		return err
	default:
		return fmt.Errorf("unknown recompute scope %q: %w", payload.Scope, asynq.SkipRetry)
	}
}

func (h *Handlers) HandleReport(ctx context.Context, task *asynq.Task) error {
	var payload ReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid report payload: %v: %w", err, asynq.SkipRetry)
	}
	if h.reports == nil {
		return fmt.Errorf("report runner not configured: %w", asynq.SkipRetry)
	}
	return h.reports.Run(ctx, payload)
}

// OnRetriesExhausted marks the owning batch failed when an import task gives
// up, so the batch never sits in processing forever.
func (h *Handlers) OnRetriesExhausted(ctx context.Context, task *asynq.Task, taskErr error) {
	if task.Type() != TypeImportBatch {
		return
	}
	var payload ImportBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return
	}
	if err := h.importRepo.MarkBatchFailed(payload.BatchID, taskErr.Error()); err != nil {
		h.logger.Error("failed to mark batch failed after retry exhaustion",
			zap.String("batch_id", payload.BatchID.String()),
			zap.Error(err),
		)
	}
}
