package jobs

import (
	"encoding/json"
	"time"

	"delivery-ledger-backend/deliveries/services"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names. The prefix doubles as the queue routing key.
const (
	TypeImportBatch = "import:batch"
	TypeRecompute   = "recompute:deliveries"
	TypeReport      = "report:generate"
)

// Queue names with their worker concurrency tuned per workload: imports are
// heavy and few, recomputes are light and parallel, reports are serialized.
const (
	QueueImports   = "imports"
	QueueRecompute = "recompute"
	QueueReports   = "reports"
)

// ImportBatchPayload tells a worker which stored workbook to process with
// which confirmed mapping.
type ImportBatchPayload struct {
	BatchID    uuid.UUID              `json:"batch_id"`
	FilePath   string                 `json:"file_path"`
	Mapping    services.ImportMapping `json:"mapping"`
	ActorEmail string                 `json:"actor_email"`
}

func NewImportBatchTask(payload ImportBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImportBatch, data,
		asynq.Queue(QueueImports),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
	), nil
}

// RecomputeScope selects which records a recompute task sweeps.
type RecomputeScope string

const (
	ScopeRecord    RecomputeScope = "record"
	ScopeSupplier  RecomputeScope = "supplier"
	ScopeDateRange RecomputeScope = "date_range"
	ScopeIDs       RecomputeScope = "ids"
)

type RecomputePayload struct {
	Scope      RecomputeScope `json:"scope"`
	RecordID   *uuid.UUID     `json:"record_id,omitempty"`
	SupplierID *uuid.UUID     `json:"supplier_id,omitempty"`
	From       string         `json:"from,omitempty"` // YYYY-MM-DD
	To         string         `json:"to,omitempty"`   // YYYY-MM-DD
	IDs        []uuid.UUID    `json:"ids,omitempty"`
	ActorEmail string         `json:"actor_email"`
}

func NewRecomputeTask(payload RecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecompute, data,
		asynq.Queue(QueueRecompute),
		asynq.MaxRetry(5),
		asynq.Timeout(15*time.Minute),
	), nil
}

// ReportKind selects which document a report task renders.
type ReportKind string

const (
	ReportDeliveryRegister  ReportKind = "delivery_register"
	ReportConflictSummary   ReportKind = "conflict_summary"
	ReportDeliveryStatement ReportKind = "delivery_statement"
)

type ReportPayload struct {
	Kind       ReportKind `json:"kind"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Recipient  string     `json:"recipient,omitempty"` // email the rendered report
	ActorEmail string     `json:"actor_email"`
}

func NewReportTask(payload ReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReport, data,
		asynq.Queue(QueueReports),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	), nil
}
