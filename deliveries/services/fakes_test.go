package services

import (
	"context"
	"sync"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/repositories"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeDeliveryRepo is an in-memory stand-in for the gorm-backed repository.
// Methods a test does not exercise fall through to the embedded nil interface
// and panic, which is the desired failure mode.
type fakeDeliveryRepo struct {
	repositories.DeliveryRepository

	mu         sync.Mutex
	created    []*models.DeliveryRecord
	records    map[uuid.UUID]*models.DeliveryRecord
	vouchers   map[string]bool
	createErr  error
	updateErr  error
	fieldCalls []map[string]interface{}
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{
		records:  map[uuid.UUID]*models.DeliveryRecord{},
		vouchers: map[string]bool{},
	}
}

func (f *fakeDeliveryRepo) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeDeliveryRepo) CreateDelivery(tx *gorm.DB, delivery *models.DeliveryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	f.created = append(f.created, delivery)
	f.records[delivery.ID] = delivery
	if delivery.VoucherNumber != "" {
		f.vouchers[delivery.VoucherNumber] = true
	}
	return nil
}

func (f *fakeDeliveryRepo) UpdateDeliveryFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.fieldCalls = append(f.fieldCalls, fields)
	return nil
}

func (f *fakeDeliveryRepo) GetDeliveryByID(id uuid.UUID) (*models.DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeDeliveryRepo) VoucherExists(voucherNumber string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vouchers[voucherNumber], nil
}

func (f *fakeDeliveryRepo) GetDeliveriesByIDs(ids []uuid.UUID) ([]models.DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeliveryRecord
	for _, id := range ids {
		if record, ok := f.records[id]; ok {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeDeliveryRepo) FindOrCreateContractor(tx *gorm.DB, name string, createdBy string) (*models.Contractor, error) {
	return &models.Contractor{ID: uuid.New(), Name: name, CreatedBy: createdBy}, nil
}

func (f *fakeDeliveryRepo) FindOrCreateSupplier(tx *gorm.DB, name string, createdBy string) (*models.Supplier, error) {
	return &models.Supplier{ID: uuid.New(), Name: name, CreatedBy: createdBy}, nil
}

type fakeImportRepo struct {
	repositories.ImportRepository

	mu        sync.Mutex
	statuses  map[uuid.UUID]models.ImportStatus
	conflicts []*models.ImportConflict
	finalized *models.ImportBatch
	failedMsg string
}

func newFakeImportRepo() *fakeImportRepo {
	return &fakeImportRepo{statuses: map[uuid.UUID]models.ImportStatus{}}
}

func (f *fakeImportRepo) MarkBatchProcessing(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = models.ImportStatusProcessing
	return nil
}

func (f *fakeImportRepo) FinalizeBatch(id uuid.UUID, status models.ImportStatus, total, imported, conflicts, errs int, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	f.finalized = &models.ImportBatch{
		ID:           id,
		Status:       status,
		TotalRows:    total,
		ImportedRows: imported,
		ConflictRows: conflicts,
		ErrorRows:    errs,
	}
	return nil
}

func (f *fakeImportRepo) MarkBatchFailed(id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = models.ImportStatusFailed
	f.failedMsg = errMsg
	return nil
}

func (f *fakeImportRepo) LogConflict(conflict *models.ImportConflict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conflict.ID == uuid.Nil {
		conflict.ID = uuid.New()
	}
	conflict.Resolution = models.ResolutionPending
	f.conflicts = append(f.conflicts, conflict)
	return nil
}

func (f *fakeImportRepo) GetPendingConflictByID(id uuid.UUID) (*models.ImportConflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conflicts {
		if c.ID == id && c.Resolution == models.ResolutionPending {
			return c, nil
		}
	}
	return nil, repositories.ErrConflictNotFound
}

func (f *fakeImportRepo) GetConflictByID(id uuid.UUID) (*models.ImportConflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conflicts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrConflictNotFound
}

func (f *fakeImportRepo) MarkConflictResolved(id uuid.UUID, status models.ResolutionStatus, action models.ResolutionAction, data datatypes.JSON, resolvedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conflicts {
		if c.ID == id && c.Resolution == models.ResolutionPending {
			now := time.Now()
			c.Resolution = status
			c.ResolutionAction = &action
			c.ResolutionData = data
			c.ResolvedBy = &resolvedBy
			c.ResolvedAt = &now
			return nil
		}
	}
	return repositories.ErrConflictNotFound
}

type fakeAuditRepo struct {
	repositories.AuditRepository

	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAuditRepo) LogAudit(tx *gorm.DB, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type progressEvent struct {
	processed int
	total     int
	status    string
}

type fakeProgress struct {
	mu     sync.Mutex
	events []progressEvent
}

func (f *fakeProgress) PublishImportProgress(batchID uuid.UUID, processed, total int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, progressEvent{processed: processed, total: total, status: status})
}
