package services

import (
	"context"
	"testing"

	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolverHarness() (*ConflictResolver, *fakeDeliveryRepo, *fakeImportRepo, *fakeAuditRepo) {
	deliveryRepo := newFakeDeliveryRepo()
	importRepo := newFakeImportRepo()
	auditRepo := &fakeAuditRepo{}
	importer := NewImportService(deliveryRepo, importRepo, auditRepo, nil, nil, zap.NewNop())
	resolver := NewConflictResolver(importer, importRepo, auditRepo, zap.NewNop())
	return resolver, deliveryRepo, importRepo, auditRepo
}

func seedConflict(importRepo *fakeImportRepo) *models.ImportConflict {
	conflict := &models.ImportConflict{
		BatchID:  uuid.New(),
		RowIndex: 7,
		Reason:   models.ConflictInvalidData,
		Detail:   "unparseable values: Volume",
	}
	_ = importRepo.LogConflict(conflict)
	return conflict
}

func TestResolveConflict_ImportCorrectedRow(t *testing.T) {
	resolver, deliveryRepo, importRepo, auditRepo := newResolverHarness()
	conflict := seedConflict(importRepo)

	resolved, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionImport,
		Fields: map[string]string{
			"delivery_date":  "15/03/2024",
			"voucher_number": "PX-201",
			"volume":         "12.5",
			"unit_price":     "100",
			"discount":       "0",
		},
	}, "reviewer@site.test")
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionResolved, resolved.Resolution)
	require.NotNil(t, resolved.ResolutionAction)
	assert.Equal(t, models.ResolutionActionImport, *resolved.ResolutionAction)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "reviewer@site.test", *resolved.ResolvedBy)

	// The corrected row went through the shared persistence pipeline.
	require.Len(t, deliveryRepo.created, 1)
	record := deliveryRepo.created[0]
	assert.Equal(t, "PX-201", record.VoucherNumber)
	assert.Equal(t, "2024-03-15", record.DeliveryDate.Format("2006-01-02"))
	assert.Equal(t, 7, record.SourceRow)
	require.NotNil(t, record.NetValue)
	assert.Equal(t, "1250.00", record.NetValue.StringFixed(2))

	// One persist audit entry plus one resolution audit entry.
	require.Len(t, auditRepo.entries, 2)
	assert.Equal(t, models.AuditActionResolve, auditRepo.entries[0].Action)
	assert.Equal(t, "import_conflicts", auditRepo.entries[1].TableName)
}

func TestResolveConflict_NumericVoucherCorrection(t *testing.T) {
	resolver, deliveryRepo, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionImport,
		Fields: map[string]string{
			"delivery_date":  "2024-03-15",
			"voucher_number": "90210",
		},
	}, "reviewer@site.test")
	require.NoError(t, err)

	require.Len(t, deliveryRepo.created, 1)
	assert.Equal(t, "90210", deliveryRepo.created[0].VoucherNumber)
}

func TestResolveConflict_KeepNewRecordsOutcomeOnly(t *testing.T) {
	resolver, deliveryRepo, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	// No corrected fields at all; keep_new is a decision, not a row.
	resolved, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionKeepNew,
	}, "reviewer@site.test")
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionResolved, resolved.Resolution)
	require.NotNil(t, resolved.ResolutionAction)
	assert.Equal(t, models.ResolutionActionKeepNew, *resolved.ResolutionAction)
	assert.Empty(t, deliveryRepo.created)
}

func TestResolveConflict_MergeDoesNotPersist(t *testing.T) {
	resolver, deliveryRepo, importRepo, auditRepo := newResolverHarness()
	conflict := seedConflict(importRepo)

	resolved, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionMerge,
		Fields: map[string]string{
			"delivery_date":  "2024-03-15",
			"voucher_number": "PX-301",
		},
	}, "reviewer@site.test")
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionResolved, resolved.Resolution)
	assert.Empty(t, deliveryRepo.created)

	// Only the resolution itself is audited, never a delivery write.
	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, "import_conflicts", auditRepo.entries[0].TableName)
}

func TestResolveConflict_SkipIgnoresWithoutPersisting(t *testing.T) {
	resolver, deliveryRepo, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	resolved, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionSkip,
	}, "reviewer@site.test")
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionIgnored, resolved.Resolution)
	assert.Empty(t, deliveryRepo.created)
}

func TestResolveConflict_DoubleResolveFails(t *testing.T) {
	resolver, _, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionSkip,
	}, "reviewer@site.test")
	require.NoError(t, err)

	_, err = resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionSkip,
	}, "reviewer@site.test")
	assert.ErrorIs(t, err, ErrConflictAlreadyResolved)
}

func TestResolveConflict_UnknownConflict(t *testing.T) {
	resolver, _, _, _ := newResolverHarness()

	_, err := resolver.ResolveConflict(context.Background(), uuid.New(), ResolutionRequest{
		Action: models.ResolutionActionSkip,
	}, "reviewer@site.test")
	assert.ErrorIs(t, err, ErrConflictAlreadyResolved)
}

func TestResolveConflict_UnknownAction(t *testing.T) {
	resolver, _, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: "destroy",
	}, "reviewer@site.test")
	assert.ErrorIs(t, err, ErrUnknownResolutionAction)

	// The conflict must still be pending after a rejected action.
	pending, err := importRepo.GetPendingConflictByID(conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionPending, pending.Resolution)
}

func TestResolveConflict_ImportRequiresDeliveryDate(t *testing.T) {
	resolver, deliveryRepo, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionImport,
		Fields: map[string]string{"voucher_number": "PX-202"},
	}, "reviewer@site.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery date")
	assert.Empty(t, deliveryRepo.created)
}

func TestResolveConflict_RejectsBadCorrection(t *testing.T) {
	resolver, _, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionImport,
		Fields: map[string]string{
			"delivery_date": "2024-03-15",
			"volume":        "a lot",
		},
	}, "reviewer@site.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume")

	// Rejected corrections leave the conflict pending.
	_, err = importRepo.GetPendingConflictByID(conflict.ID)
	assert.NoError(t, err)
}

func TestResolveConflict_UnknownFieldRejected(t *testing.T) {
	resolver, _, importRepo, _ := newResolverHarness()
	conflict := seedConflict(importRepo)

	_, err := resolver.ResolveConflict(context.Background(), conflict.ID, ResolutionRequest{
		Action: models.ResolutionActionImport,
		Fields: map[string]string{
			"delivery_date": "2024-03-15",
			"favourite":     "blue",
		},
	}, "reviewer@site.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "favourite")
}
