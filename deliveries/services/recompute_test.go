package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newRecomputeHarness() (*RecomputeService, *fakeDeliveryRepo, *fakeAuditRepo) {
	deliveryRepo := newFakeDeliveryRepo()
	auditRepo := &fakeAuditRepo{}
	return NewRecomputeService(deliveryRepo, auditRepo, zap.NewNop()), deliveryRepo, auditRepo
}

func seedRecord(repo *fakeDeliveryRepo, volume, price, gross, net string) *models.DeliveryRecord {
	record := &models.DeliveryRecord{
		ID:           uuid.New(),
		DeliveryDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	if volume != "" {
		record.Volume = dec(volume)
	}
	if price != "" {
		record.UnitPrice = dec(price)
	}
	if gross != "" {
		record.GrossValue = dec(gross)
	}
	if net != "" {
		record.NetValue = dec(net)
	}
	repo.records[record.ID] = record
	return record
}

func TestRecomputeOne_CorrectsStaleValues(t *testing.T) {
	svc, deliveryRepo, auditRepo := newRecomputeHarness()
	record := seedRecord(deliveryRepo, "10", "5", "999", "")

	changed, err := svc.RecomputeOne(context.Background(), record.ID, "ops@site.test")
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, deliveryRepo.fieldCalls, 1)
	fields := deliveryRepo.fieldCalls[0]
	assert.Equal(t, "50.00", fields["gross_value"].(decimal.Decimal).StringFixed(2))
	assert.Equal(t, "50.00", fields["net_value"].(decimal.Decimal).StringFixed(2))
	assert.Equal(t, "ops@site.test", fields["updated_by"])

	// The in-memory record is refreshed so callers see the new values.
	require.NotNil(t, record.GrossValue)
	assert.Equal(t, "50.00", record.GrossValue.StringFixed(2))

	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, models.AuditActionUpdate, auditRepo.entries[0].Action)
	assert.Equal(t, record.ID.String(), auditRepo.entries[0].RecordID)
}

func TestRecomputeOne_ConsistentRecordUntouched(t *testing.T) {
	svc, deliveryRepo, auditRepo := newRecomputeHarness()
	record := seedRecord(deliveryRepo, "10", "5", "50", "50")

	changed, err := svc.RecomputeOne(context.Background(), record.ID, "ops@site.test")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, deliveryRepo.fieldCalls)
	assert.Empty(t, auditRepo.entries)
}

func TestRecomputeOne_RecordNotFound(t *testing.T) {
	svc, _, _ := newRecomputeHarness()

	_, err := svc.RecomputeOne(context.Background(), uuid.New(), "ops@site.test")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecomputeByIDs_CountsExaminedAndTouched(t *testing.T) {
	svc, deliveryRepo, _ := newRecomputeHarness()
	stale := seedRecord(deliveryRepo, "10", "5", "999", "")
	consistent := seedRecord(deliveryRepo, "2", "3", "6", "6")

	result, err := svc.RecomputeByIDs(
		context.Background(),
		[]uuid.UUID{stale.ID, consistent.ID, uuid.New()},
		"ops@site.test",
	)
	require.NoError(t, err)

	// The unknown ID simply matches nothing; it is not examined.
	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 1, result.Touched)
	assert.Equal(t, 0, result.Skipped)
}

func TestRecomputeByIDs_FailedRecordIsSkippedNotFatal(t *testing.T) {
	svc, deliveryRepo, _ := newRecomputeHarness()
	stale := seedRecord(deliveryRepo, "10", "5", "999", "")
	consistent := seedRecord(deliveryRepo, "2", "3", "6", "6")
	deliveryRepo.updateErr = errors.New("connection reset")

	result, err := svc.RecomputeByIDs(
		context.Background(),
		[]uuid.UUID{stale.ID, consistent.ID},
		"ops@site.test",
	)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 0, result.Touched)
	assert.Equal(t, 1, result.Skipped)
}

func TestRecomputeByIDs_CancelledContextStopsSweep(t *testing.T) {
	svc, deliveryRepo, _ := newRecomputeHarness()
	stale := seedRecord(deliveryRepo, "10", "5", "999", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RecomputeByIDs(ctx, []uuid.UUID{stale.ID}, "ops@site.test")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, deliveryRepo.fieldCalls)
}
