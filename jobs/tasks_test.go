package jobs

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImportBatchTask_RoundTripsPayload(t *testing.T) {
	payload := ImportBatchPayload{
		BatchID:    uuid.New(),
		FilePath:   "./uploads/march.xlsx",
		ActorEmail: "ops@site.test",
	}

	task, err := NewImportBatchTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeImportBatch, task.Type())

	var decoded ImportBatchPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload.BatchID, decoded.BatchID)
	assert.Equal(t, payload.FilePath, decoded.FilePath)
	assert.Equal(t, payload.ActorEmail, decoded.ActorEmail)
}

func TestNewRecomputeTask_CarriesScope(t *testing.T) {
	supplierID := uuid.New()
	task, err := NewRecomputeTask(RecomputePayload{
		Scope:      ScopeSupplier,
		SupplierID: &supplierID,
		ActorEmail: "ops@site.test",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeRecompute, task.Type())

	var decoded RecomputePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, ScopeSupplier, decoded.Scope)
	require.NotNil(t, decoded.SupplierID)
	assert.Equal(t, supplierID, *decoded.SupplierID)
}

func TestNewReportTask_OmitsEmptyOptionals(t *testing.T) {
	task, err := NewReportTask(ReportPayload{
		Kind:       ReportDeliveryRegister,
		From:       "2024-03-01",
		To:         "2024-03-31",
		ActorEmail: "ops@site.test",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeReport, task.Type())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(task.Payload(), &raw))
	assert.NotContains(t, raw, "batch_id")
	assert.NotContains(t, raw, "supplier_id")
	assert.NotContains(t, raw, "recipient")
}
