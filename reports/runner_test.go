package reports

import (
	"os"
	"testing"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := utils.InitializeDateLocation(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestParseDateRange_ExplicitRange(t *testing.T) {
	from, to, err := parseDateRange(jobs.ReportPayload{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", from.Format("2006-01-02"))
	assert.Equal(t, "2024-03-31", to.Format("2006-01-02"))
}

func TestParseDateRange_DefaultsToLastThirtyDays(t *testing.T) {
	from, to, err := parseDateRange(jobs.ReportPayload{})
	require.NoError(t, err)
	assert.Equal(t, utils.Today(), to)
	assert.Equal(t, to.AddDate(0, 0, -30), from)
}

func TestParseDateRange_RejectsInvertedRange(t *testing.T) {
	_, _, err := parseDateRange(jobs.ReportPayload{From: "2024-03-31", To: "2024-03-01"})
	assert.Error(t, err)
}

func TestParseDateRange_RejectsBadDate(t *testing.T) {
	_, _, err := parseDateRange(jobs.ReportPayload{From: "03/01/2024"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from date")
}

func TestFlattenRowData(t *testing.T) {
	out := flattenRowData([]byte(`{"Voucher":"PX-101","Date":"2024-03-15"}`))
	assert.Equal(t, "Date: 2024-03-15; Voucher: PX-101", out)
}

func TestFlattenRowData_PassesThroughNonJSON(t *testing.T) {
	assert.Equal(t, "", flattenRowData(nil))
	assert.Equal(t, "raw cells", flattenRowData([]byte("raw cells")))
}

func TestFormatHelpers(t *testing.T) {
	money := decimal.RequireFromString("1250.5")
	volume := decimal.RequireFromString("12.5")

	assert.Equal(t, "1250.50", formatMoney(&money))
	assert.Equal(t, "", formatMoney(nil))
	assert.Equal(t, "12.500", formatVolume(&volume))
	assert.Equal(t, "", formatVolume(nil))
}

func statementFixture(date, gross, discount, net string) models.DeliveryRecord {
	day, _ := time.ParseInLocation("2006-01-02", date, utils.DateLocation)
	grossVal := decimal.RequireFromString(gross)
	netVal := decimal.RequireFromString(net)
	return models.DeliveryRecord{
		DeliveryDate: day,
		GrossValue:   &grossVal,
		Discount:     decimal.RequireFromString(discount),
		NetValue:     &netVal,
	}
}

func TestBuildStatementData_FiltersAndTotals(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, utils.DateLocation)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, utils.DateLocation)

	inRange := statementFixture("2024-03-15", "100.00", "10.00", "90.00")
	outOfRange := statementFixture("2024-04-02", "55.00", "0.00", "55.00")

	data := buildStatementData([]models.DeliveryRecord{inRange, outOfRange}, from, to)

	require.Len(t, data.Rows, 1)
	assert.Equal(t, 1, data.RowCount)
	assert.Equal(t, "100.00", data.TotalGross)
	assert.Equal(t, "10.00", data.TotalDiscount)
	assert.Equal(t, "90.00", data.TotalNet)
}
