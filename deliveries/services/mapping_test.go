package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestColumn_EnglishHeaders(t *testing.T) {
	cases := map[string]TargetField{
		"Delivery Date": FieldDeliveryDate,
		"Voucher No":    FieldVoucherNumber,
		"Truck Plate":   FieldVehicleNumber,
		"Quantity":      FieldVolume,
		"Unit Price":    FieldUnitPrice,
		"Discount":      FieldDiscount,
		"Net Payable":   FieldNetValue,
		"Total Amount":  FieldGrossValue,
		"Contractor":    FieldContractorName,
		"Supplier Name": FieldSupplierName,
		"UoM":           FieldUnitLabel,
		"Description":   FieldDescription,
	}
	for header, want := range cases {
		got := SuggestColumn(header)
		assert.Equal(t, want, got.Field, "header=%q", header)
	}
}

func TestSuggestColumn_VietnameseHeaders(t *testing.T) {
	cases := map[string]TargetField{
		"Ngày giao":    FieldDeliveryDate,
		"Số phiếu":     FieldVoucherNumber,
		"Biển số xe":   FieldVehicleNumber,
		"Khối lượng":   FieldVolume,
		"Đơn giá":      FieldUnitPrice,
		"Chiết khấu":   FieldDiscount,
		"Thành tiền":   FieldGrossValue,
		"Nhà cung cấp": FieldSupplierName,
		"ĐVT":          FieldUnitLabel,
		"Diễn giải":    FieldDescription,
		// Unaccented spellings match too
		"ngay giao": FieldDeliveryDate,
		"don gia":   FieldUnitPrice,
		"khoi luong": FieldVolume,
	}
	for header, want := range cases {
		got := SuggestColumn(header)
		assert.Equal(t, want, got.Field, "header=%q", header)
	}
}

func TestSuggestColumn_NetBeforeGross(t *testing.T) {
	// "Net Amount" contains both "net" and "amount"; the net rule must win.
	got := SuggestColumn("Net Amount")
	assert.Equal(t, FieldNetValue, got.Field)
}

func TestSuggestColumn_UnitPriceBeforeUnitLabel(t *testing.T) {
	// "đơn giá" must not be swallowed by the "đơn vị" unit-label keywords.
	got := SuggestColumn("Đơn giá (VND)")
	assert.Equal(t, FieldUnitPrice, got.Field)
}

func TestSuggestColumn_CaseInsensitiveSubstring(t *testing.T) {
	got := SuggestColumn("  DELIVERY DATE (dd/mm/yyyy)  ")
	assert.Equal(t, FieldDeliveryDate, got.Field)
	assert.Equal(t, "DELIVERY DATE (dd/mm/yyyy)", got.SourceColumn)
	assert.True(t, got.Required)
	assert.Equal(t, "date", got.ValueType)
}

func TestSuggestColumn_OnlyDeliveryDateIsRequired(t *testing.T) {
	assert.True(t, SuggestColumn("Ngày").Required)
	assert.False(t, SuggestColumn("Voucher").Required)
	assert.False(t, SuggestColumn("Supplier").Required)
}

func TestSuggestColumn_Unmatched(t *testing.T) {
	got := SuggestColumn("Favourite Colour")
	assert.Equal(t, FieldUnknown, got.Field)
	assert.False(t, got.IsMapped())
	assert.Equal(t, string(ValueText), got.ValueType)
	assert.NotEmpty(t, got.Notes)
}

func TestSuggestColumn_EmptyHeader(t *testing.T) {
	got := SuggestColumn("   ")
	assert.Equal(t, FieldUnknown, got.Field)
	assert.Equal(t, "unnamed column", got.Notes)
}
