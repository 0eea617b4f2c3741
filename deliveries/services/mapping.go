package services

import (
	"strings"
)

// TargetField is the canonical delivery-record field a spreadsheet column maps
// to. Unmapped columns carry FieldUnknown explicitly so downstream code can
// never mistake them for a real field.
type TargetField string

const (
	FieldUnknown        TargetField = "unknown"
	FieldDeliveryDate   TargetField = "delivery_date"
	FieldVoucherNumber  TargetField = "voucher_number"
	FieldVehicleNumber  TargetField = "vehicle_number"
	FieldVolume         TargetField = "volume"
	FieldUnitLabel      TargetField = "unit_label"
	FieldUnitPrice      TargetField = "unit_price"
	FieldGrossValue     TargetField = "gross_value"
	FieldNetValue       TargetField = "net_value"
	FieldDiscount       TargetField = "discount"
	FieldDescription    TargetField = "description"
	FieldContractorName TargetField = "contractor_name"
	FieldSupplierName   TargetField = "supplier_name"
)

// ColumnMapping describes how one source column feeds one target field. Built
// by the sheet analyzer, optionally corrected by a human, consumed by the
// import processor. Serialized onto the ImportBatch for traceability.
type ColumnMapping struct {
	SourceColumn string      `json:"source_column"`
	Field        TargetField `json:"field"`
	ValueType    string      `json:"value_type"` // date | number | text
	Required     bool        `json:"required"`
	Notes        string      `json:"notes,omitempty"`
}

// IsMapped reports whether the column feeds a real target field.
func (m ColumnMapping) IsMapped() bool {
	return m.Field != FieldUnknown
}

type fieldRule struct {
	field     TargetField
	valueType string
	required  bool
	keywords  []string
}

// fieldRules is scanned in order, first match wins. Keyword sets are bilingual
// English/Vietnamese; accented and unaccented Vietnamese spellings both match.
// Order matters: "đơn giá" (unit price) must be tested before "đơn vị" (unit),
// and the net-value keywords before the generic amount keywords that mean
// gross value.
var fieldRules = []fieldRule{
	{FieldDeliveryDate, "date", true, []string{"delivery date", "date", "ngày giao", "ngày", "ngay giao", "ngay"}},
	{FieldVoucherNumber, "text", false, []string{"voucher", "receipt no", "ticket", "số phiếu", "so phieu", "phiếu", "phieu"}},
	{FieldVehicleNumber, "text", false, []string{"vehicle", "truck", "plate", "biển số", "bien so", "số xe", "so xe", "xe"}},
	{FieldVolume, "number", false, []string{"volume", "quantity", "qty", "khối lượng", "khoi luong", "số lượng", "so luong"}},
	{FieldUnitPrice, "number", false, []string{"unit price", "price", "rate", "đơn giá", "don gia"}},
	{FieldDiscount, "number", false, []string{"discount", "chiết khấu", "chiet khau", "giảm giá", "giam gia"}},
	{FieldNetValue, "number", false, []string{"net", "payable", "sau chiết khấu", "sau chiet khau", "thực thu", "thuc thu"}},
	{FieldGrossValue, "number", false, []string{"gross", "amount", "total", "thành tiền", "thanh tien", "tổng tiền", "tong tien"}},
	{FieldContractorName, "text", false, []string{"contractor", "nhà thầu", "nha thau"}},
	{FieldSupplierName, "text", false, []string{"supplier", "vendor", "nhà cung cấp", "nha cung cap", "ncc"}},
	{FieldUnitLabel, "text", false, []string{"unit", "uom", "đơn vị", "don vi", "đvt", "dvt"}},
	{FieldDescription, "text", false, []string{"description", "item", "material", "note", "diễn giải", "dien giai", "ghi chú", "ghi chu", "hàng hóa", "hang hoa"}},
}

// SuggestColumn proposes a target field for a column header. Deterministic
// first-match-wins keyword scan; a human is expected to review the result
// before an import is committed.
func SuggestColumn(header string) ColumnMapping {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ColumnMapping{
			SourceColumn: header,
			Field:        FieldUnknown,
			ValueType:    string(ValueText),
			Notes:        "unnamed column",
		}
	}

	lowered := strings.ToLower(trimmed)
	for _, rule := range fieldRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return ColumnMapping{
					SourceColumn: trimmed,
					Field:        rule.field,
					ValueType:    rule.valueType,
					Required:     rule.required,
				}
			}
		}
	}

	return ColumnMapping{
		SourceColumn: trimmed,
		Field:        FieldUnknown,
		ValueType:    string(ValueText),
		Notes:        "no matching field keyword",
	}
}
