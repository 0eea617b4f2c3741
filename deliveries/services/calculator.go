package services

import (
	"github.com/shopspring/decimal"
)

// CalcInput carries the financial fields of a delivery record that feed the
// derivation rules. Nil means the field is absent.
type CalcInput struct {
	Volume     *decimal.Decimal
	UnitPrice  *decimal.Decimal
	GrossValue *decimal.Decimal
	Discount   *decimal.Decimal
	NetValue   *decimal.Decimal
}

// CalcResult holds only the fields a derivation rule changed. Fields the
// caller supplied directly are never echoed back.
type CalcResult struct {
	GrossValue *decimal.Decimal
	NetValue   *decimal.Decimal
}

func (r CalcResult) HasChanges() bool {
	return r.GrossValue != nil || r.NetValue != nil
}

const (
	moneyPlaces  = 2
	volumePlaces = 3
)

// CalculateDerivedFields derives the financial fields computable from the
// others. Pure function, reproducible bit-for-bit for the same inputs — it is
// the basis of the ledger's net == gross − discount invariant.
//
// Inputs are first quantized to their stored precision (volume 3dp, money
// 2dp, half-up), then the rules run in fixed precedence, each guarded by the
// presence of its inputs and skipped when a prior rule already determined the
// field:
//
//  1. volume × unit_price               → gross_value
//  2. gross_value − discount            → net_value
//  3. net_value + discount              → gross_value (rule 1 did not fire)
//  4. gross_value − discount            → net_value   (rule 2 did not fire)
func CalculateDerivedFields(in CalcInput) CalcResult {
	volume := quantize(in.Volume, volumePlaces)
	unitPrice := quantize(in.UnitPrice, moneyPlaces)
	gross := quantize(in.GrossValue, moneyPlaces)
	discount := quantize(in.Discount, moneyPlaces)
	net := quantize(in.NetValue, moneyPlaces)

	var result CalcResult
	grossComputed := false
	netComputed := false

	// Rule 1: gross from volume and unit price
	if volume != nil && unitPrice != nil {
		v := volume.Mul(*unitPrice).Round(moneyPlaces)
		gross = &v
		result.GrossValue = &v
		grossComputed = true
	}

	// Rule 2: net from gross (given or computed) and discount
	if gross != nil && discount != nil {
		v := gross.Sub(*discount).Round(moneyPlaces)
		net = &v
		result.NetValue = &v
		netComputed = true
	}

	// Rule 3: gross from net and discount, when rule 1 did not fire
	if !grossComputed && net != nil && discount != nil {
		v := net.Add(*discount).Round(moneyPlaces)
		gross = &v
		result.GrossValue = &v
	}

	// Rule 4: net from a directly given gross and discount, when rule 2 did
	// not fire. A gross derived by rule 3 never re-derives the net it came
	// from.
	if !netComputed && in.GrossValue != nil && gross != nil && discount != nil {
		v := gross.Sub(*discount).Round(moneyPlaces)
		result.NetValue = &v
	}

	return result
}

// quantize rounds a value to its stored column precision, half-up. Returns a
// fresh pointer so callers' inputs are never aliased.
func quantize(d *decimal.Decimal, places int32) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := d.Round(places)
	return &v
}
