package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestCalculateDerivedFields_GrossFromVolumeAndPrice(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		Volume:    dec("3.333"),
		UnitPrice: dec("2.22"),
	})

	require.NotNil(t, result.GrossValue)
	assert.Equal(t, "7.40", result.GrossValue.StringFixed(2))
	assert.Nil(t, result.NetValue)
}

func TestCalculateDerivedFields_NetFromGrossAndDiscount(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		GrossValue: dec("7.40"),
		Discount:   dec("1.11"),
	})

	require.NotNil(t, result.NetValue)
	assert.Equal(t, "6.29", result.NetValue.StringFixed(2))
	assert.Nil(t, result.GrossValue)
}

func TestCalculateDerivedFields_ChainsVolumeToNet(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		Volume:    dec("3.333"),
		UnitPrice: dec("2.22"),
		Discount:  dec("1.11"),
	})

	require.NotNil(t, result.GrossValue)
	require.NotNil(t, result.NetValue)
	assert.Equal(t, "7.40", result.GrossValue.StringFixed(2))
	assert.Equal(t, "6.29", result.NetValue.StringFixed(2))
}

func TestCalculateDerivedFields_GrossFromNetAndDiscount(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		NetValue: dec("6.29"),
		Discount: dec("1.11"),
	})

	require.NotNil(t, result.GrossValue)
	assert.Equal(t, "7.40", result.GrossValue.StringFixed(2))
	// A gross derived from the net must not turn around and re-derive the
	// net it came from.
	assert.Nil(t, result.NetValue)
}

func TestCalculateDerivedFields_StatedGrossStillDerivesNet(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		GrossValue: dec("100"),
		Discount:   dec("0"),
	})

	require.NotNil(t, result.NetValue)
	assert.Equal(t, "100.00", result.NetValue.StringFixed(2))
}

func TestCalculateDerivedFields_QuantizesInputsFirst(t *testing.T) {
	// Volume is stored at 3dp; 2.0004 rounds to 2.000 before multiplying.
	result := CalculateDerivedFields(CalcInput{
		Volume:    dec("2.0004"),
		UnitPrice: dec("10.00"),
	})

	require.NotNil(t, result.GrossValue)
	assert.Equal(t, "20.00", result.GrossValue.StringFixed(2))

	// Money is stored at 2dp, half-up: 10.005 becomes 10.01.
	result = CalculateDerivedFields(CalcInput{
		Volume:    dec("1"),
		UnitPrice: dec("10.005"),
	})
	require.NotNil(t, result.GrossValue)
	assert.Equal(t, "10.01", result.GrossValue.StringFixed(2))
}

func TestCalculateDerivedFields_RoundsHalfUp(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{
		Volume:    dec("0.5"),
		UnitPrice: dec("0.05"),
	})

	require.NotNil(t, result.GrossValue)
	assert.Equal(t, "0.03", result.GrossValue.StringFixed(2))
}

func TestCalculateDerivedFields_NoInputsNoChanges(t *testing.T) {
	result := CalculateDerivedFields(CalcInput{})
	assert.False(t, result.HasChanges())

	// A lone gross without a discount derives nothing.
	result = CalculateDerivedFields(CalcInput{GrossValue: dec("50")})
	assert.False(t, result.HasChanges())
}

func TestCalculateDerivedFields_ComputedGrossWinsOverStated(t *testing.T) {
	// When volume and price are present, rule 1 determines the gross even if
	// the caller also stated one; the net then follows the computed gross.
	result := CalculateDerivedFields(CalcInput{
		Volume:     dec("10"),
		UnitPrice:  dec("5"),
		GrossValue: dec("999"),
		Discount:   dec("0"),
	})

	require.NotNil(t, result.GrossValue)
	require.NotNil(t, result.NetValue)
	assert.Equal(t, "50.00", result.GrossValue.StringFixed(2))
	assert.Equal(t, "50.00", result.NetValue.StringFixed(2))
}

func TestCalculateDerivedFields_DoesNotAliasInputs(t *testing.T) {
	volume := decimal.RequireFromString("2.5")
	price := decimal.RequireFromString("4.00")
	in := CalcInput{Volume: &volume, UnitPrice: &price}

	_ = CalculateDerivedFields(in)

	assert.Equal(t, "2.5", volume.String())
	assert.Equal(t, "4", price.String())
}
