package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		v := Normalize(raw)
		assert.Equal(t, ValueEmpty, v.Kind, "raw=%q", raw)
		assert.True(t, v.IsEmpty())
	}
}

func TestNormalize_Dates(t *testing.T) {
	cases := map[string]string{
		"2024-03-15":          "2024-03-15",
		"15/03/2024":          "2024-03-15",
		"5/3/2024":            "2024-03-05",
		"15-03-2024":          "2024-03-15",
		"2024/03/15":          "2024-03-15",
		"15.03.2024":          "2024-03-15",
		"2024-03-15 10:30:00": "2024-03-15",
	}
	for raw, want := range cases {
		v := Normalize(raw)
		require.Equal(t, ValueDate, v.Kind, "raw=%q", raw)
		assert.Equal(t, want, v.Date, "raw=%q", raw)
	}
}

func TestNormalize_DayFirstDates(t *testing.T) {
	// Slashed dates resolve day-first: 03/04 is the 3rd of April.
	v := Normalize("03/04/2024")
	require.Equal(t, ValueDate, v.Kind)
	assert.Equal(t, "2024-04-03", v.Date)
}

func TestNormalize_Numbers(t *testing.T) {
	cases := map[string]string{
		"42":           "42",
		"-3.5":         "-3.5",
		"1,234,567.89": "1234567.89",
		"1.234.567,89": "1234567.89",
		"1.234,56":     "1234.56",
		"1,234":        "1234",
		"12,34":        "12.34",
		"$1,500.00":    "1500",
		"1 500 000":    "1500000",
		"500 USD":      "500",
		"₫2.000.000":   "2000000",
	}
	for raw, want := range cases {
		v := Normalize(raw)
		require.Equal(t, ValueNumber, v.Kind, "raw=%q", raw)
		assert.Equal(t, want, v.Number.String(), "raw=%q", raw)
	}
}

func TestNormalize_TextFallback(t *testing.T) {
	cases := []string{"Cement bags", "PX-0042", "31/02/2024x", "N/A"}
	for _, raw := range cases {
		v := Normalize(raw)
		assert.Equal(t, ValueText, v.Kind, "raw=%q", raw)
		assert.Equal(t, raw, v.Text, "raw=%q", raw)
	}
}

func TestNormalizeAs_ForcesChosenRule(t *testing.T) {
	// Typed as text, a numeric-looking cell stays text.
	v := NormalizeAs("12345", string(ValueText))
	require.Equal(t, ValueText, v.Kind)
	assert.Equal(t, "12345", v.Text)

	// Typed as number, a non-number falls back to text rather than erroring.
	v = NormalizeAs("abc", string(ValueNumber))
	assert.Equal(t, ValueText, v.Kind)

	// Typed as date, a non-date falls back to text.
	v = NormalizeAs("not a date", string(ValueDate))
	assert.Equal(t, ValueText, v.Kind)

	// Unknown rule falls through to auto-detection.
	v = NormalizeAs("2024-01-01", "")
	assert.Equal(t, ValueDate, v.Kind)
}

func TestNormalizedValue_Value(t *testing.T) {
	assert.Nil(t, Normalize("").Value())
	assert.Equal(t, "2024-01-02", Normalize("2024-01-02").Value())
	assert.Equal(t, "hello", Normalize("hello").Value())
}
