package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ValueKind string

const (
	ValueEmpty  ValueKind = "empty"
	ValueDate   ValueKind = "date"
	ValueNumber ValueKind = "number"
	ValueText   ValueKind = "text"
)

// NormalizedValue is the canonical typed form of one raw spreadsheet cell.
type NormalizedValue struct {
	Kind   ValueKind       `json:"kind"`
	Date   string          `json:"date,omitempty"` // ISO YYYY-MM-DD
	Number decimal.Decimal `json:"number,omitempty"`
	Text   string          `json:"text,omitempty"`
}

func (v NormalizedValue) IsEmpty() bool {
	return v.Kind == ValueEmpty
}

// Value returns the canonical representation for preview payloads.
func (v NormalizedValue) Value() interface{} {
	switch v.Kind {
	case ValueDate:
		return v.Date
	case ValueNumber:
		return v.Number
	case ValueText:
		return v.Text
	default:
		return nil
	}
}

// acceptedDateLayouts is the explicit allowlist of spreadsheet date formats.
// Slashed and dashed forms resolve day-first; accountants here author
// spreadsheets with dd/mm dates, never mm/dd.
var acceptedDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"02/01/06",
	"2006-01-02 15:04:05",
}

// currencyMarks are stripped before number parsing.
var currencyMarks = []string{"$", "€", "₫", "đ", "USD", "VND"}

// Normalize converts raw cell content into a canonical typed value.
// Empty → empty; date-looking → ISO date; numeric after stripping currency
// symbols and thousands separators → decimal; anything else → trimmed text.
// Unparseable dates and numbers fall through to the text branch, never error.
func Normalize(raw string) NormalizedValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NormalizedValue{Kind: ValueEmpty}
	}

	if iso, ok := parseDate(trimmed); ok {
		return NormalizedValue{Kind: ValueDate, Date: iso}
	}

	if num, ok := parseNumber(trimmed); ok {
		return NormalizedValue{Kind: ValueNumber, Number: num}
	}

	return NormalizedValue{Kind: ValueText, Text: trimmed}
}

// NormalizeAs applies one column's chosen transform rule. A rule that does not
// match the cell content falls back the same way Normalize does.
func NormalizeAs(raw string, valueType string) NormalizedValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NormalizedValue{Kind: ValueEmpty}
	}

	switch valueType {
	case string(ValueDate):
		if iso, ok := parseDate(trimmed); ok {
			return NormalizedValue{Kind: ValueDate, Date: iso}
		}
		return NormalizedValue{Kind: ValueText, Text: trimmed}
	case string(ValueNumber):
		if num, ok := parseNumber(trimmed); ok {
			return NormalizedValue{Kind: ValueNumber, Number: num}
		}
		return NormalizedValue{Kind: ValueText, Text: trimmed}
	case string(ValueText):
		return NormalizedValue{Kind: ValueText, Text: trimmed}
	default:
		return Normalize(raw)
	}
}

func parseDate(s string) (string, bool) {
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func parseNumber(s string) (decimal.Decimal, bool) {
	cleaned := s
	for _, mark := range currencyMarks {
		cleaned = strings.ReplaceAll(cleaned, mark, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	cleaned = stripThousandsSeparators(cleaned)

	num, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return num, true
}

// stripThousandsSeparators handles both 1,234,567.89 and 1.234.567,89 styles.
// When both separators appear, the rightmost one is the decimal point.
func stripThousandsSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly two digits reads as a decimal
		// point; otherwise commas are thousands separators.
		if len(s)-lastComma-1 == 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		// Repeated dots can only be thousands separators (2.000.000); a
		// single dot stays the decimal point.
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}
