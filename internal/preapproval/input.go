package preapproval

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Form keys read by FromForm.
const (
	FieldMonthlyIncome          = "monthly_income"
	FieldHistoryViolentBehavior = "history_violent_behavior"
	FieldRegisteredSexOffender  = "registered_sex_offender"
)

// FromForm extracts the classifier input from submitted form data.
// Blank or unparseable values count as absent.
func FromForm(values map[string]any) Input {
	return Input{
		MonthlyIncome:          decimalValue(values[FieldMonthlyIncome]),
		HistoryViolentBehavior: boolValue(values[FieldHistoryViolentBehavior]),
		RegisteredSexOffender:  boolValue(values[FieldRegisteredSexOffender]),
	}
}

func decimalValue(v any) *decimal.Decimal {
	var d decimal.Decimal
	var err error
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(x), "$"), ",", ""))
		if s == "" {
			return nil
		}
		d, err = decimal.NewFromString(s)
	case float64:
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case decimal.Decimal:
		d = x
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &d
}

func boolValue(v any) *bool {
	switch x := v.(type) {
	case bool:
		return &x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		return &b
	default:
		return nil
	}
}
