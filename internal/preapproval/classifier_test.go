package preapproval

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func income(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func flag(b bool) *bool { return &b }

func TestClassify_IncomeBelowThreshold(t *testing.T) {
	got := DefaultPolicy().Classify(Input{MonthlyIncome: income("799")})

	assert.False(t, got.IsPreApproved)
	assert.Equal(t, StatusPending, got.Status)
	assert.Contains(t, got.Reason, "Income below minimum threshold")
}

func TestClassify_MeetsAllCriteria(t *testing.T) {
	got := DefaultPolicy().Classify(Input{
		MonthlyIncome:          income("2000"),
		HistoryViolentBehavior: flag(false),
		RegisteredSexOffender:  flag(false),
	})

	assert.True(t, got.IsPreApproved)
	assert.Equal(t, StatusPreApproved, got.Status)
	assert.Equal(t, "Meets all basic criteria", got.Reason)
	assert.Empty(t, got.Issues)
}

func TestClassify_ThresholdIsInclusive(t *testing.T) {
	assert.True(t, DefaultPolicy().Classify(Input{MonthlyIncome: income("800.00")}).IsPreApproved)
}

func TestClassify_JoinsEveryFailingRule(t *testing.T) {
	got := DefaultPolicy().Classify(Input{
		MonthlyIncome:          income("500"),
		HistoryViolentBehavior: flag(true),
		RegisteredSexOffender:  flag(true),
	})

	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t,
		"Income below minimum threshold; History of violent behavior requires manual review; Registered sex offender status requires manual review",
		got.Reason)
	assert.Len(t, got.Issues, 3)
}

func TestClassify_Idempotent(t *testing.T) {
	in := Input{MonthlyIncome: income("650"), RegisteredSexOffender: flag(true)}
	p := DefaultPolicy()

	assert.Equal(t, p.Classify(in), p.Classify(in))
}

func TestClassify_MissingFieldPolicy(t *testing.T) {
	pass := DefaultPolicy().Classify(Input{})
	assert.True(t, pass.IsPreApproved)

	review := Policy{MinMonthlyIncome: DefaultMinMonthlyIncome, MissingFields: MissingReview}.Classify(Input{})
	assert.False(t, review.IsPreApproved)
	assert.Equal(t, []string{IssueIncomeMissing, IssueViolentUnanswered, IssueOffenderUnanswered}, review.Issues)
}

func TestFromForm(t *testing.T) {
	in := FromForm(map[string]any{
		"monthly_income":           "$1,250.50",
		"history_violent_behavior": false,
		"registered_sex_offender":  "true",
	})
	assert.True(t, in.MonthlyIncome.Equal(decimal.RequireFromString("1250.50")))
	assert.False(t, *in.HistoryViolentBehavior)
	assert.True(t, *in.RegisteredSexOffender)

	blank := FromForm(map[string]any{"monthly_income": "  ", "registered_sex_offender": "maybe"})
	assert.Nil(t, blank.MonthlyIncome)
	assert.Nil(t, blank.HistoryViolentBehavior)
	assert.Nil(t, blank.RegisteredSexOffender)
}

func TestParseMissingFieldPolicy(t *testing.T) {
	p, err := ParseMissingFieldPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, MissingPass, p)

	p, err = ParseMissingFieldPolicy("Review")
	assert.NoError(t, err)
	assert.Equal(t, MissingReview, p)

	_, err = ParseMissingFieldPolicy("reject")
	assert.Error(t, err)
}
