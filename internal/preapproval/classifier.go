package preapproval

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusPreApproved = "pre_approved"
	StatusPending     = "pending"

	SuccessReason = "Meets all basic criteria"

	IssueIncomeBelowMinimum = "Income below minimum threshold"
	IssueViolentHistory     = "History of violent behavior requires manual review"
	IssueRegisteredOffender = "Registered sex offender status requires manual review"
	IssueIncomeMissing      = "Monthly income not provided"
	IssueViolentUnanswered  = "Violent behavior history not answered"
	IssueOffenderUnanswered = "Registered sex offender status not answered"
)

// MissingFieldPolicy decides how absent classifier inputs are treated.
type MissingFieldPolicy string

const (
	// MissingPass treats absent income as passing and absent flags as false.
	MissingPass MissingFieldPolicy = "pass"
	// MissingReview routes any absent input to manual review.
	MissingReview MissingFieldPolicy = "review"
)

func ParseMissingFieldPolicy(s string) (MissingFieldPolicy, error) {
	switch MissingFieldPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingPass:
		return MissingPass, nil
	case MissingReview:
		return MissingReview, nil
	default:
		return "", fmt.Errorf("unknown missing field policy: %s", s)
	}
}

var DefaultMinMonthlyIncome = decimal.NewFromInt(800)

type Policy struct {
	MinMonthlyIncome decimal.Decimal
	MissingFields    MissingFieldPolicy
}

func DefaultPolicy() Policy {
	return Policy{MinMonthlyIncome: DefaultMinMonthlyIncome, MissingFields: MissingPass}
}

// Input is the subset of an application the rules look at. Nil means the applicant left it blank.
type Input struct {
	MonthlyIncome          *decimal.Decimal
	HistoryViolentBehavior *bool
	RegisteredSexOffender  *bool
}

type Result struct {
	IsPreApproved bool     `json:"isPreApproved"`
	Status        string   `json:"status"`
	Issues        []string `json:"issues"`
	Reason        string   `json:"reason"`
}

// Classify routes an application to pre_approved or to the manual review bucket.
// It never rejects; a failing rule only means a human has to look.
func (p Policy) Classify(in Input) Result {
	issues := []string{}

	switch {
	case in.MonthlyIncome == nil:
		if p.MissingFields == MissingReview {
			issues = append(issues, IssueIncomeMissing)
		}
	case in.MonthlyIncome.LessThan(p.MinMonthlyIncome):
		issues = append(issues, IssueIncomeBelowMinimum)
	}

	issues = p.flag(issues, in.HistoryViolentBehavior, IssueViolentHistory, IssueViolentUnanswered)
	issues = p.flag(issues, in.RegisteredSexOffender, IssueRegisteredOffender, IssueOffenderUnanswered)

	if len(issues) == 0 {
		return Result{IsPreApproved: true, Status: StatusPreApproved, Issues: issues, Reason: SuccessReason}
	}
	return Result{Status: StatusPending, Issues: issues, Reason: strings.Join(issues, "; ")}
}

func (p Policy) flag(issues []string, v *bool, set, unanswered string) []string {
	switch {
	case v == nil:
		if p.MissingFields == MissingReview {
			return append(issues, unanswered)
		}
	case *v:
		return append(issues, set)
	}
	return issues
}
