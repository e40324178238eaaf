package intake

type FieldKind string

const (
	KindText    FieldKind = "text"
	KindEmail   FieldKind = "email"
	KindPhone   FieldKind = "phone"
	KindDate    FieldKind = "date"
	KindNumber  FieldKind = "number"
	KindChoice  FieldKind = "choice"
	KindYesNo   FieldKind = "yes_no"
	KindConsent FieldKind = "consent"
)

type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

type Step struct {
	Number int     `json:"number"`
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

const StepCount = 6

var (
	Locations          = []string{"MD", "IN", "IL"}
	PreferredRoomTypes = []string{"single", "shared", "no_preference"}
	IncomeSources      = []string{"employment", "disability", "ssi", "pension", "child_support", "other"}
	EmploymentStatuses = []string{"employed", "self_employed", "unemployed", "retired", "disabled", "student"}
	LengthsOfStay      = []string{"<6", "6-12", "1-2", "2+"}
	yesNo              = []string{"yes", "no"}
)

func req(name string, kind FieldKind, options ...string) Field {
	return Field{Name: name, Kind: kind, Required: true, Options: options}
}

func opt(name string, kind FieldKind, options ...string) Field {
	return Field{Name: name, Kind: kind, Options: options}
}

// Steps is the fixed, ordered intake flow. Required lists are static per step.
var Steps = []Step{
	{Number: 1, Key: "personal", Title: "Personal", Fields: []Field{
		req("full_name", KindText),
		req("email", KindEmail),
		req("phone", KindPhone),
		req("date_of_birth", KindDate),
		opt("ssn_last_four", KindText),
	}},
	{Number: 2, Key: "address", Title: "Address", Fields: []Field{
		req("current_address", KindText),
		req("current_city", KindText),
		req("current_state", KindText),
		req("current_zip", KindText),
		opt("years_at_current_address", KindNumber),
	}},
	{Number: 3, Key: "income", Title: "Income", Fields: []Field{
		req("employment_status", KindChoice, EmploymentStatuses...),
		opt("employer_name", KindText),
		opt("employer_phone", KindPhone),
		opt("position", KindText),
		req("monthly_income", KindNumber),
		opt("income_source", KindChoice, IncomeSources...),
		opt("additional_income_sources", KindText),
	}},
	{Number: 4, Key: "room", Title: "Room", Fields: []Field{
		opt("room_id", KindText),
		req("preferred_location", KindChoice, Locations...),
		req("preferred_room_type", KindChoice, PreferredRoomTypes...),
		req("desired_move_in_date", KindDate),
		opt("intended_length_of_stay", KindChoice, LengthsOfStay...),
	}},
	{Number: 5, Key: "health", Title: "Health", Fields: []Field{
		req("emergency_contact_name", KindText),
		req("emergency_contact_phone", KindPhone),
		opt("emergency_contact_relationship", KindText),
		opt("has_disability", KindYesNo, yesNo...),
		opt("disability_type", KindText),
		opt("requires_support_services", KindYesNo, yesNo...),
		opt("support_needs_description", KindText),
		opt("current_service_provider", KindText),
		opt("has_criminal_record", KindYesNo, yesNo...),
		opt("criminal_record_details", KindText),
		opt("has_eviction_history", KindYesNo, yesNo...),
		opt("eviction_details", KindText),
		opt("has_substance_abuse_history", KindYesNo, yesNo...),
		opt("currently_sober", KindYesNo, yesNo...),
		opt("sober_since", KindDate),
		opt("history_violent_behavior", KindConsent),
		opt("registered_sex_offender", KindConsent),
		opt("reference1_name", KindText),
		opt("reference1_phone", KindPhone),
		opt("reference1_relationship", KindText),
		opt("reference1_years_known", KindNumber),
		opt("reference2_name", KindText),
		opt("reference2_phone", KindPhone),
		opt("reference2_relationship", KindText),
		opt("reference2_years_known", KindNumber),
	}},
	{Number: 6, Key: "review", Title: "Review", Fields: []Field{
		opt("why_apply", KindText),
		opt("goals_for_stay", KindText),
		opt("additional_comments", KindText),
		req("agree_background_check", KindConsent),
		opt("agree_credit_check", KindConsent),
		req("agree_terms", KindConsent),
		opt("agree_privacy_policy", KindConsent),
	}},
}

var fieldStep = func() map[string]int {
	m := map[string]int{}
	for _, s := range Steps {
		for _, f := range s.Fields {
			m[f.Name] = s.Number
		}
	}
	return m
}()

// StepOf returns the step a field belongs to, or 0 for an unknown field.
func StepOf(field string) int {
	return fieldStep[field]
}

func StepByNumber(n int) (Step, bool) {
	if n < 1 || n > len(Steps) {
		return Step{}, false
	}
	return Steps[n-1], true
}

func (s Step) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
