package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillStep(t *testing.T, f *Form, step int) {
	t.Helper()
	s, ok := StepByNumber(step)
	require.True(t, ok)
	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		var v any = "x"
		switch field.Kind {
		case KindConsent:
			v = true
		case KindNumber:
			v = "1200"
		case KindChoice:
			v = field.Options[0]
		}
		require.NoError(t, f.UpdateField(step, field.Name, v))
	}
}

func TestValidateStep_PersonalInfo(t *testing.T) {
	f := NewForm()
	require.NoError(t, f.UpdateField(1, "full_name", ""))
	require.NoError(t, f.UpdateField(1, "email", "jo@example.org"))
	require.NoError(t, f.UpdateField(1, "phone", "555-0100"))
	require.NoError(t, f.UpdateField(1, "date_of_birth", "1980-01-01"))
	assert.False(t, f.ValidateStep(1))

	require.NoError(t, f.UpdateField(1, "full_name", "Jo Doe"))
	assert.True(t, f.ValidateStep(1))
}

func TestValidateStep_WhitespaceIsEmpty(t *testing.T) {
	f := NewForm()
	fillStep(t, f, 1)
	require.NoError(t, f.UpdateField(1, "phone", "   "))

	missing, err := f.MissingFields(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"phone"}, missing)
}

func TestValidateStep_ConsentsMustBeTrue(t *testing.T) {
	f := NewForm()
	require.NoError(t, f.UpdateField(6, "agree_terms", true))
	require.NoError(t, f.UpdateField(6, "agree_background_check", false))
	assert.False(t, f.ValidateStep(6))

	require.NoError(t, f.UpdateField(6, "agree_background_check", "yes"))
	assert.False(t, f.ValidateStep(6))

	require.NoError(t, f.UpdateField(6, "agree_background_check", true))
	assert.True(t, f.ValidateStep(6))
}

func TestUpdateField_RejectsFieldsOutsideStep(t *testing.T) {
	f := NewForm()
	assert.ErrorIs(t, f.UpdateField(1, "monthly_income", "900"), ErrUnknownField)
	assert.ErrorIs(t, f.UpdateField(1, "favourite_colour", "blue"), ErrUnknownField)
	assert.ErrorIs(t, f.UpdateField(7, "full_name", "x"), ErrUnknownStep)
	assert.Empty(t, f.Values())
}

func TestAdvance_StaysOnIncompleteStep(t *testing.T) {
	f := NewForm()
	err := f.Advance()

	var incomplete *StepIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Step)
	assert.ElementsMatch(t, []string{"full_name", "email", "phone", "date_of_birth"}, incomplete.Missing)
	assert.Equal(t, 1, f.CurrentStep())

	fillStep(t, f, 1)
	require.NoError(t, f.Advance())
	assert.Equal(t, 2, f.CurrentStep())

	f.Back()
	f.Back()
	assert.Equal(t, 1, f.CurrentStep())
}

func TestValidateAll(t *testing.T) {
	f := NewForm()
	for step := 1; step <= StepCount; step++ {
		if step == 4 {
			continue
		}
		fillStep(t, f, step)
	}

	var incomplete *StepIncompleteError
	require.ErrorAs(t, f.ValidateAll(), &incomplete)
	assert.Equal(t, 4, incomplete.Step)

	fillStep(t, f, 4)
	assert.NoError(t, f.ValidateAll())
	assert.Empty(t, f.AllMissing())
}

func TestFromValues_RejectsUnknownKeys(t *testing.T) {
	_, err := FromValues(map[string]any{"full_name": "Jo", "is_admin": true})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestEveryFieldBelongsToExactlyOneStep(t *testing.T) {
	seen := map[string]int{}
	for _, s := range Steps {
		for _, f := range s.Fields {
			_, dup := seen[f.Name]
			assert.False(t, dup, "field %s declared twice", f.Name)
			seen[f.Name] = s.Number
		}
	}
	assert.Len(t, Steps, StepCount)
}
