package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPreApproved, StatusApproved, true},
		{StatusPreApproved, StatusRejected, true},
		{StatusPending, StatusPreApproved, false},
		{StatusPreApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{Status("archived"), StatusApproved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("pre_approved")
	assert.NoError(t, err)
	assert.Equal(t, StatusPreApproved, s)

	_, err = ParseStatus("Approved")
	assert.Error(t, err)
}

func TestFilterNormalized(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Filter{}.normalized().Limit)
	assert.Equal(t, MaxPageSize, Filter{Limit: 5000}.normalized().Limit)
	assert.Equal(t, 0, Filter{Offset: -3}.normalized().Offset)
}
