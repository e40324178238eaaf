package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing/internal/identity"
	"housing/internal/preapproval"
)

var fixedNow = time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)

func newGateway(store *memStore) (*Gateway, *fakeSigner, *fakeNotifier) {
	signer := &fakeSigner{}
	notifier := &fakeNotifier{}
	return &Gateway{
		Store:      store,
		Policy:     preapproval.DefaultPolicy(),
		Identities: signer,
		Notifier:   notifier,
		Now:        func() time.Time { return fixedNow },
	}, signer, notifier
}

func TestSubmit_LowIncomeIsPending(t *testing.T) {
	store := newMemStore()
	g, _, notifier := newGateway(store)
	caller := &identity.Identity{UserID: "user-1", Role: identity.RoleUser}

	sub, err := g.Submit(context.Background(), caller, SubmitRequest{FormData: completeForm(map[string]any{"monthly_income": "500"})})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, sub.Application.Status)
	assert.Contains(t, sub.Application.PreApprovalReason, preapproval.IssueIncomeBelowMinimum)
	assert.False(t, sub.PreApproval.IsPreApproved)
	assert.Equal(t, "user-1", sub.Application.ApplicantID)
	assert.Equal(t, fixedNow, sub.Application.SubmittedAt)
	assert.Nil(t, sub.Application.ReviewedAt)
	assert.Nil(t, sub.Session)
	assert.Equal(t, 1, store.count())

	require.Len(t, notifier.receipts, 1)
	assert.Equal(t, "jordan@example.org", notifier.receipts[0].To)
	assert.Equal(t, "pending", notifier.receipts[0].Status)
}

func TestSubmit_QualifyingApplicantIsPreApproved(t *testing.T) {
	store := newMemStore()
	g, _, _ := newGateway(store)

	sub, err := g.Submit(context.Background(), &identity.Identity{UserID: "user-1"}, SubmitRequest{
		FormData: completeForm(map[string]any{"history_violent_behavior": false, "registered_sex_offender": false}),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPreApproved, sub.Application.Status)
	assert.Equal(t, preapproval.SuccessReason, sub.Application.PreApprovalReason)
	assert.Equal(t, "Jordan Rivers", sub.Application.Answers()["full_name"])
}

func TestSubmit_FlagsAreJoinedInReason(t *testing.T) {
	store := newMemStore()
	g, _, _ := newGateway(store)

	sub, err := g.Submit(context.Background(), &identity.Identity{UserID: "user-1"}, SubmitRequest{
		FormData: completeForm(map[string]any{"monthly_income": "$500.00", "history_violent_behavior": true}),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, sub.Application.Status)
	assert.Equal(t, preapproval.IssueIncomeBelowMinimum+"; "+preapproval.IssueViolentHistory, sub.Application.PreApprovalReason)
}

func TestSubmit_AnonymousCallerGetsEphemeralIdentity(t *testing.T) {
	store := newMemStore()
	g, signer, _ := newGateway(store)

	sub, err := g.Submit(context.Background(), nil, SubmitRequest{FormData: completeForm(nil)})
	require.NoError(t, err)

	assert.Equal(t, 1, signer.calls)
	assert.Equal(t, "anon-user-1", sub.Application.ApplicantID)
	require.NotNil(t, sub.Session)
	assert.Equal(t, "anon-token", sub.Session.AccessToken)
}

func TestSubmit_IdentityFailureStoresNothing(t *testing.T) {
	store := newMemStore()
	g, signer, notifier := newGateway(store)
	signer.err = errBackend

	_, err := g.Submit(context.Background(), nil, SubmitRequest{FormData: completeForm(nil)})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrIdentity))
	assert.Equal(t, 0, store.count())
	assert.Empty(t, notifier.receipts)
}

func TestSubmit_PersistenceFailureIsReported(t *testing.T) {
	store := newMemStore()
	store.createErr = errBackend
	g, _, notifier := newGateway(store)

	_, err := g.Submit(context.Background(), &identity.Identity{UserID: "user-1"}, SubmitRequest{FormData: completeForm(nil)})

	assert.ErrorIs(t, err, errBackend)
	assert.False(t, IsValidation(err))
	assert.Empty(t, notifier.receipts)
}

func TestSubmit_IncompleteFormListsMissingFieldsPerStep(t *testing.T) {
	store := newMemStore()
	g, signer, _ := newGateway(store)

	_, err := g.Submit(context.Background(), nil, SubmitRequest{
		FormData: completeForm(map[string]any{"email": nil, "agree_terms": false}),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "STEP_INCOMPLETE", ve.Code)
	assert.Equal(t, []string{"email"}, ve.Missing[1])
	assert.Equal(t, []string{"agree_terms"}, ve.Missing[6])
	assert.Equal(t, 0, signer.calls)
	assert.Equal(t, 0, store.count())
}

func TestSubmit_UnknownFieldRejected(t *testing.T) {
	g, _, _ := newGateway(newMemStore())

	_, err := g.Submit(context.Background(), nil, SubmitRequest{FormData: completeForm(map[string]any{"favourite_colour": "blue"})})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "UNKNOWN_FIELD", ve.Code)
}

func TestSubmit_MalformedValuesRejected(t *testing.T) {
	g, _, _ := newGateway(newMemStore())

	_, err := g.Submit(context.Background(), nil, SubmitRequest{
		FormData: completeForm(map[string]any{"email": "not-an-email", "preferred_location": "CA"}),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "INVALID_FORM_DATA", ve.Code)
	assert.Len(t, ve.Details, 2)
}

func TestSubmit_RoomReference(t *testing.T) {
	store := newMemStore()
	room := "5f0c7d58-2c4e-4a43-9a55-0d1b1d2f8a10"
	store.rooms[room] = true
	g, _, _ := newGateway(store)
	caller := &identity.Identity{UserID: "user-1"}

	sub, err := g.Submit(context.Background(), caller, SubmitRequest{FormData: completeForm(map[string]any{"room_id": room})})
	require.NoError(t, err)
	require.NotNil(t, sub.Application.RoomID)
	assert.Equal(t, room, *sub.Application.RoomID)

	_, err = g.Submit(context.Background(), caller, SubmitRequest{FormData: completeForm(nil), RoomID: "6a1c7d58-2c4e-4a43-9a55-0d1b1d2f8a11"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.True(t, IsValidation(err))

	_, err = g.Submit(context.Background(), caller, SubmitRequest{FormData: completeForm(nil), RoomID: "room-7"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "INVALID_ROOM", ve.Code)
}

func TestSubmit_UnknownRoomMintsNoAnonymousIdentity(t *testing.T) {
	store := newMemStore()
	g, signer, notifier := newGateway(store)

	_, err := g.Submit(context.Background(), nil, SubmitRequest{
		FormData: completeForm(nil),
		RoomID:   "6a1c7d58-2c4e-4a43-9a55-0d1b1d2f8a11",
	})

	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, signer.calls)
	assert.Equal(t, 0, store.count())
	assert.Empty(t, notifier.receipts)
}

func TestSubmit_NotIdempotent(t *testing.T) {
	store := newMemStore()
	g, _, _ := newGateway(store)
	caller := &identity.Identity{UserID: "user-1"}
	form := completeForm(nil)

	first, err := g.Submit(context.Background(), caller, SubmitRequest{FormData: form})
	require.NoError(t, err)
	second, err := g.Submit(context.Background(), caller, SubmitRequest{FormData: form})
	require.NoError(t, err)

	assert.NotEqual(t, first.Application.ID, second.Application.ID)
	assert.Equal(t, 2, store.count())
}

func TestSubmit_NotifierFailureDoesNotFailSubmission(t *testing.T) {
	store := newMemStore()
	g, _, notifier := newGateway(store)
	notifier.err = errors.New("ses throttled")

	sub, err := g.Submit(context.Background(), &identity.Identity{UserID: "user-1"}, SubmitRequest{FormData: completeForm(nil)})
	require.NoError(t, err)

	assert.NotEmpty(t, sub.Application.ID)
	assert.Len(t, notifier.receipts, 1)
	assert.Equal(t, 1, store.count())
}
