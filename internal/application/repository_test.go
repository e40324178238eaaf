package application

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	appID  = "3c9e1a7b-2d4f-4b6a-9c8d-1e2f3a4b5c61"
	roomOf = "5f0c7d58-2c4e-4a43-9a55-0d1b1d2f8a10"
)

func setupMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

// sqlText matches s literally, with any run of whitespace where s has a space.
func sqlText(s string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(s), " ", `\s+`)
}

var applicationColumns = []string{
	"id", "applicant_id", "room_id", "status", "form_data", "pre_approval_reason",
	"submitted_at", "reviewed_at", "reviewed_by", "review_note",
}

func applicationRow(id string, status Status, reviewedAt *time.Time, reviewedBy *string, note string) *pgxmock.Rows {
	return pgxmock.NewRows(applicationColumns).AddRow(
		id, "user-1", (*string)(nil), status, json.RawMessage(`{"full_name":"Jordan Lee"}`), "Meets all basic criteria",
		fixedNow, reviewedAt, reviewedBy, note,
	)
}

func TestRepositoryTransition_SetsReviewedAtAndRecordsChange(t *testing.T) {
	mock, repo := setupMockRepo(t)
	at := fixedNow.Add(2 * time.Hour)
	reviewerID := "admin-1"

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`FROM applications WHERE id = $1 FOR UPDATE`)).
		WithArgs(appID).
		WillReturnRows(applicationRow(appID, StatusPreApproved, nil, nil, ""))
	mock.ExpectQuery(sqlText(`UPDATE applications SET status = $1, reviewed_at = $2, reviewed_by = $3, review_note = $4 WHERE id = $5`)).
		WithArgs("approved", at, reviewerID, "income verified", appID).
		WillReturnRows(applicationRow(appID, StatusApproved, &at, &reviewerID, "income verified"))
	mock.ExpectExec(sqlText(`INSERT INTO application_events`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(sqlText(`INSERT INTO audit_logs`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	app, err := repo.Transition(context.Background(), TransitionRequest{
		ID: appID, Next: StatusApproved, ReviewerID: reviewerID, Note: "income verified", At: at,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, app.Status)
	require.NotNil(t, app.ReviewedAt)
	assert.True(t, at.Equal(*app.ReviewedAt))
	require.NotNil(t, app.ReviewedBy)
	assert.Equal(t, reviewerID, *app.ReviewedBy)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransition_TerminalStatusRollsBack(t *testing.T) {
	mock, repo := setupMockRepo(t)
	reviewed := fixedNow
	reviewerID := "admin-1"

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`FROM applications WHERE id = $1 FOR UPDATE`)).
		WithArgs(appID).
		WillReturnRows(applicationRow(appID, StatusApproved, &reviewed, &reviewerID, ""))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), TransitionRequest{
		ID: appID, Next: StatusRejected, ReviewerID: reviewerID, At: fixedNow.Add(time.Hour),
	})

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusApproved, te.From)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransition_UnknownApplication(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`FROM applications WHERE id = $1 FOR UPDATE`)).
		WithArgs(appID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), TransitionRequest{ID: appID, Next: StatusApproved, ReviewerID: "admin-1"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGet_NoRowsIsNotFound(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectQuery(sqlText(`FROM applications WHERE id = $1`)).
		WithArgs(appID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), appID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList_CursorPagesByKeyset(t *testing.T) {
	mock, repo := setupMockRepo(t)
	after := &Cursor{SubmittedAt: fixedNow, ID: appID}

	mock.ExpectQuery(sqlText(`SELECT COUNT(*) FROM applications WHERE ($1 = '' OR status = $1)`)).
		WithArgs("pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(sqlText(`WHERE ($1 = '' OR status = $1) AND (submitted_at, id) < ($2, CAST($3 AS uuid)) ORDER BY submitted_at DESC, id DESC LIMIT $4 OFFSET $5`)).
		WithArgs("pending", fixedNow, appID, MaxPageSize, 0).
		WillReturnRows(applicationRow("3c9e1a7b-2d4f-4b6a-9c8d-1e2f3a4b5c60", StatusPending, nil, nil, ""))

	page, err := repo.List(context.Background(), Filter{Status: StatusPending, Limit: MaxPageSize, After: after})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Total)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_UnknownRoomInsertsNothing(t *testing.T) {
	mock, repo := setupMockRepo(t)
	room := roomOf

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`)).
		WithArgs(room).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewApplication{
		ApplicantID: "user-1", RoomID: &room, Status: StatusPending, FormData: json.RawMessage(`{}`), SubmittedAt: fixedNow,
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRoomExists(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectQuery(sqlText(`SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`)).
		WithArgs(roomOf).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.RoomExists(context.Background(), roomOf)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
