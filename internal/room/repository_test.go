package room

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deletedRoomID = "5f0c7d58-2c4e-4a43-9a55-0d1b1d2f8a10"

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

func TestRepositoryDelete_CollectsImagePathsThenCascades(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`SELECT storage_path FROM room_images WHERE room_id = $1 AND storage_path IS NOT NULL`)).
		WithArgs(deletedRoomID).
		WillReturnRows(pgxmock.NewRows([]string{"storage_path"}).
			AddRow("rooms/" + deletedRoomID + "/a.jpg").
			AddRow("rooms/" + deletedRoomID + "/b.jpg"))
	// room_images rows go with the room through ON DELETE CASCADE.
	mock.ExpectExec(sqlText(`DELETE FROM rooms WHERE id = $1`)).
		WithArgs(deletedRoomID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(sqlText(`INSERT INTO audit_logs`)).
		WithArgs("admin-1", "ROOM_DELETED", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	paths, err := repo.Delete(context.Background(), "admin-1", deletedRoomID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rooms/" + deletedRoomID + "/a.jpg",
		"rooms/" + deletedRoomID + "/b.jpg",
	}, paths)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDelete_UnknownRoomRollsBack(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`SELECT storage_path FROM room_images`)).
		WithArgs(deletedRoomID).
		WillReturnRows(pgxmock.NewRows([]string{"storage_path"}))
	mock.ExpectExec(sqlText(`DELETE FROM rooms WHERE id = $1`)).
		WithArgs(deletedRoomID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	paths, err := repo.Delete(context.Background(), "admin-1", deletedRoomID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, paths)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDelete_AuditFailureRollsBack(t *testing.T) {
	mock, repo := setupMockRepo(t)
	boom := errors.New("audit unavailable")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText(`SELECT storage_path FROM room_images`)).
		WithArgs(deletedRoomID).
		WillReturnRows(pgxmock.NewRows([]string{"storage_path"}).AddRow("rooms/a.jpg"))
	mock.ExpectExec(sqlText(`DELETE FROM rooms WHERE id = $1`)).
		WithArgs(deletedRoomID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(sqlText(`INSERT INTO audit_logs`)).
		WillReturnError(boom)
	mock.ExpectRollback()

	paths, err := repo.Delete(context.Background(), "admin-1", deletedRoomID)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, paths)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGet_NoRowsIsNotFound(t *testing.T) {
	mock, repo := setupMockRepo(t)

	mock.ExpectQuery(sqlText(`FROM rooms WHERE id = $1`)).
		WithArgs(deletedRoomID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), deletedRoomID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
