package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
)

var signupRowColumns = []string{"id", "user_id", "email", "requested_role", "org_id", "org_name", "notes", "status", "created_at"}

func TestSignupFindPendingByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	rows := sqlmock.NewRows(signupRowColumns).
		AddRow("r1", nil, "Ana@Example.com", "teacher", nil, "Colegio X", "", "pending", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1) AND status = 'pending'")).
		WithArgs("ana@example.com").
		WillReturnRows(rows)

	req, err := repo.FindPendingByEmail(context.Background(), " ana@example.com ")
	require.NoError(t, err)
	require.NotNil(t, req.OrgName)
	assert.Equal(t, "Colegio X", *req.OrgName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	org := "org-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM signup_requests WHERE status = $1 AND org_id = $2 ORDER BY created_at DESC")).
		WithArgs("pending", "org-1").
		WillReturnRows(sqlmock.NewRows(signupRowColumns))

	items, err := repo.List(context.Background(), models.SignupRequestFilter{Status: models.RequestPending, OrgID: &org})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupListUnfiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM signup_requests ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(signupRowColumns))

	_, err := repo.List(context.Background(), models.SignupRequestFilter{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	mock.ExpectExec("INSERT INTO signup_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.SignupRequest{Email: "ana@example.com", RequestedRole: models.RoleTeacher, Status: models.RequestApproved}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, models.RequestPending, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE signup_requests SET status = $2, org_id = COALESCE($3, org_id) WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "r9", models.RequestRejected, nil)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSignupDeleteUsesProcedure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSignupRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT delete_signup_request($1)")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
