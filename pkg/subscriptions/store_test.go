package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subscriptionTestColumns = []string{
	"id", "public_id", "user_id", "conference_id", "plan_id", "status",
	"starts_at", "ends_at", "trial_ends_at", "created_at", "updated_at",
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCurrent_UserPrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE user_id").
		WithArgs(int64(5), testNow).
		WillReturnRows(sqlmock.NewRows(subscriptionTestColumns).AddRow(
			1, "a0000000-0000-0000-0000-000000000001", 5, nil, 2, "active",
			testNow.AddDate(0, -1, 0), nil, nil, testNow.AddDate(0, -1, 0), testNow.AddDate(0, -1, 0),
		))

	sub, err := store.Current(context.Background(), ForUser(5), testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, StatusActive, sub.Status)
	require.NotNil(t, sub.UserID)
	assert.Equal(t, int64(5), *sub.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrent_ConferencePrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE conference_id").
		WithArgs(int64(9), testNow).
		WillReturnRows(sqlmock.NewRows(subscriptionTestColumns).AddRow(
			3, "a0000000-0000-0000-0000-000000000003", nil, 9, 2, "trial",
			testNow.AddDate(0, 0, -7), nil, testNow.AddDate(0, 0, 7), testNow.AddDate(0, 0, -7), testNow.AddDate(0, 0, -7),
		))

	sub, err := store.Current(context.Background(), ForConference(9), testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusTrial, sub.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrent_NoneFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE user_id").
		WithArgs(int64(5), testNow).
		WillReturnError(sql.ErrNoRows)

	_, err = store.Current(context.Background(), ForUser(5), testNow)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrent_InvalidRefFailsBeforeQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	_, err = store.Current(context.Background(), PrincipalRef{}, testNow)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_IgnoresStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE conference_id").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(subscriptionTestColumns).AddRow(
			4, "a0000000-0000-0000-0000-000000000004", nil, 9, 2, "cancelled",
			testNow.AddDate(-1, 0, 0), testNow.AddDate(0, -6, 0), nil, testNow.AddDate(-1, 0, 0), testNow.AddDate(0, -6, 0),
		))

	sub, err := store.Latest(context.Background(), ForConference(9))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, sub.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE id").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err = store.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_GeneratesPublicIDAndDefaultsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	confID := int64(9)

	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), nil, confID, int64(2), StatusActive, testNow, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(10, testNow, testNow))

	sub, err := store.Create(context.Background(), &Subscription{
		ConferenceID: &confID,
		PlanID:       2,
		StartsAt:     testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sub.ID)
	assert.Equal(t, StatusActive, sub.Status)
	assert.NotEmpty(t, sub.PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ValidationFailsBeforeInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	_, err = store.Create(context.Background(), &Subscription{PlanID: 2})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	confID := int64(9)
	endsAt := testNow.AddDate(1, 0, 0)

	mock.ExpectQuery("UPDATE subscriptions").
		WithArgs(int64(3), StatusActive, testNow, endsAt, nil, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))

	sub, err := store.Update(context.Background(), &Subscription{
		ID:           10,
		ConferenceID: &confID,
		PlanID:       3,
		Status:       StatusActive,
		StartsAt:     testNow,
		EndsAt:       &endsAt,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sub.PlanID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	confID := int64(9)

	mock.ExpectQuery("UPDATE subscriptions").
		WillReturnError(sql.ErrNoRows)

	_, err = store.Update(context.Background(), &Subscription{
		ID:           99,
		ConferenceID: &confID,
		PlanID:       3,
		Status:       StatusActive,
	})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	userID := int64(5)

	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnError(errors.New("database error"))

	_, err = store.Create(context.Background(), &Subscription{
		UserID: &userID,
		PlanID: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create subscription")
	assert.NoError(t, mock.ExpectationsWereMet())
}
