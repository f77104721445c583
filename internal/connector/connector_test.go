package connector

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
)

// Helper function to create a quiet logger for tests
func createTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

// stubSavepoints makes savepoint names predictable for the duration of a test
func stubSavepoints(t *testing.T, names ...string) {
	t.Helper()
	original := newSavepointName
	i := 0
	newSavepointName = func() string {
		name := names[i%len(names)]
		i++
		return name
	}
	t.Cleanup(func() { newSavepointName = original })
}

func newMockSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	return NewSession(tx, &dialect.Postgis{Columns: dialect.DefaultColumns()}, createTestLogger()), mock
}

func TestNewDatabaseConnector(t *testing.T) {
	logger := createTestLogger()

	tests := []struct {
		name     string
		dialect  dialect.Dialect
		host     string
		user     string
		port     string
		wantHost string
		wantUser string
		wantPort string
	}{
		{
			name:     "postgis defaults",
			dialect:  &dialect.Postgis{},
			wantHost: "localhost",
			wantUser: "postgres",
			wantPort: "5432",
		},
		{
			name:     "mysql defaults",
			dialect:  &dialect.MySQL{},
			wantHost: "localhost",
			wantUser: "root",
			wantPort: "3306",
		},
		{
			name:     "explicit parameters",
			dialect:  &dialect.Postgis{},
			host:     "explicit-host",
			user:     "explicit-user",
			port:     "6543",
			wantHost: "explicit-host",
			wantUser: "explicit-user",
			wantPort: "6543",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewDatabaseConnector(tt.host, tt.user, "secret", "qa", tt.port, tt.dialect, logger)
			assert.Equal(t, tt.wantHost, db.Host)
			assert.Equal(t, tt.wantUser, db.User)
			assert.Equal(t, tt.wantPort, db.Port)
			assert.Equal(t, "secret", db.Password)
			assert.Equal(t, "qa", db.Database)
		})
	}
}

func TestConnectRequiresDatabase(t *testing.T) {
	db := NewDatabaseConnector("", "", "", "", "", &dialect.Postgis{}, createTestLogger())

	err := db.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, scanerr.IsFatal(err))
}

func TestOpenSessionIsReadOnlyTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	dc := NewDatabaseConnector("", "", "", "qa", "", &dialect.Postgis{}, createTestLogger())
	dc.DB = sqlDB

	mock.ExpectBegin()
	mock.ExpectRollback()

	session, err := dc.OpenSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, session.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSessionBeginFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	dc := NewDatabaseConnector("", "", "", "qa", "", &dialect.Postgis{}, createTestLogger())
	dc.DB = sqlDB

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err = dc.OpenSession(context.Background())
	require.Error(t, err)
	assert.True(t, scanerr.IsFatal(err))
}

func TestSessionExecuteQuerySuccess(t *testing.T) {
	stubSavepoints(t, "sp_one")
	session, mock := newMockSession(t)

	mock.ExpectExec(`SAVEPOINT "sp_one"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name FROM roads WHERE kind = $1").
		WithArgs("primary").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Main street")).
			AddRow(int64(2), nil))
	mock.ExpectExec(`RELEASE SAVEPOINT "sp_one"`).WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := session.ExecuteQuery(context.Background(), "SELECT id, name FROM roads WHERE kind = $1", "primary")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Main street", rows[0]["name"])
	assert.Nil(t, rows[1]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFailedQueryDoesNotPoisonTransaction(t *testing.T) {
	stubSavepoints(t, "sp_bad", "sp_good")
	session, mock := newMockSession(t)
	driverErr := errors.New(`relation "missing" does not exist`)

	mock.ExpectExec(`SAVEPOINT "sp_bad"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM missing").WillReturnError(driverErr)
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT "sp_bad"`).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(`SAVEPOINT "sp_good"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 AS one").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(int64(1)))
	mock.ExpectExec(`RELEASE SAVEPOINT "sp_good"`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := session.ExecuteQuery(context.Background(), "SELECT id FROM missing")
	require.Error(t, err)
	assert.True(t, scanerr.IsQueryError(err))
	assert.False(t, scanerr.IsFatal(err))
	assert.ErrorIs(t, err, driverErr)

	rows, err := session.ExecuteQuery(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"one": int64(1)}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionEmptyResult(t *testing.T) {
	stubSavepoints(t, "sp_empty")
	session, mock := newMockSession(t)

	mock.ExpectExec(`SAVEPOINT "sp_empty"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM roads").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`RELEASE SAVEPOINT "sp_empty"`).WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := session.ExecuteQuery(context.Background(), "SELECT id FROM roads")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSavepointFailure(t *testing.T) {
	stubSavepoints(t, "sp_fail")
	session, mock := newMockSession(t)

	mock.ExpectExec(`SAVEPOINT "sp_fail"`).WillReturnError(errors.New("current transaction is aborted"))

	_, err := session.ExecuteQuery(context.Background(), "SELECT id FROM roads")
	require.Error(t, err)
	assert.True(t, scanerr.IsQueryError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionCloseRollsBack(t *testing.T) {
	session, mock := newMockSession(t)
	mock.ExpectRollback()

	require.NoError(t, session.Close())
	// A second close sees sql.ErrTxDone and stays quiet
	require.NoError(t, session.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSavepointName(t *testing.T) {
	first, second := newSavepointName(), newSavepointName()

	assert.Regexp(t, regexp.MustCompile(`^sp_[0-9a-f]{32}$`), first)
	assert.NotEqual(t, first, second)
}
