package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "db", "mindcare.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	data, err := s.Get(ctx, KindProfile, "alice")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Put(ctx, KindProfile, "alice", []byte(`{"username":"alice"}`)))
	require.NoError(t, s.Put(ctx, KindProfile, "alice", []byte(`{"username":"alice","total_messages":2}`)))

	data, err = s.Get(ctx, KindProfile, "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","total_messages":2}`, string(data))

	// Same key under another kind is a separate record.
	data, err = s.Get(ctx, KindChatHistory, "alice")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLiteStoreReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindcare.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KindCredentials, CredentialsKey, []byte(`{"alice":"pw"}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	data, err := s.Get(ctx, KindCredentials, CredentialsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice":"pw"}`, string(data))
}

func TestSQLiteStoreGetQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT data FROM records").
		WillReturnError(errors.New("connection reset"))

	s := newSQLiteStore(db)
	_, err = s.Get(context.Background(), KindProfile, "alice")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreGetReturnsData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT data FROM records").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`not json`))

	s := newSQLiteStore(db)
	data, err := s.Get(context.Background(), KindProfile, "alice")
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStorePutRetriesBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	fixed := time.Unix(1_700_000_000, 0)
	s := newSQLiteStore(db)
	s.now = func() time.Time { return fixed }

	mock.ExpectExec("INSERT INTO records").
		WithArgs("profile", "alice", `{}`, fixed.Unix(), fixed.Unix()).
		WillReturnError(errors.New("SQLITE_BUSY"))
	mock.ExpectExec("INSERT INTO records").
		WithArgs("profile", "alice", `{}`, fixed.Unix(), fixed.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(context.Background(), KindProfile, "alice", []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStorePutFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO records").
		WillReturnError(errors.New("disk full"))

	s := newSQLiteStore(db)
	err = s.Put(context.Background(), KindChatHistory, "alice", []byte(`[]`))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreRejectsUnsafeKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := newSQLiteStore(db)
	_, err = s.Get(context.Background(), KindProfile, "../x")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
