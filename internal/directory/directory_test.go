package directory

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := New(db)

	mock.ExpectQuery(`SELECT name FROM users WHERE id = ANY`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice").AddRow("bob"))

	names, err := d.NamesByIDs(context.Background(), []int64{1, 2})
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestNamesByIDs_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	names, err := New(db).NamesByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, names)
}

func TestGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := New(db)

	mock.ExpectQuery(`SELECT id, name, email FROM users`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(int64(7), "ops", "ops@example.com"))

	u, err := d.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ops", u.Name)
}

func TestGet_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, email FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := New(db).Get(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, u)
}
