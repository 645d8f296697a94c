package database

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// MockPool returns a pgxmock pool usable wherever a DBTX is expected. It is
// closed when tb finishes; asserting ExpectationsWereMet is left to the test.
func MockPool(tb testing.TB) pgxmock.PgxPoolIface {
	tb.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		tb.Fatalf("create mock pool: %v", err)
	}
	tb.Cleanup(mock.Close)
	return mock
}
