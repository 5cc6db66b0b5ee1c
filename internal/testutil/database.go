package testutil

import (
	"testing"

	"rota-go/internal/database"
	"rota-go/internal/rota"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestService bundles a RotaService with the collaborators tests poke at.
type TestService struct {
	*rota.RotaService
	Store *database.SQLiteDatabase
	Clock *StubClock
}

// NewTestService wires a RotaService to a fresh in-memory database, a
// FixedClock and sequential ids, scheduling in UTC.
func NewTestService(t *testing.T) *TestService {
	t.Helper()

	db := NewTestDatabase(t)
	clock := FixedClock()
	svc := rota.NewRotaService(db, rota.NewNopLogger(), clock, NewStubIDGenerator(), rota.Options{})
	return &TestService{RotaService: svc, Store: db, Clock: clock}
}
