package postgres

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samzcoder/hotel-control/internal/domain/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	stmts   []string
	errorOn map[string]error // keyed by statement prefix
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)

	trimmed := strings.TrimSpace(sql)
	for prefix, err := range f.errorOn {
		if strings.HasPrefix(trimmed, prefix) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func newTestProvisioner(db execer) (*Provisioner, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewProvisioner(db, log, nil), &buf
}

func TestEnsureSchema_RunsCreateThenAlter(t *testing.T) {
	db := &fakeExecer{}
	p, _ := newTestProvisioner(db)

	require.NoError(t, p.EnsureSchema(context.Background()))

	require.Len(t, db.stmts, 3)
	assert.Contains(t, db.stmts[0], "CREATE TABLE IF NOT EXISTS registrations")
	assert.Contains(t, db.stmts[1], "ADD COLUMN IF NOT EXISTS customer_id")
	assert.NotContains(t, db.stmts[1], "UNIQUE")
	assert.Contains(t, db.stmts[2], "CREATE UNIQUE INDEX IF NOT EXISTS registrations_customer_id_key")
}

func TestEnsureSchema_UniqueIndexFailureIsSwallowed(t *testing.T) {
	db := &fakeExecer{errorOn: map[string]error{
		"CREATE UNIQUE INDEX": &pgconn.PgError{Code: "23505", Message: "could not create unique index"},
	}}
	p, logs := newTestProvisioner(db)

	require.NoError(t, p.EnsureSchema(context.Background()))
	assert.Contains(t, logs.String(), "schema_alter_skipped")
}

func TestEnsureSchema_AlterFailureIsSwallowedAndLogged(t *testing.T) {
	db := &fakeExecer{errorOn: map[string]error{
		"ALTER TABLE": &pgconn.PgError{Code: "42P16", Message: "multiple primary keys"},
	}}
	p, logs := newTestProvisioner(db)

	err := p.EnsureSchema(context.Background())

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "schema_alter_skipped")
	assert.Contains(t, logs.String(), "level=INFO")
}

func TestAddColumns_WrapsErrSchemaAlter(t *testing.T) {
	cause := errors.New("column conflict")
	db := &fakeExecer{errorOn: map[string]error{"ALTER TABLE": cause}}
	p, _ := newTestProvisioner(db)

	err := p.addColumns(context.Background())

	require.ErrorIs(t, err, ErrSchemaAlter)
	require.ErrorIs(t, err, cause)
}

func TestEnsureSchema_CreateFailureSurfaces(t *testing.T) {
	db := &fakeExecer{errorOn: map[string]error{"CREATE TABLE": errors.New("connection refused")}}
	p, _ := newTestProvisioner(db)

	err := p.EnsureSchema(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchemaAlter)
	// no point altering a table that could not be ensured
	assert.Len(t, db.stmts, 1)
}

func TestEnsureSchema_ConcurrentCreateRaceIsSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"duplicate_table", &pgconn.PgError{Code: "42P07"}},
		{"catalog_type_race", &pgconn.PgError{Code: "23505", ConstraintName: "pg_type_typname_nsp_index"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeExecer{errorOn: map[string]error{"CREATE TABLE": tt.err}}
			p, _ := newTestProvisioner(db)

			require.NoError(t, p.EnsureSchema(context.Background()))
			assert.Len(t, db.stmts, 3)
		})
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := &fakeExecer{}
	p, _ := newTestProvisioner(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.EnsureSchema(context.Background()))
	}

	// same three statements every run, nothing destructive
	require.Len(t, db.stmts, 9)
	for _, s := range db.stmts {
		assert.NotContains(t, strings.ToUpper(s), "DROP")
	}
}

func TestTranslateWriteErr(t *testing.T) {
	dup := translateWriteErr(&pgconn.PgError{Code: "23505", ConstraintName: "registrations_customer_id_key"})

	assert.ErrorIs(t, dup, registration.ErrDuplicateCustomerID)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(dup, &pgErr), "driver error must stay reachable for logs")

	other := errors.New("boom")
	assert.Equal(t, other, translateWriteErr(other))
}
