package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samzcoder/hotel-control/internal/observability"
)

// ErrSchemaAlter marks a failed best-effort column migration. It is logged
// and never returned to request handlers.
var ErrSchemaAlter = errors.New("schema alter skipped")

const createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS registrations (
	id SERIAL PRIMARY KEY,
	customer_id VARCHAR(255) UNIQUE,
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	check_in_date DATE NOT NULL,
	check_out_date DATE NOT NULL,
	room_type VARCHAR(50) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Tables created before customer ids existed lack the column. The unique
// index is added separately, under the name CREATE TABLE gives the column's
// constraint, so an existing table never gains a second index.
const (
	addCustomerIDColumn = `ALTER TABLE registrations ADD COLUMN IF NOT EXISTS customer_id VARCHAR(255)`
	addCustomerIDUnique = `CREATE UNIQUE INDEX IF NOT EXISTS registrations_customer_id_key ON registrations (customer_id)`
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Provisioner keeps the registrations table in its current shape. Every
// statement is a no-op once applied, so it runs before every create and list.
type Provisioner struct {
	db   execer
	log  *slog.Logger
	prom *observability.Prom
}

func NewProvisioner(db execer, log *slog.Logger, prom *observability.Prom) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{db: db, log: log, prom: prom}
}

func (p *Provisioner) EnsureSchema(ctx context.Context) error {
	err := p.prom.ObserveDB("schema.create_table", func() error {
		_, e := p.db.Exec(ctx, createRegistrationsTable)
		return e
	})

	if err != nil && !isConcurrentCreate(err) {
		p.prom.ObserveSchema("create_table", "error")
		return fmt.Errorf("ensure registrations table: %w", err)
	}
	p.prom.ObserveSchema("create_table", "ok")

	err = p.addColumns(ctx)

	if err != nil {
		p.prom.ObserveSchema("add_column", "skipped")
		p.log.InfoContext(ctx, "schema_alter_skipped", "reason", "column may already exist", "err", err)
		return nil
	}
	p.prom.ObserveSchema("add_column", "ok")

	return nil
}

func (p *Provisioner) addColumns(ctx context.Context) error {
	for _, stmt := range []string{addCustomerIDColumn, addCustomerIDUnique} {
		_, err := p.db.Exec(ctx, stmt)

		if err != nil {
			return fmt.Errorf("%w: %w", ErrSchemaAlter, err)
		}
	}

	return nil
}

// Two sessions racing CREATE TABLE IF NOT EXISTS can both pass the existence
// check; the loser fails on the catalog, and the table is there either way.
func isConcurrentCreate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "42P07":
		return true
	case "23505":
		return pgErr.ConstraintName == "pg_type_typname_nsp_index"
	}
	return false
}
