package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samzcoder/hotel-control/internal/domain/registration"
	"github.com/samzcoder/hotel-control/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/samzcoder/hotel-control/internal/repo/postgres")

// DBTX is the subset of *pgxpool.Pool the repo uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RegistrationRepo struct {
	db     DBTX
	prom   *observability.Prom
	schema *Provisioner
}

func NewRegistrationsRepo(db DBTX, log *slog.Logger, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		db:     db,
		prom:   prom,
		schema: NewProvisioner(db, log, prom),
	}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (repo *RegistrationRepo) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
	)

	err := repo.prom.ObserveDB(op, func() error {
		return fn(ctx)
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, observability.ClassifyDBErr(err))
	}
	return err
}

func (repo *RegistrationRepo) EnsureSchema(ctx context.Context) error {
	return repo.schema.EnsureSchema(ctx)
}

const registrationColumns = `id, COALESCE(customer_id, ''), full_name, email, check_in_date, check_out_date, room_type, created_at`

func (repo *RegistrationRepo) List(ctx context.Context, filter registration.ListFilter) (regs []registration.Registration, err error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations`
	args := []any{}

	if filter.CustomerID != nil && *filter.CustomerID != "" {
		// position() instead of ILIKE so % and _ in the term stay literal
		query += ` WHERE position(lower($1) in lower(customer_id)) > 0`
		args = append(args, *filter.CustomerID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	var rows pgx.Rows

	err = repo.observe(ctx, "registrations.list", func(ctx context.Context) error {
		var qerr error
		rows, qerr = repo.db.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)

	for rows.Next() {
		r, e := scanRegistration(rows)

		if e != nil {
			err = e
			return
		}
		regs = append(regs, r)
	}

	e := rows.Err()

	if e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("registrations.list", "rows_err").Inc()
		}
		err = e
		return
	}

	return
}

func (repo *RegistrationRepo) Create(ctx context.Context, req registration.CreateRegistrationRequest) (reg registration.Registration, err error) {
	checkIn, checkOut, err := parseStay(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return
	}

	err = repo.observe(ctx, "registrations.create", func(ctx context.Context) error {
		row := repo.db.QueryRow(ctx, `
		INSERT INTO registrations (customer_id, full_name, email, check_in_date, check_out_date, room_type)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+registrationColumns,
			req.CustomerID, req.FullName, req.Email, checkIn, checkOut, req.RoomType,
		)

		var e error
		reg, e = scanRegistration(row)
		return e
	})

	if err != nil {
		err = translateWriteErr(err)
		return
	}

	return
}

// Update replaces every mutable column of row req.ID. It returns
// registration.ErrNotFound when no row matched.
func (repo *RegistrationRepo) Update(ctx context.Context, req registration.UpdateRegistrationRequest) error {
	checkIn, checkOut, err := parseStay(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return err
	}

	var tag pgconn.CommandTag

	err = repo.observe(ctx, "registrations.update", func(ctx context.Context) error {
		var e error
		tag, e = repo.db.Exec(ctx, `
		UPDATE registrations
			SET customer_id = $2,
					full_name = $3,
					email = $4,
					check_in_date = $5,
					check_out_date = $6,
					room_type = $7
		WHERE id = $1`,
			req.ID, req.CustomerID, req.FullName, req.Email, checkIn, checkOut, req.RoomType,
		)
		return e
	})

	if err != nil {
		return translateWriteErr(err)
	}

	if tag.RowsAffected() == 0 {
		return registration.ErrNotFound
	}

	return nil
}

// Delete removes a single registration. It returns registration.ErrNotFound
// when no row matched.
func (repo *RegistrationRepo) Delete(ctx context.Context, id int64) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe(ctx, "registrations.delete", func(ctx context.Context) error {
		var e error
		tag, e = repo.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = registration.ErrNotFound
		return
	}

	return
}

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration
	var checkIn, checkOut time.Time

	err := row.Scan(&r.ID, &r.CustomerID, &r.FullName, &r.Email, &checkIn, &checkOut, &r.RoomType, &r.CreatedAt)
	if err != nil {
		return registration.Registration{}, err
	}

	r.CheckInDate = checkIn.Format(registration.DateLayout)
	r.CheckOutDate = checkOut.Format(registration.DateLayout)

	return r, nil
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(registration.DateLayout, registration.MustNormalizeDate(checkIn))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("check-in date: %w", registration.ErrInvalidDate)
	}

	out, err := time.Parse(registration.DateLayout, registration.MustNormalizeDate(checkOut))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("check-out date: %w", registration.ErrInvalidDate)
	}

	return in, out, nil
}

// translateWriteErr keeps the driver error for logs while letting callers
// match the domain sentinel with errors.Is.
func translateWriteErr(err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", registration.ErrDuplicateCustomerID, err)
	}
	return err
}
