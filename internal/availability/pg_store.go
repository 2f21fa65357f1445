package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var pattern []byte

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Department,
		&d.SlotMinutes,
		&d.Active,
		&pattern,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if len(pattern) > 0 {
		if err := json.Unmarshal(pattern, &d.Pattern); err != nil {
			return nil, fmt.Errorf("decode pattern: %w", err)
		}
	}
	if d.Pattern == nil {
		d.Pattern = WeeklyPattern{}
	}

	return &d, nil
}

func scanOverride(row pgx.Row) (*Override, error) {
	var ov Override
	var startMin, endMin *int

	err := row.Scan(
		&ov.ID,
		&ov.DoctorID,
		&ov.Date,
		&ov.Kind,
		&startMin,
		&endMin,
		&ov.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startMin != nil && endMin != nil {
		ov.Interval = &Interval{Start: *startMin, End: *endMin}
	}

	return &ov, nil
}

// Interface methods

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) error {
	pattern, err := json.Marshal(d.Pattern)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialty, department, slot_minutes, active, pattern, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`, d.ID, d.Name, d.Specialty, d.Department, d.SlotMinutes, d.Active, pattern)

	return row.Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, department, slot_minutes, active, pattern, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, department, slot_minutes, active, pattern, created_at, updated_at
		FROM doctors
		WHERE active OR NOT $1
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateDoctorPattern(ctx context.Context, id uuid.UUID, p WeeklyPattern) error {
	pattern, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET pattern = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, pattern)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) InsertOverride(ctx context.Context, ov Override) error {
	var startMin, endMin *int
	if ov.Interval != nil {
		startMin = &ov.Interval.Start
		endMin = &ov.Interval.End
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_overrides (id, doctor_id, date, kind, start_minute, end_minute, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, ov.ID, ov.DoctorID, ov.Date, ov.Kind, startMin, endMin)
	if err != nil {
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

func (r *PgRepository) ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, date, kind, start_minute, end_minute, created_at
		FROM availability_overrides
		WHERE doctor_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date, created_at
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ov)
	}

	return result, rows.Err()
}
