package reporting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/pkg/civil"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) CalendarRows(ctx context.Context, start, end *civil.Date, patientID *uuid.UUID) ([]*CalendarRow, error) {
	query := `
		SELECT a.id, a.patient_id, a.date, a.start_time, a.duration_minutes,
			a.status, a.attended, a.notes, a.created_at, p.full_name
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		WHERE 1=1`
	var args []interface{}
	idx := 1

	if start != nil && end != nil {
		query += fmt.Sprintf(` AND a.date >= $%d AND a.date < $%d`, idx, idx+1)
		args = append(args, *start, *end)
		idx += 2
	}
	if patientID != nil {
		query += fmt.Sprintf(` AND a.patient_id = $%d`, idx)
		args = append(args, *patientID)
		idx++
	}
	query += ` ORDER BY a.date, a.start_time`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*CalendarRow
	for rows.Next() {
		var row CalendarRow
		a := &row.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Date, &a.StartTime, &a.DurationMinutes,
			&a.Status, &a.Attended, &a.Notes, &a.CreatedAt, &row.PatientName); err != nil {
			return nil, err
		}
		items = append(items, &row)
	}
	return items, rows.Err()
}

func (r *repoPG) CompletedDates(ctx context.Context, patientID uuid.UUID, start, end civil.Date) ([]civil.Date, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT date FROM appointment
		WHERE patient_id = $1 AND status = 'completed' AND date BETWEEN $2 AND $3
		ORDER BY date`,
		patientID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []civil.Date
	for rows.Next() {
		var d civil.Date
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *repoPG) StatusCounts(ctx context.Context, patientID uuid.UUID, start, end *civil.Date) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM appointment WHERE patient_id = $1`
	args := []interface{}{patientID}
	idx := 2

	if start != nil {
		query += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, *start)
		idx++
	}
	if end != nil {
		query += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, *end)
		idx++
	}
	query += ` GROUP BY status`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, err
		}
		counts[status] = total
	}
	return counts, rows.Err()
}

func (r *repoPG) PatientName(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	err := r.conn(ctx).QueryRow(ctx, `SELECT full_name FROM patient WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPatientNotFound
	}
	return name, err
}
