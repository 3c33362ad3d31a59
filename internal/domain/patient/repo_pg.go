package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, full_name, birth_date, phone, phone_alt, email, emergency_contact,
	city, street, neighborhood, state, postal_code, diagnosis, notes, recommended_by,
	chronic_diseases, recent_surgeries, photo_id, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.BirthDate, &p.Phone, &p.PhoneAlt, &p.Email,
		&p.EmergencyContact, &p.City, &p.Street, &p.Neighborhood, &p.State, &p.PostalCode,
		&p.Diagnosis, &p.Notes, &p.RecommendedBy, &p.ChronicDiseases, &p.RecentSurgeries,
		&p.PhotoID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, full_name, birth_date, phone, phone_alt, email, emergency_contact,
			city, street, neighborhood, state, postal_code, diagnosis, notes, recommended_by,
			chronic_diseases, recent_surgeries, photo_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.FullName, p.BirthDate, p.Phone, p.PhoneAlt, p.Email, p.EmergencyContact,
		p.City, p.Street, p.Neighborhood, p.State, p.PostalCode, p.Diagnosis, p.Notes,
		p.RecommendedBy, p.ChronicDiseases, p.RecentSurgeries, p.PhotoID)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET full_name=$2, birth_date=$3, phone=$4, phone_alt=$5, email=$6,
			emergency_contact=$7, city=$8, street=$9, neighborhood=$10, state=$11,
			postal_code=$12, diagnosis=$13, notes=$14, recommended_by=$15,
			chronic_diseases=$16, recent_surgeries=$17
		WHERE id = $1`,
		p.ID, p.FullName, p.BirthDate, p.Phone, p.PhoneAlt, p.Email, p.EmergencyContact,
		p.City, p.Street, p.Neighborhood, p.State, p.PostalCode, p.Diagnosis, p.Notes,
		p.RecommendedBy, p.ChronicDiseases, p.RecentSurgeries)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	query := `SELECT ` + patientCols + ` FROM patient WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patient WHERE 1=1`
	var args []interface{}
	idx := 1

	if term != "" {
		filter := fmt.Sprintf(` AND (full_name ILIKE $%d OR recommended_by ILIKE $%d)`, idx, idx)
		query += filter
		countQuery += filter
		args = append(args, "%"+term+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *patientRepoPG) SetPhoto(ctx context.Context, id uuid.UUID, photoID *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE patient SET photo_id = $2 WHERE id = $1`, id, photoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const rxCols = `id, patient_id, file_id, description, notes, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var rx Prescription
	err := row.Scan(&rx.ID, &rx.PatientID, &rx.FileID, &rx.Description, &rx.Notes, &rx.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rx, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, rx *Prescription) error {
	rx.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, patient_id, file_id, description, notes)
		VALUES ($1,$2,$3,$4,$5)`,
		rx.ID, rx.PatientID, rx.FileID, rx.Description, rx.Notes)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) GetForPatient(ctx context.Context, patientID, prescriptionID uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE id = $1 AND patient_id = $2`,
		prescriptionID, patientID))
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *prescriptionRepoPG) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	query := `SELECT ` + rxCols + ` FROM prescription WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM prescription WHERE 1=1`
	var args []interface{}
	idx := 1

	if patientID != nil {
		filter := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += filter
		countQuery += filter
		args = append(args, *patientID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		rx, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rx)
	}
	return items, total, nil
}

// =========== Clinical History Repository ===========

type clinicalHistoryRepoPG struct{ pool *pgxpool.Pool }

func NewClinicalHistoryRepoPG(pool *pgxpool.Pool) ClinicalHistoryRepository {
	return &clinicalHistoryRepoPG{pool: pool}
}

func (r *clinicalHistoryRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const historyCols = `id, patient_id, therapist_id, date, diagnosis, treatment, evolution,
	pain_level, notes, created_at`

func scanHistory(row pgx.Row) (*ClinicalHistory, error) {
	var e ClinicalHistory
	err := row.Scan(&e.ID, &e.PatientID, &e.TherapistID, &e.Date, &e.Diagnosis, &e.Treatment,
		&e.Evolution, &e.PainLevel, &e.Notes, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *clinicalHistoryRepoPG) Create(ctx context.Context, e *ClinicalHistory) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_history (id, patient_id, therapist_id, date, diagnosis, treatment,
			evolution, pain_level, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.PatientID, e.TherapistID, e.Date, e.Diagnosis, e.Treatment,
		e.Evolution, e.PainLevel, e.Notes)
	return err
}

func (r *clinicalHistoryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClinicalHistory, error) {
	return scanHistory(r.conn(ctx).QueryRow(ctx, `SELECT `+historyCols+` FROM clinical_history WHERE id = $1`, id))
}

func (r *clinicalHistoryRepoPG) Update(ctx context.Context, e *ClinicalHistory) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_history SET date=$2, diagnosis=$3, treatment=$4, evolution=$5,
			pain_level=$6, notes=$7
		WHERE id = $1`,
		e.ID, e.Date, e.Diagnosis, e.Treatment, e.Evolution, e.PainLevel, e.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clinicalHistoryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinical_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clinicalHistoryRepoPG) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*ClinicalHistory, int, error) {
	query := `SELECT ` + historyCols + ` FROM clinical_history WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM clinical_history WHERE 1=1`
	var args []interface{}
	idx := 1

	if patientID != nil {
		filter := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += filter
		countQuery += filter
		args = append(args, *patientID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ClinicalHistory
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
