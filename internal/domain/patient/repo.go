package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist, including when a
// prescription does not belong to the named patient.
var ErrNotFound = errors.New("not found")

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search matches the term case-insensitively against full_name and
	// recommended_by; an empty term lists everyone.
	Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error)
	SetPhoto(ctx context.Context, id uuid.UUID, photoID *string) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, rx *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// GetForPatient returns ErrNotFound when the prescription does not
	// belong to the patient.
	GetForPatient(ctx context.Context, patientID, prescriptionID uuid.UUID) (*Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}

type ClinicalHistoryRepository interface {
	Create(ctx context.Context, e *ClinicalHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicalHistory, error)
	Update(ctx context.Context, e *ClinicalHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*ClinicalHistory, int, error)
}
