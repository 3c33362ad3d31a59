package patient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/blobstore"
	"github.com/clinicore/clinicore/pkg/civil"
)

type Service struct {
	patients      PatientRepository
	prescriptions PrescriptionRepository
	history       ClinicalHistoryRepository
	blobs         blobstore.BlobStore
}

func NewService(patients PatientRepository, prescriptions PrescriptionRepository, history ClinicalHistoryRepository, blobs blobstore.BlobStore) *Service {
	return &Service{patients: patients, prescriptions: prescriptions, history: history, blobs: blobs}
}

// -- Patient --

func validatePhone(field, value string) error {
	if value == "" {
		return nil
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Errorf("%s must contain digits only", field)
		}
	}
	return nil
}

func validatePatient(p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if err := validatePhone("phone", p.Phone); err != nil {
		return err
	}
	if err := validatePhone("phone_alt", p.PhoneAlt); err != nil {
		return err
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

// DeletePatient removes the patient row. Prescriptions, history entries, and
// appointments go with it via FK cascade; the photo blob is released first.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.PhotoID != nil {
		if err := s.blobs.Delete(ctx, *p.PhotoID); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
			return fmt.Errorf("delete photo blob: %w", err)
		}
	}
	return s.patients.Delete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, term, limit, offset)
}

// -- Photo --

// UploadPhoto stores the image in the blobstore and points the patient record
// at it, releasing any previous photo.
func (s *Service) UploadPhoto(ctx context.Context, patientID uuid.UUID, fileName, contentType string, content io.Reader) (*blobstore.BlobMetadata, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		PatientID:   patientID.String(),
		Category:    blobstore.CategoryPatientPhoto,
	}, content)
	if err != nil {
		return nil, err
	}

	if err := s.patients.SetPhoto(ctx, patientID, &meta.ID); err != nil {
		return nil, err
	}

	if p.PhotoID != nil {
		// Best effort: the new photo is already in place.
		_ = s.blobs.Delete(ctx, *p.PhotoID)
	}
	return meta, nil
}

// DeletePhoto removes the patient's photo. Deleting a photo that does not
// exist is not an error.
func (s *Service) DeletePhoto(ctx context.Context, patientID uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return err
	}
	if p.PhotoID == nil {
		return nil
	}
	if err := s.blobs.Delete(ctx, *p.PhotoID); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		return err
	}
	return s.patients.SetPhoto(ctx, patientID, nil)
}

// DownloadPhoto streams the patient's photo from the blobstore.
func (s *Service) DownloadPhoto(ctx context.Context, patientID uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	if p.PhotoID == nil {
		return nil, nil, ErrNotFound
	}
	rc, meta, err := s.blobs.Download(ctx, *p.PhotoID)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, ErrNotFound
	}
	return rc, meta, err
}

// -- Prescription --

// CreatePrescription stores the uploaded file and the prescription record
// referencing it.
func (s *Service) CreatePrescription(ctx context.Context, rx *Prescription, fileName, contentType string, content io.Reader) error {
	if rx.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if _, err := s.patients.GetByID(ctx, rx.PatientID); err != nil {
		return err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		PatientID:   rx.PatientID.String(),
		Category:    blobstore.CategoryPrescription,
	}, content)
	if err != nil {
		return err
	}

	rx.FileID = meta.ID
	return s.prescriptions.Create(ctx, rx)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, patientID, limit, offset)
}

// DeletePatientPrescription deletes a prescription scoped to a patient. It
// returns ErrNotFound when the prescription exists but belongs to someone
// else, so callers cannot probe other patients' records.
func (s *Service) DeletePatientPrescription(ctx context.Context, patientID, prescriptionID uuid.UUID) error {
	rx, err := s.prescriptions.GetForPatient(ctx, patientID, prescriptionID)
	if err != nil {
		return err
	}
	if rx.FileID != "" {
		if err := s.blobs.Delete(ctx, rx.FileID); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
			return fmt.Errorf("delete prescription file: %w", err)
		}
	}
	return s.prescriptions.Delete(ctx, prescriptionID)
}

// DownloadPrescriptionFile streams the stored prescription document.
func (s *Service) DownloadPrescriptionFile(ctx context.Context, id uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	rx, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, meta, err := s.blobs.Download(ctx, rx.FileID)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, ErrNotFound
	}
	return rc, meta, err
}

// -- Clinical history --

func validateHistory(e *ClinicalHistory) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.Treatment == "" {
		return fmt.Errorf("treatment is required")
	}
	if e.PainLevel != nil && (*e.PainLevel < 0 || *e.PainLevel > 10) {
		return fmt.Errorf("pain_level must be between 0 and 10")
	}
	return nil
}

// CreateHistoryEntry validates and stores a session note. TherapistID should
// be set by the caller from the authenticated user; the date defaults to
// today when absent.
func (s *Service) CreateHistoryEntry(ctx context.Context, e *ClinicalHistory) error {
	if err := validateHistory(e); err != nil {
		return err
	}
	if e.Date.IsZero() {
		e.Date = civil.Today()
	}
	return s.history.Create(ctx, e)
}

func (s *Service) GetHistoryEntry(ctx context.Context, id uuid.UUID) (*ClinicalHistory, error) {
	return s.history.GetByID(ctx, id)
}

func (s *Service) UpdateHistoryEntry(ctx context.Context, e *ClinicalHistory) error {
	if err := validateHistory(e); err != nil {
		return err
	}
	return s.history.Update(ctx, e)
}

func (s *Service) DeleteHistoryEntry(ctx context.Context, id uuid.UUID) error {
	return s.history.Delete(ctx, id)
}

func (s *Service) ListHistory(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*ClinicalHistory, int, error) {
	return s.history.List(ctx, patientID, limit, offset)
}
