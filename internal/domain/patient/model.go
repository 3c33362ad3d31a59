package patient

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/civil"
)

// Patient maps to the patient table.
type Patient struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	FullName         string      `db:"full_name" json:"full_name"`
	BirthDate        *civil.Date `db:"birth_date" json:"birth_date,omitempty"`
	Phone            string      `db:"phone" json:"phone"`
	PhoneAlt         string      `db:"phone_alt" json:"phone_alt"`
	Email            string      `db:"email" json:"email"`
	EmergencyContact string      `db:"emergency_contact" json:"emergency_contact"`
	City             *string     `db:"city" json:"city,omitempty"`
	Street           *string     `db:"street" json:"street,omitempty"`
	Neighborhood     *string     `db:"neighborhood" json:"neighborhood,omitempty"`
	State            *string     `db:"state" json:"state,omitempty"`
	PostalCode       *string     `db:"postal_code" json:"postal_code,omitempty"`
	Diagnosis        string      `db:"diagnosis" json:"diagnosis"`
	Notes            string      `db:"notes" json:"notes"`
	RecommendedBy    string      `db:"recommended_by" json:"recommended_by"`
	ChronicDiseases  string      `db:"chronic_diseases" json:"chronic_diseases"`
	RecentSurgeries  string      `db:"recent_surgeries" json:"recent_surgeries"`
	PhotoID          *string     `db:"photo_id" json:"photo_id,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

// Age returns the patient's age in whole years as of now, or nil when the
// birth date is unknown. The month and day are taken into account so the age
// does not tick over until the actual birthday.
func (p *Patient) Age(now time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	b := p.BirthDate.Time
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return &years
}

// MarshalJSON serializes the patient with the derived age field.
func (p *Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		*alias
		Age *int `json:"age"`
	}{
		alias: (*alias)(p),
		Age:   p.Age(time.Now().UTC()),
	})
}

// Prescription maps to the prescription table. The file itself lives in the
// blobstore; FileID references it.
type Prescription struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	FileID      string    `db:"file_id" json:"file_id"`
	Description string    `db:"description" json:"description"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClinicalHistory maps to the clinical_history table: one session note per
// row, newest first.
type ClinicalHistory struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	TherapistID *uuid.UUID `db:"therapist_id" json:"therapist_id,omitempty"`
	Date        civil.Date `db:"date" json:"date"`
	Diagnosis   *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment   string     `db:"treatment" json:"treatment"`
	Evolution   *string    `db:"evolution" json:"evolution,omitempty"`
	PainLevel   *int       `db:"pain_level" json:"pain_level,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
