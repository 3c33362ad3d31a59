package reporting

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/civil"
)

// ErrPatientNotFound is returned by PatientName for unknown patients.
var ErrPatientNotFound = errors.New("patient not found")

// Repository exposes the read queries the reports are built from.
type Repository interface {
	// CalendarRows returns appointments joined with patient names, ordered
	// by date then start time. The half-open range [start, end) applies only
	// when both bounds are non-nil; the patient filter is optional.
	CalendarRows(ctx context.Context, start, end *civil.Date, patientID *uuid.UUID) ([]*CalendarRow, error)

	// CompletedDates returns the distinct dates, ascending, on which the
	// patient had a completed appointment within [start, end] inclusive.
	CompletedDates(ctx context.Context, patientID uuid.UUID, start, end civil.Date) ([]civil.Date, error)

	// StatusCounts aggregates the patient's appointments per status. Either
	// bound may be nil; present bounds are inclusive.
	StatusCounts(ctx context.Context, patientID uuid.UUID, start, end *civil.Date) (map[string]int, error)

	// PatientName returns the patient's full name.
	PatientName(ctx context.Context, id uuid.UUID) (string, error)
}
