package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/civil"
)

// Appointment statuses. No automatic transitions: the front desk moves an
// appointment between states explicitly.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// DefaultDurationMinutes is applied when a new appointment omits a duration.
const DefaultDurationMinutes = 60

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// Appointment maps to the appointment table. Date and start time are kept as
// separate calendar values, matching how the clinic books sessions; End()
// derives the wall-clock end for the calendar feed.
type Appointment struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	PatientID       uuid.UUID        `db:"patient_id" json:"patient_id"`
	Date            civil.Date       `db:"date" json:"date"`
	StartTime       *civil.TimeOfDay `db:"start_time" json:"start_time"`
	DurationMinutes *int             `db:"duration_minutes" json:"duration_minutes"`
	Status          string           `db:"status" json:"status"`
	Attended        bool             `db:"attended" json:"attended"`
	Notes           string           `db:"notes" json:"notes"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// Start returns the appointment's start as a wall-clock instant.
func (a *Appointment) Start() time.Time {
	if a.StartTime == nil {
		return a.Date.Time
	}
	return a.StartTime.On(a.Date)
}

// End returns the start plus the session duration.
func (a *Appointment) End() time.Time {
	minutes := DefaultDurationMinutes
	if a.DurationMinutes != nil {
		minutes = *a.DurationMinutes
	}
	return a.Start().Add(time.Duration(minutes) * time.Minute)
}
