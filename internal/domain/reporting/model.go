package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/appointment"
)

// CalendarEvent is one entry in the calendar feed, shaped for FullCalendar-
// style clients: a title, concrete start/end instants, and the appointment
// state tucked into extendedProps.
type CalendarEvent struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	ExtendedProps EventProps `json:"extendedProps"`
}

type EventProps struct {
	Status   string `json:"status"`
	Attended bool   `json:"attended"`
}

// CalendarRow pairs an appointment with its patient's display name.
type CalendarRow struct {
	Appointment appointment.Appointment
	PatientName string
}

// Event converts the row into a calendar event. The end instant is derived
// from the start plus the session duration.
func (r *CalendarRow) Event() CalendarEvent {
	a := &r.Appointment
	return CalendarEvent{
		ID:    a.ID,
		Title: r.PatientName,
		Start: a.Start(),
		End:   a.End(),
		ExtendedProps: EventProps{
			Status:   a.Status,
			Attended: a.Attended,
		},
	}
}

// DateRange echoes the requested bounds back in report responses.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AttendanceLog lists the distinct dates a patient completed a session in a
// period, with a month heading taken from the first date.
type AttendanceLog struct {
	Patient   *string   `json:"patient"`
	Month     string    `json:"month"`
	DateRange DateRange `json:"date_range"`
	Rows      []string  `json:"rows"`
}

// StatusCount is one row of the per-status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// PatientReport aggregates a patient's appointment history. Attended counts
// appointments whose status is completed; the separate attended flag on the
// appointment record does not participate.
type PatientReport struct {
	PatientID      uuid.UUID     `json:"patient_id"`
	Total          int           `json:"total"`
	Attended       int           `json:"attended"`
	NoShow         int           `json:"no_show"`
	Cancelled      int           `json:"cancelled"`
	AttendanceRate float64       `json:"attendance_rate"`
	ByStatus       []StatusCount `json:"by_status"`
}
