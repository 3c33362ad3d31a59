package reporting

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/civil"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Calendar builds the event feed. The [start, end) range filters only when
// both bounds are given; the patient filter is optional.
func (s *Service) Calendar(ctx context.Context, start, end *civil.Date, patientID *uuid.UUID) ([]CalendarEvent, error) {
	rows, err := s.repo.CalendarRows(ctx, start, end, patientID)
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.Event())
	}
	return events, nil
}

// Attendance builds the attendance log for a patient over an inclusive date
// range: the distinct dates with a completed appointment, ascending, under a
// month heading taken from the first of them. Only the completed status
// counts; the attended flag on the appointment is not consulted. The patient
// name and month label both come from the matching rows, so a range with no
// completed sessions yields an empty log with both absent.
func (s *Service) Attendance(ctx context.Context, patientID uuid.UUID, start, end civil.Date) (*AttendanceLog, error) {
	log := &AttendanceLog{
		DateRange: DateRange{Start: start.String(), End: end.String()},
		Rows:      []string{},
	}

	dates, err := s.repo.CompletedDates(ctx, patientID, start, end)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return log, nil
	}

	name, err := s.repo.PatientName(ctx, patientID)
	switch {
	case err == nil:
		log.Patient = &name
	case errors.Is(err, ErrPatientNotFound):
		// Completed rows without a patient row should not happen; leave the
		// name absent rather than fail the report.
	default:
		return nil, err
	}

	log.Month = monthLabel(dates[0])
	for _, d := range dates {
		log.Rows = append(log.Rows, d.String())
	}
	return log, nil
}

// monthLabel renders "JANUARY 2024"-style headings.
func monthLabel(d civil.Date) string {
	return strings.ToUpper(d.Format("January 2006"))
}

// Report aggregates a patient's appointments, optionally bounded by an
// inclusive date range. The attendance rate is completed/total as a
// percentage rounded to two decimals, or 0 when there are no appointments.
func (s *Service) Report(ctx context.Context, patientID uuid.UUID, start, end *civil.Date) (*PatientReport, error) {
	counts, err := s.repo.StatusCounts(ctx, patientID, start, end)
	if err != nil {
		return nil, err
	}

	report := &PatientReport{
		PatientID: patientID,
		Attended:  counts["completed"],
		NoShow:    counts["no_show"],
		Cancelled: counts["cancelled"],
		ByStatus:  []StatusCount{},
	}
	for status, total := range counts {
		report.Total += total
		report.ByStatus = append(report.ByStatus, StatusCount{Status: status, Total: total})
	}
	sort.Slice(report.ByStatus, func(i, j int) bool {
		return report.ByStatus[i].Status < report.ByStatus[j].Status
	})

	if report.Total > 0 {
		rate := float64(report.Attended) / float64(report.Total) * 100
		report.AttendanceRate = math.Round(rate*100) / 100
	}
	return report, nil
}
