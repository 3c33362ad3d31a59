package reporting

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/pkg/civil"
)

// mockRepo serves reports from an in-memory appointment list.
type mockRepo struct {
	appointments []appointment.Appointment
	names        map[uuid.UUID]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{names: make(map[uuid.UUID]string)}
}

func (m *mockRepo) add(a appointment.Appointment) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appointments = append(m.appointments, a)
}

func (m *mockRepo) CalendarRows(_ context.Context, start, end *civil.Date, patientID *uuid.UUID) ([]*CalendarRow, error) {
	var rows []*CalendarRow
	for _, a := range m.appointments {
		if start != nil && end != nil {
			if a.Date.Before(*start) || !a.Date.Before(*end) {
				continue
			}
		}
		if patientID != nil && a.PatientID != *patientID {
			continue
		}
		rows = append(rows, &CalendarRow{Appointment: a, PatientName: m.names[a.PatientID]})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Appointment.Start().Before(rows[j].Appointment.Start())
	})
	return rows, nil
}

func (m *mockRepo) CompletedDates(_ context.Context, patientID uuid.UUID, start, end civil.Date) ([]civil.Date, error) {
	seen := make(map[string]civil.Date)
	for _, a := range m.appointments {
		if a.PatientID != patientID || a.Status != "completed" {
			continue
		}
		if a.Date.Before(start) || a.Date.After(end) {
			continue
		}
		seen[a.Date.String()] = a.Date
	}
	var dates []civil.Date
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (m *mockRepo) StatusCounts(_ context.Context, patientID uuid.UUID, start, end *civil.Date) (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range m.appointments {
		if a.PatientID != patientID {
			continue
		}
		if start != nil && a.Date.Before(*start) {
			continue
		}
		if end != nil && a.Date.After(*end) {
			continue
		}
		counts[a.Status]++
	}
	return counts, nil
}

func (m *mockRepo) PatientName(_ context.Context, id uuid.UUID) (string, error) {
	name, ok := m.names[id]
	if !ok {
		return "", ErrPatientNotFound
	}
	return name, nil
}

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func appt(t *testing.T, patientID uuid.UUID, day, start, status string, minutes int) appointment.Appointment {
	t.Helper()
	tod, err := civil.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("parse time %q: %v", start, err)
	}
	return appointment.Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		Date:            date(t, day),
		StartTime:       &tod,
		DurationMinutes: &minutes,
		Status:          status,
	}
}

// -- Calendar --

func TestCalendar_EventShape(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "Ana Torres"
	repo.add(appt(t, pid, "2024-03-15", "10:00", "scheduled", 45))

	events, err := svc.Calendar(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Title != "Ana Torres" {
		t.Errorf("Title = %q", ev.Title)
	}
	wantStart := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", ev.Start, wantStart)
	}
	if !ev.End.Equal(wantStart.Add(45 * time.Minute)) {
		t.Errorf("End = %v, want start+45m", ev.End)
	}
	if ev.ExtendedProps.Status != "scheduled" {
		t.Errorf("Status = %q", ev.ExtendedProps.Status)
	}
}

func TestCalendar_RangeNeedsBothBounds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "P"
	repo.add(appt(t, pid, "2024-01-10", "09:00", "scheduled", 60))
	repo.add(appt(t, pid, "2024-02-10", "09:00", "scheduled", 60))

	start := date(t, "2024-02-01")
	end := date(t, "2024-03-01")

	// Both bounds: half-open [start, end).
	events, err := svc.Calendar(context.Background(), &start, &end, nil)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1 within range", len(events))
	}

	// A single bound is ignored: the mock mirrors the repo contract.
	events, err = svc.Calendar(context.Background(), &start, nil, nil)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2 when only one bound is present", len(events))
	}
}

func TestCalendar_ExcludesEndDate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "P"
	repo.add(appt(t, pid, "2024-02-29", "09:00", "scheduled", 60))
	repo.add(appt(t, pid, "2024-03-01", "09:00", "scheduled", 60))

	start := date(t, "2024-02-01")
	end := date(t, "2024-03-01")
	events, err := svc.Calendar(context.Background(), &start, &end, nil)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: the end date is exclusive", len(events))
	}
	if events[0].Start.Day() != 29 {
		t.Errorf("wrong event survived the range filter: %v", events[0].Start)
	}
}

func TestCalendar_Empty(t *testing.T) {
	svc := NewService(newMockRepo())
	events, err := svc.Calendar(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

// -- Attendance log --

func TestAttendance_DistinctAscendingDates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "Juan Perez"

	// Two sessions on the same day collapse to one row; a cancelled and a
	// scheduled appointment never appear.
	repo.add(appt(t, pid, "2024-01-20", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-20", "17:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-05", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-12", "10:00", "cancelled", 60))
	repo.add(appt(t, pid, "2024-01-25", "10:00", "scheduled", 60))

	log, err := svc.Attendance(context.Background(), pid, date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}

	want := []string{"2024-01-05", "2024-01-20"}
	if len(log.Rows) != len(want) {
		t.Fatalf("rows = %v, want %v", log.Rows, want)
	}
	for i := range want {
		if log.Rows[i] != want[i] {
			t.Errorf("rows[%d] = %q, want %q", i, log.Rows[i], want[i])
		}
	}
	if log.Month != "JANUARY 2024" {
		t.Errorf("Month = %q, want JANUARY 2024", log.Month)
	}
	if log.Patient == nil || *log.Patient != "Juan Perez" {
		t.Errorf("Patient = %v", log.Patient)
	}
	if log.DateRange.Start != "2024-01-01" || log.DateRange.End != "2024-01-31" {
		t.Errorf("DateRange = %+v", log.DateRange)
	}
}

func TestAttendance_InclusiveBounds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "P"
	repo.add(appt(t, pid, "2024-01-01", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-31", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-02-01", "10:00", "completed", 60))

	log, err := svc.Attendance(context.Background(), pid, date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if len(log.Rows) != 2 {
		t.Errorf("rows = %v, want both boundary dates and nothing past them", log.Rows)
	}
}

func TestAttendance_IgnoresAttendedFlag(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "P"

	// Marked attended but still scheduled: the log keys off status alone.
	a := appt(t, pid, "2024-01-10", "10:00", "scheduled", 60)
	a.Attended = true
	repo.add(a)

	log, err := svc.Attendance(context.Background(), pid, date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if len(log.Rows) != 0 {
		t.Errorf("rows = %v, want none for non-completed appointments", log.Rows)
	}
	if log.Month != "" {
		t.Errorf("Month = %q, want empty with no rows", log.Month)
	}
}

func TestAttendance_NameComesFromCompletedRows(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.names[pid] = "Jane Roe"

	// The patient exists but has no completed session in range, so the log
	// carries no name or month, matching its empty rows.
	repo.add(appt(t, pid, "2024-01-10", "10:00", "no_show", 60))

	log, err := svc.Attendance(context.Background(), pid, date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if log.Patient != nil {
		t.Errorf("Patient = %q, want nil without completed rows", *log.Patient)
	}
	if log.Month != "" {
		t.Errorf("Month = %q, want empty", log.Month)
	}
	if len(log.Rows) != 0 {
		t.Errorf("rows = %v, want empty", log.Rows)
	}

	// A completed session brings the name back.
	repo.add(appt(t, pid, "2024-01-12", "10:00", "completed", 60))
	log, err = svc.Attendance(context.Background(), pid, date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if log.Patient == nil || *log.Patient != "Jane Roe" {
		t.Errorf("Patient = %v, want Jane Roe", log.Patient)
	}
}

func TestAttendance_UnknownPatient(t *testing.T) {
	svc := NewService(newMockRepo())
	log, err := svc.Attendance(context.Background(), uuid.New(), date(t, "2024-01-01"), date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if log.Patient != nil {
		t.Errorf("Patient = %v, want nil for unknown patient", log.Patient)
	}
	if len(log.Rows) != 0 {
		t.Errorf("rows = %v, want empty", log.Rows)
	}
}

// -- Patient report --

func TestReport_CountsAndRate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	// 3 completed of 5 total -> 60%.
	repo.add(appt(t, pid, "2024-01-01", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-02", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-03", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-04", "10:00", "no_show", 60))
	repo.add(appt(t, pid, "2024-01-05", "10:00", "cancelled", 60))

	report, err := svc.Report(context.Background(), pid, nil, nil)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Total != 5 {
		t.Errorf("Total = %d, want 5", report.Total)
	}
	if report.Attended != 3 || report.NoShow != 1 || report.Cancelled != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/1/1", report.Attended, report.NoShow, report.Cancelled)
	}
	if report.AttendanceRate != 60.0 {
		t.Errorf("AttendanceRate = %v, want 60.0", report.AttendanceRate)
	}

	sum := 0
	for _, sc := range report.ByStatus {
		sum += sc.Total
	}
	if sum != report.Total {
		t.Errorf("by_status sum = %d, total = %d: must match", sum, report.Total)
	}
}

func TestReport_EmptyHistory(t *testing.T) {
	svc := NewService(newMockRepo())
	report, err := svc.Report(context.Background(), uuid.New(), nil, nil)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Total != 0 || report.AttendanceRate != 0 {
		t.Errorf("empty history: total = %d, rate = %v, want zeros", report.Total, report.AttendanceRate)
	}
}

func TestReport_RateRounding(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	// 1 of 3 -> 33.333...% -> 33.33.
	repo.add(appt(t, pid, "2024-01-01", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-01-02", "10:00", "no_show", 60))
	repo.add(appt(t, pid, "2024-01-03", "10:00", "no_show", 60))

	report, err := svc.Report(context.Background(), pid, nil, nil)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.AttendanceRate != 33.33 {
		t.Errorf("AttendanceRate = %v, want 33.33", report.AttendanceRate)
	}
}

func TestReport_IndependentBounds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()
	repo.add(appt(t, pid, "2024-01-10", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-02-10", "10:00", "completed", 60))
	repo.add(appt(t, pid, "2024-03-10", "10:00", "completed", 60))

	start := date(t, "2024-02-01")
	report, err := svc.Report(context.Background(), pid, &start, nil)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("Total = %d, want 2 with only a lower bound", report.Total)
	}

	end := date(t, "2024-02-28")
	report, err = svc.Report(context.Background(), pid, nil, &end)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("Total = %d, want 2 with only an upper bound", report.Total)
	}
}
