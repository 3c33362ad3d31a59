package appointment

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/civil"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, patientID *uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var matched []*Appointment
	for _, a := range m.appointments {
		if patientID == nil || a.PatientID == *patientID {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Start().Before(matched[j].Start())
	})
	return matched, len(matched), nil
}

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func timeOfDay(t *testing.T, s string) *civil.TimeOfDay {
	t.Helper()
	tod, err := civil.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return &tod
}

func validAppointment(t *testing.T) Appointment {
	return Appointment{
		PatientID: uuid.New(),
		Date:      date(t, "2024-03-15"),
		StartTime: timeOfDay(t, "10:00"),
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	a := validAppointment(t)

	if err := svc.Create(context.Background(), &a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("Status = %q, want scheduled", a.Status)
	}
	if a.DurationMinutes == nil || *a.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("DurationMinutes = %v, want %d", a.DurationMinutes, DefaultDurationMinutes)
	}
	if a.Attended {
		t.Error("Attended should default to false")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	missing := validAppointment(t)
	missing.PatientID = uuid.Nil
	if err := svc.Create(context.Background(), &missing); err == nil {
		t.Error("expected error for missing patient_id")
	}

	noDate := validAppointment(t)
	noDate.Date = civil.Date{}
	if err := svc.Create(context.Background(), &noDate); err == nil {
		t.Error("expected error for missing date")
	}

	noTime := validAppointment(t)
	noTime.StartTime = nil
	if err := svc.Create(context.Background(), &noTime); err == nil {
		t.Error("expected error for missing start_time")
	}

	badStatus := validAppointment(t)
	badStatus.Status = "confirmed"
	if err := svc.Create(context.Background(), &badStatus); err == nil {
		t.Error("expected error for unknown status")
	}

	negative := validAppointment(t)
	minus := -15
	negative.DurationMinutes = &minus
	if err := svc.Create(context.Background(), &negative); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestCreate_AcceptsZeroDuration(t *testing.T) {
	svc := NewService(newMockRepo())
	a := validAppointment(t)
	zero := 0
	a.DurationMinutes = &zero
	if err := svc.Create(context.Background(), &a); err != nil {
		t.Errorf("Create with zero duration: %v", err)
	}
}

func TestUpdate_RejectsInvalidStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	a := validAppointment(t)
	svc.Create(context.Background(), &a)

	a.Status = "arrived"
	if err := svc.Update(context.Background(), &a); err == nil {
		t.Error("expected error for invalid status on update")
	}
}

func TestList_OrderedByStart(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	later := validAppointment(t)
	later.Date = date(t, "2024-03-16")
	svc.Create(ctx, &later)

	earlier := validAppointment(t)
	earlier.Date = date(t, "2024-03-15")
	earlier.StartTime = timeOfDay(t, "09:00")
	svc.Create(ctx, &earlier)

	sameDayLater := validAppointment(t)
	sameDayLater.Date = date(t, "2024-03-15")
	sameDayLater.StartTime = timeOfDay(t, "12:00")
	svc.Create(ctx, &sameDayLater)

	items, total, err := svc.List(ctx, nil, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Start().Before(items[i-1].Start()) {
			t.Errorf("appointments out of order at index %d", i)
		}
	}
}

func TestList_FilterByPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	target := validAppointment(t)
	svc.Create(ctx, &target)

	other := validAppointment(t)
	svc.Create(ctx, &other)

	items, total, err := svc.List(ctx, &target.PatientID, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if items[0].PatientID != target.PatientID {
		t.Error("wrong patient in filtered list")
	}
}

func TestEnd_DerivedFromDuration(t *testing.T) {
	a := Appointment{
		Date:      civil.Date{},
		StartTime: nil,
	}
	a.Date, _ = civil.ParseDate("2024-06-01")
	tod, _ := civil.ParseTimeOfDay("10:00")
	a.StartTime = &tod
	d := 45
	a.DurationMinutes = &d

	end := a.End()
	if end.Hour() != 10 || end.Minute() != 45 {
		t.Errorf("End() = %v, want 10:45", end)
	}
}
