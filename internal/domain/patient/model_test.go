package patient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/clinicore/clinicore/pkg/civil"
)

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }

func dateOf(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestPatient_Age(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth string
		want  int
	}{
		{"birthday passed this year", "1990-03-01", 34},
		{"birthday later this year", "1990-12-01", 33},
		{"birthday today", "1990-06-15", 34},
		{"birthday tomorrow", "1990-06-16", 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dateOf(t, tt.birth)
			p := Patient{BirthDate: &d}
			got := p.Age(now)
			if got == nil || *got != tt.want {
				t.Errorf("Age() = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestPatient_AgeUnknown(t *testing.T) {
	p := Patient{}
	if got := p.Age(time.Now()); got != nil {
		t.Errorf("Age() = %v, want nil for unknown birth date", got)
	}
}

func TestPatient_MarshalIncludesAge(t *testing.T) {
	d := dateOf(t, "1990-01-01")
	p := Patient{FullName: "Ana Torres", BirthDate: &d}

	data, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := out["age"]; !ok {
		t.Error("expected age field in serialized patient")
	}
	if out["birth_date"] != "1990-01-01" {
		t.Errorf("birth_date = %v, want 1990-01-01", out["birth_date"])
	}
}

func TestPatient_MarshalNullAge(t *testing.T) {
	p := Patient{FullName: "Sin Fecha"}
	data, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := out["age"]; !ok || v != nil {
		t.Errorf("age = %v, want explicit null", v)
	}
}
