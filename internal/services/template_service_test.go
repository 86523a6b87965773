package services

import (
	"testing"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"
)

func TestRenderLenient(t *testing.T) {
	variables := map[string]string{
		"name":    "Alice",
		"service": "cleaning",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"substitutes known placeholders", "Hi {{name}}, your {{service}} is booked", "Hi Alice, your cleaning is booked"},
		{"unknown placeholder becomes empty", "Hi {{nmae}}, see you soon", "Hi , see you soon"},
		{"repeated placeholder", "{{name}} {{name}}", "Alice Alice"},
		{"no placeholders", "plain text", "plain text"},
		{"case sensitive keys", "Hi {{Name}}", "Hi "},
		{"empty template", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderLenient(tt.template, variables)
			if got != tt.want {
				t.Errorf("RenderLenient(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestRenderStrict(t *testing.T) {
	variables := map[string]string{"name": "Alice"}

	got, err := RenderStrict("Hi {{name}}", variables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hi Alice" {
		t.Errorf("got %q, want %q", got, "Hi Alice")
	}

	_, err = RenderStrict("Hi {{nmae}}", variables)
	if err == nil {
		t.Fatal("expected error for unknown placeholder")
	}
}

func TestAppointmentVariables(t *testing.T) {
	startsAt := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)
	appt := &models.Appointment{
		CustomerName: "Alice",
		Phone:        "+15551230000",
		Address:      "12 Main St",
		ServiceType:  "cleaning",
		StartsAt:     startsAt,
	}

	vars := AppointmentVariables(appt)

	if vars["name"] != "Alice" {
		t.Errorf("name = %q", vars["name"])
	}
	if vars["date"] != "January 10, 2024" {
		t.Errorf("date = %q", vars["date"])
	}
	if vars["time"] != "2:00 PM" {
		t.Errorf("time = %q", vars["time"])
	}
	if vars["service"] != "cleaning" {
		t.Errorf("service = %q", vars["service"])
	}
	if vars["phone"] != "+15551230000" {
		t.Errorf("phone = %q", vars["phone"])
	}
	if vars["address"] != "12 Main St" {
		t.Errorf("address = %q", vars["address"])
	}
}

func TestAppointmentVariablesDefaultService(t *testing.T) {
	appt := &models.Appointment{
		CustomerName: "Alice",
		StartsAt:     time.Now(),
	}

	vars := AppointmentVariables(appt)
	if vars["service"] != "appointment" {
		t.Errorf("service = %q, want %q", vars["service"], "appointment")
	}
}
