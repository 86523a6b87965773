package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// RenderLenient substitutes every {{key}} occurrence in template with
// variables[key]. Matching is case-sensitive and exact. Unknown placeholders
// become empty strings; a misspelled key degrades the message rather than
// failing the send. This is the behavior the dispatch path relies on.
func RenderLenient(template string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-2]
		return variables[key]
	})
}

// RenderStrict substitutes like RenderLenient but returns an error naming
// the first placeholder with no matching variable. Not used on the dispatch
// path; available for template validation at edit time.
func RenderStrict(template string, variables map[string]string) (string, error) {
	matches := placeholderPattern.FindAllString(template, -1)
	for _, match := range matches {
		key := match[2 : len(match)-2]
		if _, ok := variables[key]; !ok {
			return "", fmt.Errorf("unknown placeholder {{%s}}", key)
		}
	}
	return RenderLenient(template, variables), nil
}

// AppointmentVariables builds the canonical variable set for an
// appointment-sourced trigger: name, date, time, service, phone, address.
func AppointmentVariables(appt *models.Appointment) map[string]string {
	service := appt.ServiceType
	if service == "" {
		service = "appointment"
	}

	return map[string]string{
		"name":    appt.CustomerName,
		"date":    appt.StartsAt.Format("January 2, 2006"),
		"time":    formatClockTime(appt.StartsAt),
		"service": service,
		"phone":   appt.Phone,
		"address": appt.Address,
	}
}

// formatClockTime renders a 12-hour clock time like "2:00 PM"
func formatClockTime(t time.Time) string {
	return t.Format("3:04 PM")
}
