package agenda

import (
	"strings"
	"time"

	"github.com/avancesaude/agenda-portal/internal/dateutil"
)

// RawRecord is one opaque upstream payload unit. The Konsist API gives no
// schema guarantees: a record may be a patient carrying a nested appointment
// list or an already-flat appointment, and field names drift between API
// versions.
type RawRecord = map[string]any

// Appointment is the canonical, normalized appointment record.
type Appointment struct {
	// ID comes from an upstream key when one exists, else a synthetic
	// index. It is not unique across fetches; identity is Signature().
	ID               string    `json:"id"`
	PatientName      string    `json:"patientName"`
	ProfessionalName string    `json:"professionalName"`
	Status           Status    `json:"status"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	// Raw is the original record, kept for downstream inspection.
	Raw RawRecord `json:"raw,omitempty"`
}

// Signature identifies the logical appointment regardless of which fetch
// chunk produced the record.
func (a Appointment) Signature() string {
	return strings.ToLower(a.PatientName) + "|" +
		strings.ToLower(a.ProfessionalName) + "|" +
		a.Start.Format(dateutil.LocalDateTime)
}

// ViewMode selects how event titles are composed.
type ViewMode string

const (
	ViewAdmin        ViewMode = "admin"
	ViewProfessional ViewMode = "professional"
)

// FilterAll disables a filter dimension.
const FilterAll = "ALL"

// Filter is the active professional/status/search triple.
type Filter struct {
	Professional string `json:"professional"`
	Status       string `json:"status"`
	Search       string `json:"search"`
}

// Key renders the triple for embedding in chunk-cache keys.
func (f Filter) Key() string {
	prof := f.Professional
	if prof == "" {
		prof = FilterAll
	}
	status := f.Status
	if status == "" {
		status = FilterAll
	}
	return prof + "_" + status + "_" + strings.ToLower(strings.TrimSpace(f.Search))
}

// CalendarEvent is the display projection consumed by the rendering layer.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
	Color    string    `json:"color"`
	Extended EventData `json:"extendedProps"`
}

// EventData carries the normalized fields alongside the raw record.
type EventData struct {
	Patient      string    `json:"paciente"`
	Professional string    `json:"profissional"`
	Status       Status    `json:"status"`
	Raw          RawRecord `json:"raw,omitempty"`
}
