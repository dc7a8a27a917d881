package agenda

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/avancesaude/agenda-portal/internal/dateutil"
)

// foldTransformer strips combining marks so "João" and "joao" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string and removes diacritics for search matching.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Matches reports whether the appointment survives the filter triple.
func (f Filter) Matches(a Appointment) bool {
	if f.Professional != "" && f.Professional != FilterAll && a.ProfessionalName != f.Professional {
		return false
	}
	if f.Status != "" && f.Status != FilterAll && string(a.Status) != f.Status {
		return false
	}
	if q := Fold(strings.TrimSpace(f.Search)); q != "" {
		hay := Fold(a.PatientName) + " " + Fold(a.ProfessionalName) + " " + Fold(string(a.Status))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// FilterRecords applies the filter triple to the deduplicated record set.
func FilterRecords(records []Appointment, f Filter) []Appointment {
	out := make([]Appointment, 0, len(records))
	for _, a := range records {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// Materialize projects the filtered record set into calendar-displayable
// events. The administrative view carries the professional in the title; a
// professional-scoped view shows only the patient, their own identity being
// implicit. Pure given its inputs, no I/O.
func Materialize(records []Appointment, f Filter, mode ViewMode) []CalendarEvent {
	filtered := FilterRecords(records, f)
	events := make([]CalendarEvent, 0, len(filtered))
	for _, a := range filtered {
		title := a.PatientName
		if mode == ViewAdmin {
			title = a.PatientName + " • " + a.ProfessionalName
		}
		events = append(events, CalendarEvent{
			ID:    a.ID,
			Title: title,
			Start: a.Start.Format(dateutil.LocalDateTime),
			End:   a.End.Format(dateutil.LocalDateTime),
			Color: a.Status.Color(),
			Extended: EventData{
				Patient:      a.PatientName,
				Professional: a.ProfessionalName,
				Status:       a.Status,
				Raw:          a.Raw,
			},
		})
	}
	return events
}

// Professionals returns the distinct professional names present in the
// record set, sorted, with the ALL sentinel first. The "-" placeholder is
// not a real professional and is excluded.
func Professionals(records []Appointment) []string {
	set := make(map[string]struct{})
	for _, a := range records {
		if a.ProfessionalName != "" && a.ProfessionalName != "-" {
			set[a.ProfessionalName] = struct{}{}
		}
	}
	names := make([]string, 0, len(set)+1)
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return append([]string{FilterAll}, names...)
}
