package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appt(patient, prof string, start time.Time, status Status) Appointment {
	return Appointment{
		ID:               patient + "-" + start.Format("150405"),
		PatientName:      patient,
		ProfessionalName: prof,
		Status:           status,
		Start:            start,
		End:              start.Add(DefaultDuration),
	}
}

func TestDedupeFirstWins(t *testing.T) {
	start := time.Date(2026, time.January, 19, 8, 30, 0, 0, time.Local)
	first := appt("Maria", "Dra. Lima", start, StatusConfirmed)
	dup := appt("MARIA", "dra. lima", start, StatusCancelled) // same signature, case-folded

	merged := Dedupe([]Appointment{first}, []Appointment{dup})
	require.Len(t, merged, 1)
	assert.Equal(t, StatusConfirmed, merged[0].Status)
}

func TestDedupeIdempotent(t *testing.T) {
	start := time.Date(2026, time.January, 19, 8, 30, 0, 0, time.Local)
	list := []Appointment{
		appt("Maria", "Dra. Lima", start, StatusConfirmed),
		appt("José", "Dr. Alves", start.Add(time.Hour), StatusNotConfirmed),
		appt("Maria", "Dra. Lima", start, StatusConfirmed), // dup within the batch
	}

	once := Dedupe(nil, list)
	require.Len(t, once, 2)

	twice := Dedupe(once, list)
	assert.Equal(t, once, twice, "re-merging identical input must not grow the set")
}

func TestDedupeAssociative(t *testing.T) {
	base := time.Date(2026, time.January, 19, 8, 0, 0, 0, time.Local)
	a := []Appointment{appt("A", "P", base, StatusConfirmed)}
	b := []Appointment{appt("B", "P", base, StatusConfirmed), appt("A", "P", base, StatusCancelled)}
	c := []Appointment{appt("C", "P", base, StatusBlocked), appt("B", "P", base, StatusAttended)}

	stepwise := Dedupe(Dedupe(a, b), c)
	combined := Dedupe(a, append(append([]Appointment{}, b...), c...))
	assert.Equal(t, combined, stepwise)
}

func TestSignatureDistinguishesTime(t *testing.T) {
	start := time.Date(2026, time.January, 19, 8, 30, 0, 0, time.Local)
	one := appt("Maria", "Dra. Lima", start, StatusConfirmed)
	other := appt("Maria", "Dra. Lima", start.Add(30*time.Minute), StatusConfirmed)
	assert.NotEqual(t, one.Signature(), other.Signature())
}
