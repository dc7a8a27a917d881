package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAppointments() []Appointment {
	start := time.Date(2026, time.January, 19, 8, 30, 0, 0, time.Local)
	return []Appointment{
		{
			ID:               "1",
			PatientName:      "João da Silva",
			ProfessionalName: "Dra. Lima",
			Status:           StatusConfirmed,
			Start:            start,
			End:              start.Add(DefaultDuration),
		},
		{
			ID:               "2",
			PatientName:      "Maria Souza",
			ProfessionalName: "Dr. Alves",
			Status:           StatusNotConfirmed,
			Start:            start.Add(time.Hour),
			End:              start.Add(90 * time.Minute),
		},
		{
			ID:               "3",
			PatientName:      "Pedro Costa",
			ProfessionalName: "Dra. Lima",
			Status:           StatusCancelled,
			Start:            start.Add(2 * time.Hour),
			End:              start.Add(150 * time.Minute),
		},
	}
}

func TestFilterMatchesProfessionalAndStatus(t *testing.T) {
	appts := sampleAppointments()

	byProf := FilterRecords(appts, Filter{Professional: "Dra. Lima", Status: FilterAll})
	require.Len(t, byProf, 2)

	byStatus := FilterRecords(appts, Filter{Professional: FilterAll, Status: string(StatusConfirmed)})
	require.Len(t, byStatus, 1)
	assert.Equal(t, "João da Silva", byStatus[0].PatientName)

	both := FilterRecords(appts, Filter{Professional: "Dr. Alves", Status: string(StatusCancelled)})
	assert.Empty(t, both)
}

func TestFilterSearchIgnoresDiacriticsAndCase(t *testing.T) {
	appts := sampleAppointments()

	for _, q := range []string{"joão", "joao", "JOAO", "  João  "} {
		got := FilterRecords(appts, Filter{Professional: FilterAll, Status: FilterAll, Search: q})
		require.Len(t, got, 1, "query %q", q)
		assert.Equal(t, "1", got[0].ID)
	}

	// search also covers the professional name
	got := FilterRecords(appts, Filter{Professional: FilterAll, Status: FilterAll, Search: "lima"})
	assert.Len(t, got, 2)
}

func TestMaterializeTitlesPerView(t *testing.T) {
	appts := sampleAppointments()[:1]

	admin := Materialize(appts, Filter{Professional: FilterAll, Status: FilterAll}, ViewAdmin)
	require.Len(t, admin, 1)
	assert.Equal(t, "João da Silva • Dra. Lima", admin[0].Title)
	assert.Equal(t, "2026-01-19T08:30:00", admin[0].Start)
	assert.Equal(t, "2026-01-19T09:00:00", admin[0].End)
	assert.Equal(t, StatusConfirmed.Color(), admin[0].Color)
	assert.Equal(t, "João da Silva", admin[0].Extended.Patient)

	prof := Materialize(appts, Filter{Professional: FilterAll, Status: FilterAll}, ViewProfessional)
	require.Len(t, prof, 1)
	assert.Equal(t, "João da Silva", prof[0].Title)
}

func TestProfessionalsDistinctSorted(t *testing.T) {
	appts := append(sampleAppointments(), Appointment{
		ID:               "4",
		PatientName:      "Ana",
		ProfessionalName: "-",
		Status:           StatusBlocked,
		Start:            time.Date(2026, time.January, 19, 12, 0, 0, 0, time.Local),
	})

	got := Professionals(appts)
	assert.Equal(t, []string{FilterAll, "Dr. Alves", "Dra. Lima"}, got)
}

func TestFilterKeyNormalizesSearch(t *testing.T) {
	a := Filter{Professional: "Dra. Lima", Status: FilterAll, Search: "  João "}
	b := Filter{Professional: "Dra. Lima", Status: FilterAll, Search: "joão"}
	assert.Equal(t, a.Key(), b.Key())
}
