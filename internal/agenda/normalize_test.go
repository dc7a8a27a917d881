package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractString(t *testing.T) {
	assert.Equal(t, "08:30", ExtractString("  08:30  "))
	assert.Equal(t, "123", ExtractString(float64(123)))
	assert.Equal(t, "42", ExtractString(42))
	assert.Equal(t, "", ExtractString(nil))

	// Object-wrapped values probe the candidate keys in order.
	assert.Equal(t, "01/02/2024", ExtractString(map[string]any{"data": "01/02/2024"}))
	assert.Equal(t, "13:30", ExtractString(map[string]any{"hora": "13:30"}))
	assert.Equal(t, "first", ExtractString(map[string]any{"value": "first", "zzz": "second"}))

	// Fallback: any string-valued property, deterministically.
	assert.Equal(t, "fallback", ExtractString(map[string]any{"weird": "fallback", "n": float64(1)}))
	assert.Equal(t, "", ExtractString(map[string]any{}))
	assert.Equal(t, "", ExtractString(map[string]any{"n": float64(1)}))
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"08:30":    "08:30:00",
		"8:30":     "08:30:00",
		"08:30:15": "08:30:15",
		"830":      "08:30:00",
		"0830":     "08:30:00",
		"1400":     "14:00:00",
		"":         "",
		"abc":      "",
		"8h30":     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeClock(in), "input %q", in)
	}
}

func TestBRToISO(t *testing.T) {
	assert.Equal(t, "2026-01-19", BRToISO("19/01/2026"))
	assert.Equal(t, "2026-01-19T08:30:00", BRToISO("19/01/2026 08:30"))
	assert.Equal(t, "2026-01-19T08:30:15", BRToISO("19/01/2026 08:30:15"))
	assert.Equal(t, "2026-01-19", BRToISO("2026-01-19"))
}

func TestCanonicalInstantRoundTrip(t *testing.T) {
	br, err := CanonicalInstant("19/01/2026", "08:30")
	require.NoError(t, err)
	iso, err := CanonicalInstant("2026-01-19T08:30:00", "")
	require.NoError(t, err)
	assert.True(t, br.Equal(iso), "BR and ISO forms must resolve to the same instant")

	// Times stay local wall clock, never shifted to UTC.
	assert.Equal(t, 8, br.Hour())
	assert.Equal(t, 30, br.Minute())
	assert.Equal(t, time.Local, br.Location())
}

func TestCanonicalInstantVariants(t *testing.T) {
	// Separate time wins over embedded time.
	got, err := CanonicalInstant("2026-01-19T06:00:00", "14:00")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())

	// Date only defaults to midnight.
	got, err = CanonicalInstant("2026-01-19", "")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	// Compact clock form.
	got, err = CanonicalInstant("19/01/2026", "830")
	require.NoError(t, err)
	assert.Equal(t, "08:30", got.Format("15:04"))

	_, err = CanonicalInstant("", "08:30")
	assert.Error(t, err)
	_, err = CanonicalInstant("not-a-date", "")
	assert.Error(t, err)
}

func TestFlattenInheritsPatientFields(t *testing.T) {
	raws := []RawRecord{
		{
			"paciente":   "Maria Souza",
			"telefone":   "11 99999-0000",
			"idpaciente": float64(77),
			"agendamento": []any{
				map[string]any{"agendamento_data": "18/01/2026", "agendamento_hora": "08:30"},
				map[string]any{"agendamento_data": "19/01/2026", "agendamento_hora": "14:00"},
			},
		},
		{"paciente": "Flat Record", "data": "2026-01-20", "hora": "10:00"},
	}

	flat := Flatten(raws)
	require.Len(t, flat, 3)
	assert.Equal(t, "Maria Souza", flat[0]["paciente"])
	assert.Equal(t, "Maria Souza", flat[1]["paciente"])
	assert.Equal(t, "11 99999-0000", flat[1]["telefone"])
	assert.Equal(t, "Flat Record", flat[2]["paciente"])
}

func TestNormalizeScenario(t *testing.T) {
	raws := []RawRecord{
		{
			"paciente": "Maria Souza",
			"agendamento": []any{
				map[string]any{
					"agendamento_data":   "18/01/2026",
					"agendamento_hora":   "08:30",
					"agendamento_medico": "Dra. Lima",
					"agendamento_status": "confirmado",
				},
				map[string]any{
					"agendamento_data":   "19/01/2026",
					"agendamento_hora":   "14:00",
					"agendamento_medico": "Dra. Lima",
					"agendamento_status": "C",
				},
			},
		},
		// Flat record with an unmapped status and no date at all: dropped
		// because it is undatable, not because of the status.
		{"paciente": "Sem Data", "status": "x"},
	}

	appts := Normalize(raws)
	require.Len(t, appts, 2)

	assert.Equal(t, StatusConfirmed, appts[0].Status)
	assert.Equal(t, StatusConfirmed, appts[1].Status)
	assert.NotEqual(t, appts[0].Signature(), appts[1].Signature())

	events := Materialize(appts, Filter{Status: string(StatusConfirmed)}, ViewAdmin)
	assert.Len(t, events, 2)
}

func TestNormalizeUnmappedStatusWithValidDate(t *testing.T) {
	raws := []RawRecord{
		{"paciente": "Com Data", "status": "x", "data": "2026-01-20", "hora": "09:00"},
	}
	appts := Normalize(raws)
	require.Len(t, appts, 1)
	assert.Equal(t, StatusNotConfirmed, appts[0].Status)

	// An unmapped status is invisible to a Confirmed filter.
	events := Materialize(appts, Filter{Status: string(StatusConfirmed)}, ViewAdmin)
	assert.Empty(t, events)
}

func TestNormalizeDefaultsAndEnd(t *testing.T) {
	raws := []RawRecord{
		{"data": "2026-01-20", "hora": "09:00"},
	}
	appts := Normalize(raws)
	require.Len(t, appts, 1)

	a := appts[0]
	assert.Equal(t, "Paciente", a.PatientName)
	assert.Equal(t, "-", a.ProfessionalName)
	assert.Equal(t, a.Start.Add(DefaultDuration), a.End)
	assert.NotNil(t, a.Raw)
}

func TestNormalizeEndClamp(t *testing.T) {
	// Explicit later end is honored.
	appts := Normalize([]RawRecord{
		{"data": "2026-01-20", "hora": "09:00", "hora_fim": "10:00"},
	})
	require.Len(t, appts, 1)
	assert.Equal(t, 10, appts[0].End.Hour())

	// An inverted end is clamped to the fabricated minimum duration.
	appts = Normalize([]RawRecord{
		{"data": "2026-01-20", "hora": "09:00", "hora_fim": "08:00"},
	})
	require.Len(t, appts, 1)
	assert.Equal(t, appts[0].Start.Add(DefaultDuration), appts[0].End)
	assert.False(t, appts[0].End.Before(appts[0].Start))
}

func TestNormalizePartialSuccess(t *testing.T) {
	raws := []RawRecord{
		{"paciente": "Bad", "data": "nonsense"},
		{"paciente": "Good", "data": "19/01/2026", "hora": "08:30"},
		{"paciente": "Wrapped", "data": map[string]any{"data": "20/01/2026"}, "hora": map[string]any{"hora": "830"}},
	}
	appts := Normalize(raws)
	require.Len(t, appts, 2)
	assert.Equal(t, "Good", appts[0].PatientName)
	assert.Equal(t, "Wrapped", appts[1].PatientName)
	assert.Equal(t, "08:30", appts[1].Start.Format("15:04"))
}
