package agenda

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/dateutil"
)

// DefaultDuration is the fabricated appointment length applied when the
// upstream record carries no usable end time.
const DefaultDuration = 30 * time.Minute

// valueKeys are the sub-keys probed, in priority order, when a field arrives
// wrapped in an object (e.g. {"data": "01/02/2024"}) instead of a plain
// string.
var valueKeys = []string{"data", "hora", "value", "date", "time"}

// Field-name candidates per logical field. Konsist API versions disagree on
// spelling, so each field is probed over an ordered list.
var (
	patientKeys      = []string{"paciente", "nomepaciente", "Paciente", "paciente_nome"}
	phoneKeys        = []string{"telefone", "contato"}
	patientIDKeys    = []string{"idpaciente", "pacienteId"}
	professionalKeys = []string{"agendamento_medico", "profissional", "profissional_nome", "profissionalNome", "medico", "nutricionista", "nome_medico", "nomeProfissional"}
	statusKeys       = []string{"agendamento_status", "status", "situacao", "status_nome", "statusNome"}
	dateKeys         = []string{"agendamento_data", "data", "agendamentoData"}
	timeKeys         = []string{"agendamento_hora", "hora", "agendamentoHora"}
	endTimeKeys      = []string{"agendamento_hora_fim", "hora_fim", "horafim", "horaFim"}
	idKeys           = []string{"id", "idagendamento", "agendamento_chave", "idpaciente"}
)

var (
	brDateRe  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})(?:[T\s]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	clockRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	compactRe = regexp.MustCompile(`^(\d{1,2})(\d{2})$`)
)

// ExtractString coerces a heterogeneous upstream value to a trimmed string.
// Objects are probed over valueKeys first, then over their remaining keys in
// sorted order so the result is deterministic. Returns "" when no string
// representation exists.
func ExtractString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		for _, k := range valueKeys {
			if s, ok := t[k].(string); ok {
				return strings.TrimSpace(s)
			}
		}
		rest := make([]string, 0, len(t))
		for k := range t {
			rest = append(rest, k)
		}
		sort.Strings(rest)
		for _, k := range rest {
			if s, ok := t[k].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// firstField probes the record over the candidate keys and returns the first
// non-empty string value.
func firstField(rec RawRecord, keys []string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s := ExtractString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// NormalizeClock canonicalizes a time-of-day string to HH:MM:SS. Accepts
// HH:MM, HH:MM:SS, and the legacy compact 3-4 digit form ("830" -> 08:30).
// Returns "" when the input matches none of them.
func NormalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if m := clockRe.FindStringSubmatch(s); m != nil {
		sec := m[3]
		if sec == "" {
			sec = "00"
		}
		return pad2(m[1]) + ":" + m[2] + ":" + sec
	}
	if m := compactRe.FindStringSubmatch(s); m != nil {
		return pad2(m[1]) + ":" + m[2] + ":00"
	}
	return ""
}

// BRToISO converts a Brazilian DD/MM/YYYY[ HH:MM[:SS]] string into the
// canonical YYYY-MM-DDTHH:MM:SS local form. Input that does not look
// Brazilian is returned unchanged.
func BRToISO(s string) string {
	m := brDateRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	dd, mm, yyyy := m[1], m[2], m[3]
	hh, mi, ss := m[4], m[5], m[6]
	if hh == "" {
		return yyyy + "-" + mm + "-" + dd
	}
	if ss == "" {
		ss = "00"
	}
	return yyyy + "-" + mm + "-" + dd + "T" + pad2(hh) + ":" + mi + ":" + ss
}

// CanonicalInstant resolves a date string (ISO or Brazilian, optionally
// carrying its own time) plus an optional separate time string into a local
// wall-clock instant. The upstream system emits local times, so the result
// is never reinterpreted across a UTC boundary. An explicit timeStr wins
// over a time embedded in dateStr.
func CanonicalInstant(dateStr, timeStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if strings.Contains(dateStr, "/") {
		dateStr = BRToISO(dateStr)
	}
	if len(dateStr) < 10 {
		return time.Time{}, fmt.Errorf("date %q too short", dateStr)
	}

	datePart := dateStr[:10]
	clock := ""
	if len(dateStr) > 10 {
		clock = NormalizeClock(strings.TrimLeft(dateStr[10:], "T "))
	}
	if timeStr != "" {
		if c := NormalizeClock(timeStr); c != "" {
			clock = c
		}
	}
	if clock == "" {
		clock = "00:00:00"
	}

	t, err := time.ParseInLocation(dateutil.LocalDateTime, datePart+"T"+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", datePart+"T"+clock, err)
	}
	return t, nil
}

// Flatten expands patient records carrying a nested "agendamento" list into
// one raw record per appointment, inheriting the patient-level fields onto
// each entry. Records without a nested list pass through unchanged.
func Flatten(raws []RawRecord) []RawRecord {
	out := make([]RawRecord, 0, len(raws))
	for _, rec := range raws {
		if rec == nil {
			continue
		}
		nested, ok := rec["agendamento"].([]any)
		if !ok {
			out = append(out, rec)
			continue
		}
		for idx, entry := range nested {
			child, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			flat := make(RawRecord, len(child)+3)
			for k, v := range child {
				flat[k] = v
			}
			if _, ok := flat["paciente"]; !ok {
				flat["paciente"] = firstField(rec, patientKeys)
			}
			if _, ok := flat["telefone"]; !ok {
				flat["telefone"] = firstField(rec, phoneKeys)
			}
			if _, ok := flat["idpaciente"]; !ok {
				if pid := firstField(rec, patientIDKeys); pid != "" {
					flat["idpaciente"] = pid
				} else {
					flat["idpaciente"] = strconv.Itoa(idx)
				}
			}
			out = append(out, flat)
		}
	}
	return out
}

// Normalize converts a batch of raw upstream records into canonical
// appointments. Records whose date cannot be resolved are skipped with a
// diagnostic; a bad record never aborts the rest of the batch.
func Normalize(raws []RawRecord) []Appointment {
	flat := Flatten(raws)
	out := make([]Appointment, 0, len(flat))
	for idx, rec := range flat {
		dateStr := firstField(rec, dateKeys)
		if dateStr == "" {
			log.Warn().Int("index", idx).Msg("appointment without date, skipping")
			continue
		}
		timeStr := firstField(rec, timeKeys)

		start, err := CanonicalInstant(dateStr, timeStr)
		if err != nil {
			log.Warn().Err(err).Int("index", idx).Str("date", dateStr).Str("time", timeStr).
				Msg("appointment with unparseable date, skipping")
			continue
		}

		patient := firstField(rec, patientKeys)
		if patient == "" {
			patient = "Paciente"
		}
		professional := firstField(rec, professionalKeys)
		if professional == "" {
			professional = "-"
		}

		id := firstField(rec, idKeys)
		if id == "" {
			id = strconv.Itoa(idx)
		}

		out = append(out, Appointment{
			ID:               id,
			PatientName:      patient,
			ProfessionalName: professional,
			Status:           NormalizeStatus(firstField(rec, statusKeys)),
			Start:            start,
			End:              resolveEnd(rec, start),
			Raw:              rec,
		})
	}
	return out
}

// resolveEnd computes the appointment end. An explicit end clock on the same
// day is honored when it lands after the start; a missing, unparseable, or
// inverted end falls back to the fabricated minimum duration so End >= Start
// holds unconditionally.
func resolveEnd(rec RawRecord, start time.Time) time.Time {
	if clock := NormalizeClock(firstField(rec, endTimeKeys)); clock != "" {
		end, err := CanonicalInstant(dateutil.FormatISO(start), clock)
		if err == nil && end.After(start) {
			return end
		}
	}
	return start.Add(DefaultDuration)
}
