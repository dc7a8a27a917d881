package agenda

import "strings"

// Status is the closed set of canonical appointment states. Upstream sends
// free-text Portuguese labels and single-letter codes; everything funnels
// into one of these five values.
type Status string

const (
	StatusConfirmed    Status = "Confirmado"
	StatusNotConfirmed Status = "Não Confirmado"
	StatusCancelled    Status = "Desmarcado"
	StatusAttended     Status = "Atendido pelo Medico"
	StatusBlocked      Status = "Bloqueado"
)

// AllStatuses lists the enum in display order.
var AllStatuses = []Status{
	StatusConfirmed,
	StatusNotConfirmed,
	StatusCancelled,
	StatusAttended,
	StatusBlocked,
}

var statusTokens = map[string]Status{
	"confirmado": StatusConfirmed,
	"c":          StatusConfirmed,
	// "Agendado" upstream means booked but not confirmed.
	"agendado":   StatusNotConfirmed,
	"agendada":   StatusNotConfirmed,
	"":           StatusNotConfirmed,
	"desmarcado": StatusCancelled,
	"desmarcada": StatusCancelled,
	"d":          StatusCancelled,
	"cancelado":  StatusCancelled,
	"cancelada":  StatusCancelled,
	"atendido":   StatusAttended,
	"realizado":  StatusAttended,
	"m":          StatusAttended,
	"b":          StatusBlocked,
	"bloqueado":  StatusBlocked,
	"bloqueada":  StatusBlocked,
}

// NormalizeStatus maps an upstream status token to a canonical Status.
// Unrecognized or empty input falls back to NotConfirmed, so the result is
// always one of the five enum values.
func NormalizeStatus(raw string) Status {
	if st, ok := statusTokens[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return st
	}
	return StatusNotConfirmed
}

// Color returns the fixed display color for the status. Total over the
// enum: unknown values render as NotConfirmed blue.
func (s Status) Color() string {
	switch s {
	case StatusConfirmed:
		return "#22c55e"
	case StatusCancelled:
		return "#ef4444"
	case StatusAttended:
		return "#a855f7"
	case StatusBlocked:
		return "#94a3b8"
	default:
		return "#3b82f6"
	}
}
