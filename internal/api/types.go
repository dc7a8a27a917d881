package api

import (
	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

type RangeInfo struct {
	DataI string `json:"datai"`
	DataF string `json:"dataf"`
}

type EventsResponse struct {
	OK            bool                   `json:"ok"`
	Range         RangeInfo              `json:"range"`
	Events        []agenda.CalendarEvent `json:"events"`
	FilteredCount int                    `json:"filteredCount"`
	Progress      prefetch.Progress      `json:"progress"`
}

type ProgressResponse struct {
	OK       bool              `json:"ok"`
	Progress prefetch.Progress `json:"progress"`
}

type ReloadResponse struct {
	OK      bool      `json:"ok"`
	Range   RangeInfo `json:"range"`
	Records int       `json:"records"`
}

type ProfessionalsResponse struct {
	OK            bool     `json:"ok"`
	Professionals []string `json:"professionals"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
