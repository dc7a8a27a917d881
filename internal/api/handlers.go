package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/archive"
	"github.com/avancesaude/agenda-portal/internal/dateutil"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

// Server exposes one engine session over HTTP: the calendar rendering
// surface reads events and progress from here and never talks to the
// upstream directly.
type Server struct {
	engine   *prefetch.Engine
	repo     *archive.Repository // nil disables archiving
	spanDays int
}

func NewServer(engine *prefetch.Engine, repo *archive.Repository, spanDays int) *Server {
	if spanDays <= 0 {
		spanDays = 30
	}
	return &Server{engine: engine, repo: repo, spanDays: spanDays}
}

// parseFilter reads the filter triple off the query string, normalizing
// empty dimensions to the ALL sentinel so comparisons are stable.
func parseFilter(r *http.Request) agenda.Filter {
	q := r.URL.Query()
	f := agenda.Filter{
		Professional: q.Get("prof"),
		Status:       q.Get("status"),
		Search:       q.Get("q"),
	}
	if f.Professional == "" {
		f.Professional = agenda.FilterAll
	}
	if f.Status == "" {
		f.Status = agenda.FilterAll
	}
	return f
}

func (s *Server) defaultRange() (string, string) {
	today := time.Now()
	return dateutil.FormatISO(today), dateutil.FormatISO(dateutil.AddDays(today, s.spanDays))
}

// ensureWindow reloads the engine when the requested window or filter
// triple differs from what is currently loaded. A concurrent in-flight
// operation is not an error: callers render whatever has accumulated.
func (s *Server) ensureWindow(ctx context.Context, datai, dataf string, f agenda.Filter) error {
	wStart, wEnd := s.engine.Window()
	if wStart == datai && wEnd == dataf && s.engine.Filter() == f {
		return nil
	}
	err := s.engine.Reload(ctx, datai, dataf, f)
	if errors.Is(err, prefetch.ErrAlreadyRunning) {
		return nil
	}
	if err != nil {
		return err
	}
	s.archiveSnapshot(ctx)
	return nil
}

func (s *Server) archiveSnapshot(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSnapshot(ctx, time.Now(), s.engine.Snapshot()); err != nil {
		log.Warn().Err(err).Msg("snapshot archive failed")
	}
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	datai, dataf := q.Get("datai"), q.Get("dataf")
	if datai == "" || dataf == "" {
		datai, dataf = s.defaultRange()
	}
	f := parseFilter(r)
	mode := agenda.ViewMode(q.Get("mode"))
	if mode != agenda.ViewProfessional {
		mode = agenda.ViewAdmin
	}

	if err := s.ensureWindow(r.Context(), datai, dataf, f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	events := agenda.Materialize(s.engine.Snapshot(), f, mode)
	writeJSON(w, http.StatusOK, EventsResponse{
		OK:            true,
		Range:         RangeInfo{DataI: datai, DataF: dataf},
		Events:        events,
		FilteredCount: len(events),
		Progress:      s.engine.Progress(),
	})
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProgressResponse{OK: true, Progress: s.engine.Progress()})
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	datai, dataf := s.engine.Window()
	if datai == "" || dataf == "" {
		datai, dataf = s.defaultRange()
	}

	err := s.engine.Reload(r.Context(), datai, dataf, s.engine.Filter())
	switch {
	case errors.Is(err, prefetch.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "prefetch_running", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
		return
	}
	s.archiveSnapshot(r.Context())

	writeJSON(w, http.StatusOK, ReloadResponse{
		OK:      true,
		Range:   RangeInfo{DataI: datai, DataF: dataf},
		Records: s.engine.Count(),
	})
}

func (s *Server) professionalsHandler(w http.ResponseWriter, r *http.Request) {
	records := s.engine.Snapshot()
	if len(records) == 0 {
		// Nothing loaded yet: pull the default span so the picker is
		// never empty on a fresh session.
		datai, dataf := s.defaultRange()
		if err := s.ensureWindow(r.Context(), datai, dataf, parseFilter(r)); err != nil {
			writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
			return
		}
		records = s.engine.Snapshot()
	}
	writeJSON(w, http.StatusOK, ProfessionalsResponse{
		OK:            true,
		Professionals: agenda.Professionals(records),
	})
}
