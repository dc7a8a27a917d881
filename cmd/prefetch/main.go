// prefetch runs one ingestion pass over a date span from the command line
// and prints a summary. Useful for smoke-testing upstream credentials and
// for eyeballing what a given range normalizes into.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/config"
	"github.com/avancesaude/agenda-portal/internal/dateutil"
	"github.com/avancesaude/agenda-portal/internal/konsist"
	"github.com/avancesaude/agenda-portal/internal/logging"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

func main() {
	from := flag.String("from", "", "range start, YYYY-MM-DD (default today)")
	to := flag.String("to", "", "range end, YYYY-MM-DD (default from+30d)")
	prof := flag.String("prof", agenda.FilterAll, "professional filter")
	status := flag.String("status", agenda.FilterAll, "status filter")
	search := flag.String("q", "", "free-text search")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init("agenda-prefetch", cfg.Env)

	if *from == "" {
		*from = dateutil.FormatISO(time.Now())
	}
	if *to == "" {
		start, err := dateutil.ParseISO(*from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
			os.Exit(1)
		}
		*to = dateutil.FormatISO(dateutil.AddDays(start, cfg.DefaultSpanDays))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	upstream := konsist.NewHTTPClient(cfg.KonsistBaseURL, cfg.KonsistEndpoint, cfg.KonsistBearer, cfg.KonsistTimeout)
	engine := prefetch.NewEngine(upstream, prefetch.NewMemoryCache(), cfg.ChunkDays)
	filter := agenda.Filter{Professional: *prof, Status: *status, Search: *search}

	// Progress ticker so long spans are not silent.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := engine.Progress()
				if p.Running {
					log.Info().Int("done", p.Done).Int("total", p.Total).
						Str("current", p.Current).Msg("prefetching")
				}
			}
		}
	}()

	started := time.Now()
	err = engine.Prefetch(ctx, *from, *to, filter)
	close(done)
	if err != nil {
		log.Fatal().Err(err).Msg("prefetch failed")
	}

	records := engine.Snapshot()
	events := agenda.Materialize(records, filter, agenda.ViewAdmin)

	byStatus := make(map[agenda.Status]int)
	for _, a := range records {
		byStatus[a.Status]++
	}

	fmt.Printf("\nRange %s → %s (%s)\n", *from, *to, time.Since(started).Round(time.Millisecond))
	fmt.Printf("  records:  %d\n", len(records))
	fmt.Printf("  events:   %d (after filters)\n", len(events))
	for _, st := range agenda.AllStatuses {
		if byStatus[st] > 0 {
			fmt.Printf("  %-22s %d\n", st, byStatus[st])
		}
	}
}
