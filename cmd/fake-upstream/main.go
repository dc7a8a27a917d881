// fake-upstream is a stand-in Konsist API for local development. It answers
// the appointments endpoint with randomized payloads that exercise every
// response shape the real system has been seen to produce: nested patient
// records, flat records, Brazilian and ISO dates, object-wrapped fields,
// compact clock forms, and the three body envelopes.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/dateutil"
	"github.com/avancesaude/agenda-portal/internal/logging"
)

var statusPool = []string{
	"confirmado", "C", "Agendado", "agendada", "desmarcado", "D",
	"cancelado", "atendido", "realizado", "M", "B", "bloqueado",
	"", "x", "???",
}

var professionalPool []string

type rangeRequest struct {
	DataI string `json:"datai"`
	DataF string `json:"dataf"`
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	endpoint := flag.String("endpoint", "/agendamentos", "appointments endpoint path")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logging.Init("fake-upstream", "dev")
	gofakeit.Seed(*seed)

	for i := 0; i < 8; i++ {
		professionalPool = append(professionalPool, "Dr. "+gofakeit.Name())
	}

	r := chi.NewRouter()
	r.Post(*endpoint, appointmentsHandler)

	log.Info().Str("addr", *addr).Str("endpoint", *endpoint).Msg("fake upstream listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("fake upstream stopped")
	}
}

func appointmentsHandler(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
		return
	}

	start, err := dateutil.ParseISO(req.DataI)
	if err != nil {
		http.Error(w, `{"error":"bad datai"}`, http.StatusBadRequest)
		return
	}
	end, err := dateutil.ParseISO(req.DataF)
	if err != nil || end.Before(start) {
		http.Error(w, `{"error":"bad dataf"}`, http.StatusBadRequest)
		return
	}

	records := make([]map[string]any, 0)
	for day := start; !day.After(end); day = dateutil.AddDays(day, 1) {
		for i := 0; i < gofakeit.Number(2, 6); i++ {
			records = append(records, randomRecord(day))
		}
	}

	// Rotate through the historical body envelopes.
	var body any
	switch rand.Intn(3) {
	case 0:
		body = map[string]any{"Resultado": records}
	case 1:
		body = map[string]any{"resultado": records}
	default:
		body = records
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// randomRecord emits either a flat appointment or a patient record with a
// nested agendamento list, with field spellings and date formats picked at
// random the way real payloads mix them.
func randomRecord(day time.Time) map[string]any {
	if rand.Intn(100) < 40 {
		nested := make([]any, 0, 2)
		for i := 0; i < gofakeit.Number(1, 3); i++ {
			nested = append(nested, map[string]any{
				"agendamento_data":   randomDate(day),
				"agendamento_hora":   randomClock(),
				"agendamento_medico": pick(professionalPool),
				"agendamento_status": pick(statusPool),
				"agendamento_chave":  gofakeit.UUID(),
			})
		}
		return map[string]any{
			"paciente":    gofakeit.Name(),
			"telefone":    gofakeit.Phone(),
			"idpaciente":  gofakeit.Number(1000, 99999),
			"agendamento": nested,
		}
	}

	rec := map[string]any{
		"paciente":     gofakeit.Name(),
		"profissional": pick(professionalPool),
		"status":       pick(statusPool),
		"id":           gofakeit.Number(1, 999999),
	}
	// Some API versions wrap the date in an object.
	if rand.Intn(100) < 25 {
		rec["data"] = map[string]any{"data": randomDate(day)}
		rec["hora"] = map[string]any{"hora": randomClock()}
	} else {
		rec["data"] = randomDate(day)
		rec["hora"] = randomClock()
	}
	// Occasionally emit an undatable record; the pipeline must skip it.
	if rand.Intn(100) < 5 {
		delete(rec, "data")
		delete(rec, "hora")
	}
	return rec
}

func randomDate(day time.Time) string {
	if rand.Intn(2) == 0 {
		return day.Format("02/01/2006")
	}
	return dateutil.FormatISO(day)
}

func randomClock() string {
	h := gofakeit.Number(6, 20)
	m := []string{"00", "30"}[rand.Intn(2)]
	switch rand.Intn(3) {
	case 0: // compact legacy form
		return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15") + m
	case 1:
		return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15") + ":" + m + ":00"
	default:
		return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15") + ":" + m
	}
}

func pick(pool []string) string {
	return pool[rand.Intn(len(pool))]
}
