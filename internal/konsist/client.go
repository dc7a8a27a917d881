// Package konsist talks to the upstream Konsist scheduling API. The API is
// read-only from this system's point of view: it accepts a date range and
// returns appointment payloads in one of several historical body shapes.
package konsist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/agenda"
)

// bodyPreview bounds how much of a raw upstream body lands in error strings.
const bodyPreview = 400

// Client fetches raw appointment records for an inclusive date range. Dates
// are YYYY-MM-DD strings, matching the upstream wire format.
type Client interface {
	FetchRange(ctx context.Context, datai, dataf string) ([]agenda.RawRecord, error)
}

// HTTPClient is the production Client, authenticating with a bearer token.
type HTTPClient struct {
	baseURL  string
	endpoint string
	bearer   string
	client   *http.Client
}

// NewHTTPClient builds a client for the given Konsist base URL and
// appointments endpoint path.
func NewHTTPClient(baseURL, endpoint, bearer string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: endpoint,
		bearer:   bearer,
		client:   &http.Client{Timeout: timeout},
	}
}

type rangeRequest struct {
	DataI       string `json:"datai"`
	DataF       string `json:"dataf"`
	IDPaciente  int    `json:"idpaciente"`
	CPFPaciente string `json:"cpfPaciente"`
}

// FetchRange POSTs the date range and returns the raw records found in the
// response body, whichever shape they arrive in. Non-2xx statuses and
// non-JSON bodies are surfaced as descriptive errors carrying a bounded
// body prefix, never as a silent empty result.
func (c *HTTPClient) FetchRange(ctx context.Context, datai, dataf string) ([]agenda.RawRecord, error) {
	payload, err := json.Marshal(rangeRequest{DataI: datai, DataF: dataf})
	if err != nil {
		return nil, fmt.Errorf("marshal range payload: %w", err)
	}

	url := c.baseURL + c.endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build konsist request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("konsist request %s..%s: %w", datai, dataf, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read konsist response: %w", err)
	}

	log.Debug().
		Str("range", datai+".."+dataf).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("konsist fetch")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("konsist returned HTTP %d: %s", resp.StatusCode, preview(body))
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("non-JSON konsist response (HTTP %d): %s", resp.StatusCode, preview(body))
	}
	return records, nil
}

// decodeRecords probes the known response shapes: an object keyed
// "Resultado", one keyed "resultado", or a bare root array. None matching a
// valid JSON body yields an empty slice, not an error.
func decodeRecords(body []byte) ([]agenda.RawRecord, error) {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	var items []any
	switch v := parsed.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"Resultado", "resultado"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	records := make([]agenda.RawRecord, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > bodyPreview {
		s = s[:bodyPreview] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
