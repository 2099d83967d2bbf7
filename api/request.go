package api

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"io"
	"net/http"
	"strconv"
	"text2phenotype.com/melt/pipeline"
)

const (
	TagPath     = "/tag"
	MetricsPath = "/metrics"
	HealthPath  = "/health"

	// tid supplied by the caller, a random one is generated otherwise
	TidHeader = "X-Request-Id"
)

type Request struct {
	Pipeline pipeline.Pipeline
}

// NewMux serves tagging requests, prometheus metrics gathered from gatherer and a health probe.
func NewMux(ppln pipeline.Pipeline, gatherer prometheus.Gatherer) *http.ServeMux {
	req := &Request{Pipeline: ppln}
	mux := http.NewServeMux()
	mux.HandleFunc(TagPath, req.ProcessData)
	mux.HandleFunc(HealthPath, health)
	if gatherer != nil {
		mux.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ProcessData tags the request body, one sentence per line. The optional `beam` and `verbose`
// query parameters override the tagger defaults.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tid := r.Header.Get(TidHeader)
	if tid == "" {
		tid = uuid.NewString()
	}
	logger := makeRequestLogger(r, tid)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	request := pipeline.Request{Tid: tid}
	query := r.URL.Query()
	if beam := query.Get("beam"); beam != "" {
		size, err := strconv.Atoi(beam)
		if err != nil || size < 1 {
			logger.Err(err).Int("status", http.StatusBadRequest).Str("beam", beam).Msg("Invalid beam size")
			http.Error(w, "beam must be a positive integer", http.StatusBadRequest)
			return
		}
		request.BeamSize = size
	}
	if verbose := query.Get("verbose"); verbose != "" {
		flag, err := strconv.ParseBool(verbose)
		if err != nil {
			logger.Err(err).Int("status", http.StatusBadRequest).Str("verbose", verbose).Msg("Invalid verbose flag")
			http.Error(w, "verbose must be a boolean", http.StatusBadRequest)
			return
		}
		request.Verbose = &flag
	}

	msg, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	request.Text = string(msg)

	logger.Info().Msg("Starting pipeline for request from API")
	resp, ok := <-req.Pipeline(request)
	if !ok {
		logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline returned no response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	w.Header().Set(TidHeader, tid)
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
