package api

import (
	"encoding/json"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"text2phenotype.com/melt/pipeline"
)

type recordingPipeline struct {
	requests []pipeline.Request
	fail     bool
}

func (p *recordingPipeline) run(request pipeline.Request) <-chan string {
	p.requests = append(p.requests, request)
	ch := make(chan string, 1)
	if !p.fail {
		buf, _ := json.Marshal(map[string]interface{}{"tid": request.Tid, "text": request.Text})
		ch <- string(buf)
	}
	close(ch)
	return ch
}

func TestProcessData(t *testing.T) {
	ppln := &recordingPipeline{}
	server := httptest.NewServer(NewMux(ppln.run, prometheus.NewRegistry()))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+TagPath+"?beam=5&verbose=true", strings.NewReader("le chat dort"))
	require.NoError(t, err)
	req.Header.Set(TidHeader, "doc-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "doc-1", resp.Header.Get(TidHeader))
	var body json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, jsonpatch.Equal([]byte(`{"tid": "doc-1", "text": "le chat dort"}`), body))

	verbose := true
	require.Len(t, ppln.requests, 1)
	require.Equal(t, pipeline.Request{Text: "le chat dort", Tid: "doc-1", BeamSize: 5, Verbose: &verbose}, ppln.requests[0])
}

func TestProcessDataGeneratesTid(t *testing.T) {
	ppln := &recordingPipeline{}
	rec := httptest.NewRecorder()
	(&Request{Pipeline: ppln.run}).ProcessData(rec, httptest.NewRequest(http.MethodPost, TagPath, strings.NewReader("x")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ppln.requests, 1)
	require.Len(t, ppln.requests[0].Tid, 36)
	require.Nil(t, ppln.requests[0].Verbose, "the tagger setting applies when verbose is not given")
	require.Equal(t, 0, ppln.requests[0].BeamSize)
}

func TestProcessDataErrors(t *testing.T) {
	cases := map[string]struct {
		method string
		target string
		fail   bool
		status int
	}{
		"GET is not allowed":   {http.MethodGet, TagPath, false, http.StatusMethodNotAllowed},
		"Zero beam":            {http.MethodPost, TagPath + "?beam=0", false, http.StatusBadRequest},
		"Non numeric beam":     {http.MethodPost, TagPath + "?beam=wide", false, http.StatusBadRequest},
		"Invalid verbose flag": {http.MethodPost, TagPath + "?verbose=sure", false, http.StatusBadRequest},
		"Pipeline failure":     {http.MethodPost, TagPath, true, http.StatusInternalServerError},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			ppln := &recordingPipeline{fail: c.fail}
			rec := httptest.NewRecorder()
			(&Request{Pipeline: ppln.run}).ProcessData(rec, httptest.NewRequest(c.method, c.target, strings.NewReader("le")))
			require.Equal(t, c.status, rec.Code)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "melt_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()
	mux := NewMux((&recordingPipeline{}).run, reg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "melt_test_total 1")
}
