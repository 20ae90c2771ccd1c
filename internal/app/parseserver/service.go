package parseserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
	"bitbucket.org/airenas/depgo/internal/pkg/cmdapp"
	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/decode"
	"bitbucket.org/airenas/depgo/internal/pkg/parser"
)

//Parser parses tokenized sentences
type Parser interface {
	Predict(ctx context.Context, sentences conll.Sentences, opts parser.Options) (*parser.Result, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Port    int
	Tree    bool
	Proj    bool
	health  healthcheck.Handler
	metrics serviceMetrics

	lock   sync.RWMutex
	parser Parser
}

type serviceMetrics struct {
	responseDur *prometheus.HistogramVec
	sentCount   prometheus.Counter
}

//SetParser swaps the parser, used by the checkpoint reload watcher
func (data *ServiceData) SetParser(p Parser) {
	data.lock.Lock()
	defer data.lock.Unlock()
	data.parser = p
}

func (data *ServiceData) currentParser() Parser {
	data.lock.RLock()
	defer data.lock.RUnlock()
	return data.parser
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)
	http.Handle("/", r)
	portStr := strconv.Itoa(data.Port)
	err := http.ListenAndServe(":"+portStr, nil)
	if err != nil {
		return errors.Wrap(err, "Can't start HTTP listener at port "+portStr)
	}
	return nil
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter()
	ph := parseHandler{data: data}
	router.Methods("POST").Path("/parse").Handler(&ph)
	router.Methods("POST").Path("/parse/").Handler(&ph)
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type parseHandler struct {
	data *ServiceData
}

func (h *parseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Debugf("Request from %s", r.Host)
	start := time.Now()

	decoder := json.NewDecoder(r.Body)
	var input Input
	err := decoder.Decode(&input)
	if err != nil {
		http.Error(w, "Cannot decode input", http.StatusBadRequest)
		cmdapp.Log.Error("Cannot decode input. ", err)
		return
	}
	if len(input.Sentences) == 0 {
		http.Error(w, "No sentences", http.StatusBadRequest)
		cmdapp.Log.Error("No sentences")
		return
	}

	prob := input.Prob || r.URL.Query().Get("prob") == "1"
	res, err := h.data.currentParser().Predict(r.Context(), conll.FromWords(input.Sentences),
		parser.Options{Tree: h.data.Tree, Proj: h.data.Proj, Prob: prob})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Cause(err) == batch.ErrEmptyInput || errors.Cause(err) == decode.ErrConfigConflict {
			code = http.StatusBadRequest
		}
		http.Error(w, "Cannot parse", code)
		cmdapp.Log.Error("Cannot parse. ", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err = encoder.Encode(newOutput(res))
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if h.data.metrics.responseDur != nil {
		h.data.metrics.responseDur.WithLabelValues().Observe(time.Since(start).Seconds())
	}
	if h.data.metrics.sentCount != nil {
		h.data.metrics.sentCount.Add(float64(len(input.Sentences)))
	}
}

func newOutput(res *parser.Result) *Output {
	out := &Output{Sentences: make([]SentenceResult, len(res.Heads))}
	for i := range res.Heads {
		sr := SentenceResult{Heads: res.Heads[i], Rels: res.Rels[i]}
		if res.Probs != nil {
			sr.Probs = res.Probs[i]
		}
		out.Sentences[i] = sr
	}
	return out
}
