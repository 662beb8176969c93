// Package prometheus serves the node metrics and health endpoints and counts
// log entries per level and prefix.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prysmaticlabs/beacon-ingest/runtime"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "prometheus")

const shutdownTimeout = 2 * time.Second

// Handler is an additional route served next to /metrics.
type Handler struct {
	Path string
	Handler func(http.ResponseWriter, *http.Request)
}

// Service serves the metrics registered with the prometheus default registerer
// on /metrics and the status of the registered services on /healthz.
type Service struct {
	server      *http.Server
	svcRegistry *runtime.ServiceRegistry
	lock        sync.RWMutex
	failStatus  error
}

// NewService creates a metrics service listening on addr (host:port).
func NewService(addr string, svcRegistry *runtime.ServiceRegistry, additionalHandlers ...Handler) *Service {
	s := &Service{svcRegistry: svcRegistry}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.healthzHandler)
	for _, h := range additionalHandlers {
		mux.HandleFunc(h.Path, h.Handler)
	}
	s.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: time.Second}
	return s
}

type serviceStatus struct {
	Name   string `json:"service"`
	Status bool   `json:"status"`
	Err    string `json:"error,omitempty"`
}

func (s *Service) healthzHandler(w http.ResponseWriter, r *http.Request) {
	statuses := make([]serviceStatus, 0)
	healthy := true
	for k, err := range s.svcRegistry.Statuses() {
		st := serviceStatus{Name: k.String(), Status: err == nil}
		if err != nil {
			healthy = false
			st.Err = err.Error()
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	var body []byte
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		enc, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(statuses)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = enc
	} else {
		w.Header().Set("Content-Type", "text/plain")
		var sb strings.Builder
		for _, st := range statuses {
			status := "OK"
			if !st.Status {
				status = "ERROR " + st.Err
			}
			sb.WriteString(fmt.Sprintf("%s: %s\n", st.Name, status))
		}
		body = []byte(sb.String())
	}
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Error("Could not write healthz body")
	}
}

// Start serving in the background.
func (s *Service) Start() {
	log.WithField("endpoint", s.server.Addr).Info("Starting service")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Could not listen to host:port %s", s.server.Addr)
			s.lock.Lock()
			s.failStatus = err
			s.lock.Unlock()
		}
	}()
}

// Stop shuts the server down.
func (s *Service) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status returns the listen error, if any.
func (s *Service) Status() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.failStatus
}
