package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DataSource loads the observations of a calendar year
type DataSource interface {
	LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error)
}

// Server is the local preview of the calendar panel
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	controller *panel.Controller
	navigator  *panel.RecordingNavigator
	source     DataSource
	series     []string
	location   *time.Location

	mu         sync.Mutex
	loadedYear int
}

// Options configure the preview server
type Options struct {
	Addr     string
	Series   []string
	Location *time.Location
	Gatherer prometheus.Gatherer // nil serves the default registry
	LogTo    io.Writer           // nil disables request logging
}

// NewServer creates the preview server. Navigation commands are recorded and
// served back under /navigation in place of a dashboard host.
func NewServer(controller *panel.Controller, navigator *panel.RecordingNavigator, source DataSource, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	s := &Server{
		router:     mux.NewRouter(),
		controller: controller,
		navigator:  navigator,
		source:     source,
		series:     opts.Series,
		location:   opts.Location,
	}

	metrics := promhttp.Handler()
	if opts.Gatherer != nil {
		metrics = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	s.router.HandleFunc("/healthz", s.health).Methods("GET")
	s.router.HandleFunc("/calendar.png", s.calendarPNG).Methods("GET")
	s.router.HandleFunc("/state", s.state).Methods("GET")
	s.router.HandleFunc("/pointer", s.pointer).Methods("POST")
	s.router.HandleFunc("/year-label", s.yearLabel).Methods("POST")
	s.router.HandleFunc("/year", s.year).Methods("PUT")
	s.router.HandleFunc("/options", s.options).Methods("PUT")
	s.router.HandleFunc("/navigation", s.navigation).Methods("GET")
	s.router.Handle("/metrics", metrics).Methods("GET")

	var handler http.Handler = s.router
	if opts.LogTo != nil {
		handler = handlers.LoggingHandler(opts.LogTo, s.router)
	}

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	log.Printf("Calendar preview listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// Reload loads the active year's observations and hands them to the
// controller with the current size and options
func (s *Server) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx, s.controller.State())
}

func (s *Server) reload(ctx context.Context, state *panel.State) error {
	data, err := s.source.LoadYear(ctx, s.series, state.Year, s.location)
	if err != nil {
		return fmt.Errorf("failed to load observations: %w", err)
	}
	s.loadedYear = state.Year
	s.controller.Update(data, state.Width, state.Height, state.Options)
	return nil
}

type stateResponse struct {
	*panel.State
	Navigation *panel.TimeRange `json:"navigation,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) calendarPNG(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.controller.State()
	width := queryInt(r, "width", state.Width)
	height := queryInt(r, "height", state.Height)
	if width != state.Width || height != state.Height {
		s.controller.Update(s.controller.Data(), width, height, state.Options)
	}
	s.mu.Unlock()

	imageData, err := s.controller.RenderPNG()
	if err != nil {
		log.Printf("Failed to render calendar: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(imageData)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{State: s.controller.State()})
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request) {
	var ev panel.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, fmt.Sprintf("invalid pointer event: %v", err), http.StatusBadRequest)
		return
	}

	before := len(s.navigator.Ranges())
	state, err := s.controller.HandlePointer(r.Context(), ev)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := stateResponse{State: state}
	if ranges := s.navigator.Ranges(); len(ranges) > before {
		resp.Navigation = &ranges[len(ranges)-1]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) yearLabel(w http.ResponseWriter, r *http.Request) {
	tr, err := s.controller.ActivateYearLabel(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

type yearRequest struct {
	Year  int `json:"year"`
	Delta int `json:"delta"`
}

func (s *Server) year(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid year request: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var state *panel.State
	if req.Year != 0 {
		state = s.controller.SetYear(req.Year)
	} else {
		state = s.controller.AdvanceYear(req.Delta)
	}
	if state.Year != s.loadedYear {
		if err := s.reload(r.Context(), state); err != nil {
			log.Printf("Failed to reload year %d: %v", state.Year, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, stateResponse{State: s.controller.State()})
}

type optionsRequest struct {
	Text *string `json:"text"`
	Pad  string  `json:"pad"`
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	var req optionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid options: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.controller.State()
	options := state.Options
	if req.Text != nil {
		options = options.WithText(*req.Text)
	}
	if req.Pad != "" {
		options = options.WithPad(req.Pad)
	}
	state = s.controller.Update(s.controller.Data(), state.Width, state.Height, options)
	writeJSON(w, http.StatusOK, stateResponse{State: state})
}

func (s *Server) navigation(w http.ResponseWriter, r *http.Request) {
	ranges := s.navigator.Ranges()
	if ranges == nil {
		ranges = []panel.TimeRange{}
	}
	writeJSON(w, http.StatusOK, ranges)
}

func queryInt(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
