// Package httpapi exposes Ask AI sessions over JSON HTTP for the site's
// browser widget.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"askai/internal/domain"
	"askai/internal/session"
)

// Corpus is the read side of the loaded index.
type Corpus interface {
	Len() int
	Get(id string) (domain.Document, bool)
	Documents() []domain.Document
	LoadedAt() (time.Time, string)
}

// Searcher ranks the corpus with an explicit limit.
type Searcher interface {
	SearchLimit(query string, limit int) []domain.ScoredDocument
}

// Deps wires the server. NewSession builds a session sharing the index.
type Deps struct {
	Corpus         Corpus
	Searcher       Searcher
	NewSession     func() *session.Session
	Store          *SessionStore
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server routes widget requests to sessions.
type Server struct {
	router     *mux.Router
	corpus     Corpus
	searcher   Searcher
	newSession func() *session.Session
	store      *SessionStore
	origins    []string
	logger     *zap.Logger
	started    time.Time
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Store == nil {
		d.Store = NewSessionStore(time.Hour)
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		router:     mux.NewRouter(),
		corpus:     d.Corpus,
		searcher:   d.Searcher,
		newSession: d.NewSession,
		store:      d.Store,
		origins:    d.AllowedOrigins,
		logger:     d.Logger,
		started:    time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/open", s.openSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/close", s.closeSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/clear", s.clearSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/ask", s.ask).Methods(http.MethodPost)
	api.HandleFunc("/search", s.search).Methods(http.MethodGet)
	api.HandleFunc("/documents", s.listDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", s.getDocument).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.Use(s.logRequests)
}

// Handler returns the router wrapped with CORS for the configured origins.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
