package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"askai/internal/domain"
	"askai/internal/retriever"
	"askai/internal/session"
)

type sessionResponse struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Accepted bool             `json:"accepted"`
	Snapshot session.Snapshot `json:"snapshot"`
	Reply    *domain.Message  `json:"reply,omitempty"`
	Outcome  session.Outcome  `json:"outcome,omitempty"`
}

type searchResponse struct {
	Query   string                  `json:"query"`
	Results []domain.ScoredDocument `json:"results"`
}

// documentSummary is a listing entry without the document text.
type documentSummary struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	URL    string        `json:"url"`
	Source domain.Source `json:"source"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Source    string `json:"source,omitempty"`
	LoadedAt  string `json:"loaded_at,omitempty"`
	Sessions  int    `json:"sessions"`
	Uptime    string `json:"uptime"`
}

// lookup resolves the {id} route variable or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return id, nil, false
	}
	return id, sess, true
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession()
	id := s.store.Add(sess)
	s.logger.Info("session created", zap.String("session", id))
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.store.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	// the health check outlives the request
	sess.Open(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Close()
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cycle, accepted := sess.Submit(context.WithoutCancel(r.Context()), req.Query)
	resp := askResponse{Accepted: accepted}
	if accepted && r.URL.Query().Get("wait") == "true" {
		if _, err := cycle.Wait(r.Context()); err != nil {
			s.logger.Info("ask wait abandoned", zap.Error(err))
		} else if msg, delivered := cycle.Reply(); delivered {
			resp.Reply = &msg
			resp.Outcome = cycle.Outcome()
		}
	}
	resp.Snapshot = sess.Snapshot()
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := retriever.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	results := s.searcher.SearchLimit(q, limit)
	if results == nil {
		results = []domain.ScoredDocument{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	var filter domain.Source
	if raw := r.URL.Query().Get("source"); raw != "" {
		src, err := domain.ParseSource(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = src
	}
	out := []documentSummary{}
	for _, d := range s.corpus.Documents() {
		if filter != "" && d.Source != filter {
			continue
		}
		out = append(out, documentSummary{ID: d.ID, Title: d.Title, URL: d.URL, Source: d.Source})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.corpus.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Documents: s.corpus.Len(),
		Sessions:  s.store.Count(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}
	if at, src := s.corpus.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = at.UTC().Format(time.RFC3339)
		resp.Source = src
	} else {
		resp.Status = "index_missing"
	}
	writeJSON(w, http.StatusOK, resp)
}
