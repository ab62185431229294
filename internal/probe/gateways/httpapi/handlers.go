package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haukened/probecache/internal/probe/services/membership"
)

type errorBody struct {
	Error string `json:"error"`
}

type memberBody struct {
	Key    string `json:"key"`
	Member bool   `json:"member"`
	Sync   bool   `json:"sync"`
}

type okBody struct {
	OK bool `json:"ok"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"instances": s.service.Names()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Stats())
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	sync := r.URL.Query().Get("sync") == "true"

	var (
		member bool
		err    error
	)
	if sync {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		member, err = h.MemberSync(ctx, key)
	} else {
		member, err = h.Member(key)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberBody{Key: key, Member: member, Sync: sync})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Add(ctx, r.PathValue("key")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) handleAddList(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	keys, ok := decodeKeys(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.AddList(ctx, keys); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Delete(ctx, r.PathValue("key")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) handleReinit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	keys, ok := decodeKeys(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.Reinit(ctx, keys); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// lookup resolves the {name} path segment to a handle, answering 404 itself
// when the instance does not exist.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*membership.Handle, bool) {
	name := r.PathValue("name")
	h, ok := s.service.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "instance not found: " + name})
		return nil, false
	}
	return h, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, membership.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, membership.ErrStopped):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeKeys(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var keys []string
	if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "body must be a JSON array of strings"})
		return nil, false
	}
	return keys, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
