// Package server exposes a document pool over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/poolcache"
	"github.com/unkn0wn-root/poolcache/pool"
)

const maxBody = 1 << 20

// Document is the body type served by the API: any JSON value.
type Document = json.RawMessage

type handler struct {
	pool *pool.Pool[Document]
	log  poolcache.Logger
}

// NewRouter mounts the object and cache routes. gatherer feeds /metrics;
// nil disables the endpoint.
func NewRouter(p *pool.Pool[Document], gatherer prometheus.Gatherer, log poolcache.Logger) http.Handler {
	if log == nil {
		log = poolcache.NopLogger{}
	}
	h := &handler{pool: p, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", health)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/objects", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{oid}", h.get)
		r.Put("/{oid}", h.put)
		r.Delete("/{oid}", h.del)
		r.Post("/{oid}/invalidate", h.invalidate)
	})
	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Post("/enable", h.enable)
		r.Post("/disable", h.disable)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type createdResponse struct {
	OID int `json:"oid"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pool.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		h.log.Error("request failed", poolcache.Fields{"err": err})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func oidParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	oid, err := strconv.Atoi(chi.URLParam(r, "oid"))
	if err != nil || oid < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid oid"})
		return 0, false
	}
	return oid, true
}

func readDocument(w http.ResponseWriter, r *http.Request) (Document, bool) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil || !json.Valid(b) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return nil, false
	}
	return Document(b), true
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	obj, err := h.pool.Allocate(r.Context(), doc)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{OID: obj.ID})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	oid, ok := oidParam(w, r)
	if !ok {
		return
	}
	obj, err := h.pool.Get(r.Context(), oid, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	body := append(Document(nil), obj.Body...)
	obj.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handler) put(w http.ResponseWriter, r *http.Request) {
	oid, ok := oidParam(w, r)
	if !ok {
		return
	}
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	obj, err := h.pool.Get(r.Context(), oid, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer obj.Unlock()

	prev := obj.Body
	obj.Body = doc
	if err := h.pool.Update(r.Context(), obj); err != nil {
		obj.Body = prev
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) del(w http.ResponseWriter, r *http.Request) {
	oid, ok := oidParam(w, r)
	if !ok {
		return
	}
	obj, err := h.pool.Get(r.Context(), oid, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer obj.Unlock()

	if err := h.pool.Drop(r.Context(), obj); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) invalidate(w http.ResponseWriter, r *http.Request) {
	oid, ok := oidParam(w, r)
	if !ok {
		return
	}
	if !h.pool.Invalidate(oid) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not resident"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Cache().Stats())
}

func (h *handler) enable(w http.ResponseWriter, _ *http.Request) {
	h.switchMode(w, h.pool.Enable)
}

func (h *handler) disable(w http.ResponseWriter, _ *http.Request) {
	h.switchMode(w, h.pool.Disable)
}

func (h *handler) switchMode(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.pool.Cache().Stats())
}
