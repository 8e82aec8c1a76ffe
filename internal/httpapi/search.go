package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/search"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	searchMinLength = 2
	searchLimit     = 10
	searchViewMax   = 32
)

type searchResponse struct {
	Seq     uint64 `json:"seq"`
	Results any    `json:"results"`
}

type customerHit struct {
	ID             int64  `json:"id"`
	NombreCompleto string `json:"nombreCompleto"`
	Email          string `json:"email"`
	Telefono       string `json:"telefono"`
}

type partHit struct {
	ID          int64   `json:"id"`
	Codigo      string  `json:"codigo"`
	Nombre      string  `json:"nombre"`
	Stock       int     `json:"stock"`
	PrecioVenta float64 `json:"precioVenta"`
	EstadoStock string  `json:"estadoStock"`
}

// searchRequest registers the request with the sequencer. It returns false
// when a newer search from the same page load is already known, in which
// case 204 has been written.
func (h *Handler) searchRequest(w http.ResponseWriter, r *http.Request, screen string) (string, uint64, string, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	seq, _ := strconv.ParseUint(r.URL.Query().Get("seq"), 10, 64)
	view := r.URL.Query().Get("view")
	if len(view) > searchViewMax {
		view = view[:searchViewMax]
	}
	key := search.Key(current(r).ID, screen, view)
	if !h.sequencer.Begin(key, seq) {
		w.WriteHeader(http.StatusNoContent)
		return "", 0, "", false
	}
	return key, seq, query, true
}

// searchFailed answers a failed search. A 401 ends the session just like
// it does on full screens.
func (h *Handler) searchFailed(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	requestID := middleware.GetReqID(r.Context())
	if gateway.IsUnauthorized(err) {
		if expireErr := h.sessions.Expire(r.Context(), current(r).ID); expireErr != nil {
			h.logger.Warn("session expire failed", zap.Error(expireErr))
		}
		h.clearSessionCookie(w)
		writeError(w, requestID, http.StatusUnauthorized, "unauthorized", gateway.MessageUnauthorized)
		return
	}
	code := "upstream_error"
	if apiErr, ok := gateway.AsError(err); ok {
		code = string(apiErr.Kind)
	}
	writeError(w, requestID, errorStatus(err), code, gateway.Message(err))
}

func (h *Handler) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	key, seq, query, ok := h.searchRequest(w, r, "clientes")
	if !ok {
		return
	}
	hits := []customerHit{}
	if utf8.RuneCountInString(query) >= searchMinLength {
		page, err := h.api.SearchCustomersByName(r.Context(), current(r).Token, query, gateway.PageRequest{Size: searchLimit})
		if err != nil {
			h.searchFailed(w, r, err)
			return
		}
		for _, c := range page.Content {
			hits = append(hits, customerHit{ID: c.ID, NombreCompleto: c.NombreCompleto, Email: c.Email, Telefono: c.Telefono})
		}
	}
	if !h.sequencer.Current(key, seq) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Seq: seq, Results: hits})
}

func (h *Handler) handleSearchParts(w http.ResponseWriter, r *http.Request) {
	key, seq, query, ok := h.searchRequest(w, r, "piezas")
	if !ok {
		return
	}
	hits := []partHit{}
	if utf8.RuneCountInString(query) >= searchMinLength {
		page, err := h.api.SearchParts(r.Context(), current(r).Token, query, gateway.PageRequest{Size: searchLimit})
		if err != nil {
			h.searchFailed(w, r, err)
			return
		}
		for _, p := range page.Content {
			hits = append(hits, partHitFrom(p))
		}
	}
	if !h.sequencer.Current(key, seq) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Seq: seq, Results: hits})
}

func partHitFrom(p models.Part) partHit {
	return partHit{
		ID:          p.ID,
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		Stock:       p.Stock,
		PrecioVenta: p.PrecioVenta,
		EstadoStock: p.EstadoStock,
	}
}

// Prune releases per-client state kept for search sequencing and login
// throttling. It is meant to run periodically.
func (h *Handler) Prune() int {
	return h.sequencer.Prune() + h.limiter.Prune()
}
