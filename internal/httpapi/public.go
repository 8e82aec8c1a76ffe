package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"

	"github.com/go-chi/chi/v5"
)

const (
	messageTicketNotFound  = "Ticket no encontrado"
	messageBadTicketNumber = "Formato inválido. Use: TKT-YYYYMMDD-XXXX"
)

type lookupView struct {
	baseView
	Numero string
	Ticket *models.PublicTicket
	Error  string
}

// handleLookup serves the customer-facing status page. It never touches
// the session: a staff member's own login plays no part in it.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	numero := r.URL.Query().Get("numero")
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		numero = r.PostForm.Get("numero")
	}
	view := &lookupView{
		baseView: baseView{Title: "Consulta de ticket"},
		Numero:   strings.ToUpper(strings.TrimSpace(numero)),
	}
	if view.Numero == "" {
		h.render(w, r, http.StatusOK, "lookup", view)
		return
	}
	if !models.ValidTicketNumber(view.Numero) {
		view.Error = messageBadTicketNumber
		h.render(w, r, http.StatusBadRequest, "lookup", view)
		return
	}

	ticket, err := h.api.PublicTicket(r.Context(), view.Numero)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := errorStatus(err)
		view.Error = gateway.Message(err)
		if gateway.IsNotFound(err) {
			status, view.Error = http.StatusNotFound, messageTicketNotFound
		}
		h.render(w, r, status, "lookup", view)
		return
	}
	view.Ticket = &ticket
	h.render(w, r, http.StatusOK, "lookup", view)
}

func (h *Handler) handleLookupPDF(w http.ResponseWriter, r *http.Request) {
	numero := strings.ToUpper(chi.URLParam(r, "numero"))
	if !models.ValidTicketNumber(numero) {
		h.render(w, r, http.StatusBadRequest, "lookup", &lookupView{
			baseView: baseView{Title: "Consulta de ticket"},
			Numero:   numero,
			Error:    messageBadTicketNumber,
		})
		return
	}
	doc, err := h.api.PublicTicketPDF(r.Context(), numero)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		message := "Error al descargar el PDF: " + gateway.Message(err)
		if gateway.IsNotFound(err) {
			message = messageTicketNotFound
		}
		setFlash(w, flashError, message)
		http.Redirect(w, r, "/consulta?numero="+url.QueryEscape(numero), http.StatusSeeOther)
		return
	}
	serveDownload(w, doc, "Ticket-"+numero+".pdf")
}
