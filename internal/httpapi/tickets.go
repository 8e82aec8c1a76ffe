package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/workflow"

	"github.com/go-chi/chi/v5"
)

const ticketsPath = "/tickets"

type ticketListView struct {
	baseView
	Page    models.Page[models.Ticket]
	State   models.TicketState
	Own     bool
	PrevURL string
	NextURL string
}

type ticketFormView struct {
	baseView
	Form          ticketForm
	CustomerName  string
	CustomerQuery string
	Matches       []models.Customer
	Errors        workflow.FieldErrors
	Message       string
}

type ticketDetailView struct {
	baseView
	View         workflow.View
	Parts        []models.TicketPart
	PartsNotice  string
	CanEditParts bool
	PartInput    models.TicketPartInput
	PartErrors   workflow.FieldErrors
	Message      string
}

type actionView struct {
	baseView
	Ticket  models.Ticket
	Action  workflow.Action
	Label   string
	Form    bool
	Input   workflow.Input
	Errors  workflow.FieldErrors
	Message string
}

func (h *Handler) handleTicketList(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	view := &ticketListView{baseView: baseView{Title: "Tickets"}}

	var (
		page models.Page[models.Ticket]
		err  error
	)
	switch state := models.TicketState(strings.ToUpper(r.URL.Query().Get("estado"))); {
	case s.HasRole(models.RoleTechnician):
		view.Own = true
		page, err = h.api.TicketsByTechnician(r.Context(), s.Token, s.User.ID, h.page(r))
	case state.Valid():
		view.State = state
		page, err = h.api.TicketsByState(r.Context(), s.Token, state, h.page(r))
	default:
		page, err = h.api.ListTickets(r.Context(), s.Token, h.page(r))
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	view.Page = page
	if page.HasPrevious() {
		view.PrevURL = pageLink(r, page.PreviousPage())
	}
	if page.HasNext() {
		view.NextURL = pageLink(r, page.NextPage())
	}
	h.render(w, r, http.StatusOK, "tickets", view)
}

// handleTicketNew draws the intake form. A customer is picked either by
// id or by searching with the cliente query parameter.
func (h *Handler) handleTicketNew(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	q := r.URL.Query()
	view := &ticketFormView{
		baseView:      baseView{Title: "Nuevo ticket"},
		CustomerQuery: strings.TrimSpace(q.Get("cliente")),
	}

	if id, err := strconv.ParseInt(q.Get("clienteId"), 10, 64); err == nil && id > 0 {
		customer, err := h.api.GetCustomer(r.Context(), s.Token, id)
		if err != nil {
			if h.intercept(w, r, err) {
				return
			}
			view.Message = gateway.Message(err)
		} else {
			view.Form.ClienteID = strconv.FormatInt(customer.ID, 10)
			view.CustomerName = customer.NombreCompleto
		}
	}
	if view.CustomerQuery != "" {
		matches, err := h.api.SearchCustomersByName(r.Context(), s.Token, view.CustomerQuery, gateway.PageRequest{Size: h.pageSize})
		if err != nil {
			if h.intercept(w, r, err) {
				return
			}
			view.Message = gateway.Message(err)
		}
		view.Matches = matches.Content
	}
	h.render(w, r, http.StatusOK, "ticket_form", view)
}

func (h *Handler) handleTicketCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &ticketFormView{
		baseView:     baseView{Title: "Nuevo ticket"},
		Form:         ticketFormFromValues(r.PostForm),
		CustomerName: field(r.PostForm, "clienteNombre"),
	}
	if view.Errors = validateTicket(&view.Form); !view.Errors.Empty() {
		h.render(w, r, http.StatusBadRequest, "ticket_form", view)
		return
	}

	created, err := h.api.CreateTicket(r.Context(), current(r).Token, view.Form.Input)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		view.Message = gateway.Message(err)
		h.render(w, r, errorStatus(err), "ticket_form", view)
		return
	}
	setFlash(w, flashSuccess, "Ticket "+created.NumeroTicket+" creado exitosamente")
	http.Redirect(w, r, ticketPath(created.ID), http.StatusSeeOther)
}

func (h *Handler) handleTicketDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, ticketsPath)
		return
	}
	h.renderTicketDetail(w, r, id, http.StatusOK, nil)
}

// renderTicketDetail loads the ticket and its parts and draws the detail
// screen. adjust lets a caller add form state before rendering.
func (h *Handler) renderTicketDetail(w http.ResponseWriter, r *http.Request, id int64, status int, adjust func(*ticketDetailView)) {
	s := current(r)
	ticket, err := h.api.GetTicket(r.Context(), s.Token, id)
	if err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	view := &ticketDetailView{
		baseView:     baseView{Title: "Ticket " + ticket.NumeroTicket},
		View:         workflow.NewView(ticket, s.User.Rol),
		CanEditParts: s.HasAnyRole(bench...) && !ticket.Estado.Terminal(),
		PartInput:    models.TicketPartInput{Cantidad: 1},
	}
	parts, err := h.api.TicketParts(r.Context(), s.Token, id)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		view.PartsNotice = gateway.Message(err)
	}
	view.Parts = parts
	if adjust != nil {
		adjust(view)
	}
	h.render(w, r, status, "ticket_detail", view)
}

// loadAction resolves the ticket and action named in the path and checks
// that the current role may take it from the ticket's state.
func (h *Handler) loadAction(w http.ResponseWriter, r *http.Request) (models.Ticket, workflow.Action, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, ticketsPath)
		return models.Ticket{}, "", false
	}
	action, ok := workflow.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		h.notFound(w, r, ticketPath(id))
		return models.Ticket{}, "", false
	}
	s := current(r)
	ticket, err := h.api.GetTicket(r.Context(), s.Token, id)
	if err != nil {
		h.fail(w, r, err, ticketsPath)
		return models.Ticket{}, "", false
	}
	if !workflow.Allowed(ticket.Estado, s.User.Rol, action) {
		setFlash(w, flashError, gateway.MessageForbidden)
		http.Redirect(w, r, ticketPath(id), http.StatusSeeOther)
		return models.Ticket{}, "", false
	}
	return ticket, action, true
}

func (h *Handler) handleActionForm(w http.ResponseWriter, r *http.Request) {
	ticket, action, ok := h.loadAction(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "ticket_action", &actionView{
		baseView: baseView{Title: action.Label() + " - " + ticket.NumeroTicket},
		Ticket:   ticket,
		Action:   action,
		Label:    action.Label(),
		Form:     action.NeedsForm(),
		Input:    workflow.Input{TestsPassed: true},
	})
}

func (h *Handler) handleActionSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ticket, action, ok := h.loadAction(w, r)
	if !ok {
		return
	}
	s := current(r)
	input := actionInput(r.PostForm)
	result := h.workflow.Submit(r.Context(), s.Token, ticket, s.User.Rol, action, input)
	if result.OK() {
		setFlash(w, flashSuccess, result.Message)
		http.Redirect(w, r, ticketPath(ticket.ID), http.StatusSeeOther)
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(result.Err, workflow.ErrNotPermitted):
		setFlash(w, flashError, result.Message)
		http.Redirect(w, r, ticketPath(ticket.ID), http.StatusSeeOther)
		return
	case errors.Is(result.Err, workflow.ErrInvalidInput):
	case gateway.IsNotFound(result.Err):
		h.fail(w, r, result.Err, ticketsPath)
		return
	default:
		if h.intercept(w, r, result.Err) {
			return
		}
		status = errorStatus(result.Err)
	}
	h.render(w, r, status, "ticket_action", &actionView{
		baseView: baseView{Title: action.Label() + " - " + ticket.NumeroTicket},
		Ticket:   result.Ticket,
		Action:   action,
		Label:    action.Label(),
		Form:     action.NeedsForm(),
		Input:    input,
		Errors:   result.FieldErrors,
		Message:  result.Message,
	})
}

func (h *Handler) handleTicketPartAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, ticketsPath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	input, errs := ticketPartFromForm(r.PostForm)
	if !errs.Empty() {
		h.renderTicketDetail(w, r, id, http.StatusBadRequest, func(v *ticketDetailView) {
			v.PartInput, v.PartErrors = input, errs
		})
		return
	}
	if _, err := h.api.AddTicketPart(r.Context(), current(r).Token, id, input); err != nil {
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, ticketsPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		h.renderTicketDetail(w, r, id, errorStatus(err), func(v *ticketDetailView) {
			v.PartInput, v.Message = input, gateway.Message(err)
		})
		return
	}
	setFlash(w, flashSuccess, "Pieza agregada al ticket")
	http.Redirect(w, r, ticketPath(id)+"#piezas", http.StatusSeeOther)
}

func (h *Handler) handleTicketPartRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, ticketsPath)
		return
	}
	partID, ok := pathID(r, "tpid")
	if !ok {
		h.notFound(w, r, ticketPath(id))
		return
	}
	if err := h.api.RemoveTicketPart(r.Context(), current(r).Token, id, partID); err != nil {
		if h.intercept(w, r, err) {
			return
		}
		setFlash(w, flashError, gateway.Message(err))
		http.Redirect(w, r, ticketPath(id)+"#piezas", http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Pieza quitada del ticket")
	http.Redirect(w, r, ticketPath(id)+"#piezas", http.StatusSeeOther)
}

func (h *Handler) handleTicketPDF(w http.ResponseWriter, r *http.Request) {
	h.downloadTicketDocument(w, r, h.api.TicketPDF, "Ticket")
}

func (h *Handler) handleBudgetPDF(w http.ResponseWriter, r *http.Request) {
	h.downloadTicketDocument(w, r, h.api.BudgetPDF, "Presupuesto")
}

type ticketDocument func(ctx context.Context, token string, id int64) (gateway.Download, error)

func (h *Handler) downloadTicketDocument(w http.ResponseWriter, r *http.Request, fetch ticketDocument, prefix string) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, ticketsPath)
		return
	}
	doc, err := fetch(r.Context(), current(r).Token, id)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		setFlash(w, flashError, "Error al descargar el PDF: "+gateway.Message(err))
		http.Redirect(w, r, ticketPath(id), http.StatusSeeOther)
		return
	}
	serveDownload(w, doc, prefix+"-"+strconv.FormatInt(id, 10)+".pdf")
}

func ticketPath(id int64) string {
	return ticketsPath + "/" + strconv.FormatInt(id, 10)
}
