package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/workflow"
)

const customersPath = "/clientes"

type customerListView struct {
	baseView
	Page    models.Page[models.Customer]
	Query   string
	PrevURL string
	NextURL string
}

type customerFormView struct {
	baseView
	ID      int64
	Action  string
	Input   models.CustomerInput
	Errors  workflow.FieldErrors
	Message string
}

type customerDetailView struct {
	baseView
	Customer models.Customer
	Tickets  *models.Page[models.Ticket]
	Notice   string
}

func (h *Handler) handleCustomerList(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		page models.Page[models.Customer]
		err  error
	)
	switch {
	case strings.Contains(query, "@"):
		page, err = h.customerByEmail(r, strings.ToLower(query))
	case query != "":
		page, err = h.api.SearchCustomersByName(r.Context(), s.Token, query, h.page(r))
	default:
		page, err = h.api.ListCustomers(r.Context(), s.Token, h.page(r))
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	view := &customerListView{baseView: baseView{Title: "Clientes"}, Page: page, Query: query}
	if page.HasPrevious() {
		view.PrevURL = pageLink(r, page.PreviousPage())
	}
	if page.HasNext() {
		view.NextURL = pageLink(r, page.NextPage())
	}
	h.render(w, r, http.StatusOK, "customers", view)
}

// customerByEmail wraps the exact email match as a one-row page. An unknown
// address is an empty result, not an error.
func (h *Handler) customerByEmail(r *http.Request, email string) (models.Page[models.Customer], error) {
	page := models.Page[models.Customer]{First: true, Last: true}
	customer, err := h.api.FindCustomerByEmail(r.Context(), current(r).Token, email)
	if err != nil {
		if gateway.IsNotFound(err) {
			return page, nil
		}
		return page, err
	}
	page.Content = []models.Customer{customer}
	page.TotalElements, page.TotalPages = 1, 1
	return page, nil
}

func (h *Handler) handleCustomerNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "customer_form", &customerFormView{
		baseView: baseView{Title: "Nuevo cliente"},
		Action:   customersPath + "/nuevo",
	})
}

func (h *Handler) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &customerFormView{
		baseView: baseView{Title: "Nuevo cliente"},
		Action:   customersPath + "/nuevo",
		Input:    customerInputFromForm(r.PostForm),
	}
	if view.Errors = validateCustomer(view.Input); !view.Errors.Empty() {
		h.render(w, r, http.StatusBadRequest, "customer_form", view)
		return
	}

	created, err := h.api.CreateCustomer(r.Context(), current(r).Token, view.Input)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		view.Message = gateway.Message(err)
		h.render(w, r, errorStatus(err), "customer_form", view)
		return
	}
	setFlash(w, flashSuccess, "Cliente creado exitosamente")
	http.Redirect(w, r, customerPath(created.ID), http.StatusSeeOther)
}

func (h *Handler) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, customersPath)
		return
	}
	s := current(r)
	customer, err := h.api.GetCustomer(r.Context(), s.Token, id)
	if err != nil {
		h.fail(w, r, err, customersPath)
		return
	}

	view := &customerDetailView{baseView: baseView{Title: customer.NombreCompleto}, Customer: customer}
	if s.HasAnyRole(frontOffice...) {
		tickets, err := h.api.TicketsByCustomer(r.Context(), s.Token, id, h.page(r))
		if err != nil {
			if h.intercept(w, r, err) {
				return
			}
			view.Notice = gateway.Message(err)
		} else {
			view.Tickets = &tickets
		}
	}
	h.render(w, r, http.StatusOK, "customer_detail", view)
}

func (h *Handler) handleCustomerEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, customersPath)
		return
	}
	customer, err := h.api.GetCustomer(r.Context(), current(r).Token, id)
	if err != nil {
		h.fail(w, r, err, customersPath)
		return
	}
	h.render(w, r, http.StatusOK, "customer_form", &customerFormView{
		baseView: baseView{Title: "Editar cliente"},
		ID:       id,
		Action:   customerPath(id) + "/editar",
		Input: models.CustomerInput{
			Nombre:    customer.Nombre,
			Apellido:  customer.Apellido,
			Email:     customer.Email,
			Telefono:  customer.Telefono,
			Direccion: customer.Direccion,
		},
	})
}

func (h *Handler) handleCustomerUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, customersPath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &customerFormView{
		baseView: baseView{Title: "Editar cliente"},
		ID:       id,
		Action:   customerPath(id) + "/editar",
		Input:    customerInputFromForm(r.PostForm),
	}
	if view.Errors = validateCustomer(view.Input); !view.Errors.Empty() {
		h.render(w, r, http.StatusBadRequest, "customer_form", view)
		return
	}

	if _, err := h.api.UpdateCustomer(r.Context(), current(r).Token, id, view.Input); err != nil {
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, customersPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		view.Message = gateway.Message(err)
		h.render(w, r, errorStatus(err), "customer_form", view)
		return
	}
	setFlash(w, flashSuccess, "Cliente actualizado exitosamente")
	http.Redirect(w, r, customerPath(id), http.StatusSeeOther)
}

func (h *Handler) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, customersPath)
		return
	}
	if err := h.api.DeleteCustomer(r.Context(), current(r).Token, id); err != nil {
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, customersPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		setFlash(w, flashError, gateway.Message(err))
		http.Redirect(w, r, customerPath(id), http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Cliente eliminado exitosamente")
	http.Redirect(w, r, customersPath, http.StatusSeeOther)
}

func customerPath(id int64) string {
	return customersPath + "/" + strconv.FormatInt(id, 10)
}

// notFound handles a malformed id in the path the same way the API's 404
// would be handled.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, fallback string) {
	setFlash(w, flashError, gateway.MessageNotFound)
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}
