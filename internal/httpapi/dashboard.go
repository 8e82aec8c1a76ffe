package httpapi

import (
	"net/http"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
)

type stateCount struct {
	State models.TicketState
	Count int64
}

type dashboardView struct {
	baseView
	Counts []stateCount
	Mine   []models.Ticket
	Notice string
}

// handleDashboard greets the user. Front-office roles see how many tickets
// sit in each open state; technicians see the tickets assigned to them.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	view := &dashboardView{baseView: baseView{Title: "Inicio"}}

	if s.HasRole(models.RoleTechnician) {
		page, err := h.api.TicketsByTechnician(r.Context(), s.Token, s.User.ID, gateway.PageRequest{Size: h.pageSize})
		if err != nil {
			if h.intercept(w, r, err) {
				return
			}
			view.Notice = gateway.Message(err)
		}
		for _, t := range page.Content {
			if !t.Estado.Terminal() {
				view.Mine = append(view.Mine, t)
			}
		}
		h.render(w, r, http.StatusOK, "dashboard", view)
		return
	}

	for _, state := range models.AllTicketStates() {
		if state.Terminal() {
			continue
		}
		page, err := h.api.TicketsByState(r.Context(), s.Token, state, gateway.PageRequest{Size: 1})
		if err != nil {
			if h.intercept(w, r, err) {
				return
			}
			view.Notice = gateway.Message(err)
			break
		}
		view.Counts = append(view.Counts, stateCount{State: state, Count: page.TotalElements})
	}
	h.render(w, r, http.StatusOK, "dashboard", view)
}
