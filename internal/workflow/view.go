package workflow

import "tesig/console/internal/models"

type ActionView struct {
	Action    Action
	Label     string
	NeedsForm bool
	Danger    bool
}

// View is what the ticket detail screen needs to draw the workflow panel.
type View struct {
	Ticket   models.Ticket
	Actions  []ActionView
	Terminal bool
}

func NewView(ticket models.Ticket, role models.Role) View {
	view := View{Ticket: ticket, Terminal: ticket.Estado.Terminal()}
	for _, action := range Permitted(ticket.Estado, role) {
		view.Actions = append(view.Actions, ActionView{
			Action:    action,
			Label:     action.Label(),
			NeedsForm: action.NeedsForm(),
			Danger:    action == ActionCancel || action == ActionRejectBudget,
		})
	}
	return view
}

// BadgeClass maps a state to the CSS class of its status badge.
func BadgeClass(state models.TicketState) string {
	switch state {
	case models.StateReceived, models.StateAssigned:
		return "badge-info"
	case models.StateDiagnosing, models.StateQuoted:
		return "badge-warning"
	case models.StateApproved, models.StateRepairing, models.StateTesting:
		return "badge-primary"
	case models.StateReadyPickup, models.StateDelivered:
		return "badge-success"
	case models.StateRejected, models.StateCancelled:
		return "badge-danger"
	default:
		return "badge-secondary"
	}
}
