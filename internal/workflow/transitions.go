package workflow

import "tesig/console/internal/models"

type Action string

const (
	ActionAssignTechnician Action = "assign-technician"
	ActionRecordDiagnosis  Action = "record-diagnosis"
	ActionApproveBudget    Action = "approve-budget"
	ActionRejectBudget     Action = "reject-budget"
	ActionStartRepair      Action = "start-repair"
	ActionRecordTests      Action = "record-tests"
	ActionMarkReady        Action = "mark-ready"
	ActionDeliver          Action = "deliver"
	ActionCancel           Action = "cancel"
)

var (
	frontOffice = []models.Role{models.RoleAdmin, models.RoleFrontDesk}
	bench       = []models.Role{models.RoleTechnician}
	adminOnly   = []models.Role{models.RoleAdmin}
)

type rule struct {
	action Action
	from   func(models.TicketState) bool
	roles  []models.Role
}

// rules is the whole ticket state machine as seen from the console. Order
// is the order actions are offered in.
var rules = []rule{
	{ActionAssignTechnician, is(models.StateReceived), frontOffice},
	{ActionRecordDiagnosis, is(models.StateAssigned), bench},
	{ActionApproveBudget, is(models.StateQuoted), frontOffice},
	{ActionRejectBudget, is(models.StateQuoted), frontOffice},
	{ActionStartRepair, is(models.StateApproved), bench},
	{ActionRecordTests, is(models.StateRepairing), bench},
	{ActionMarkReady, is(models.StateTesting), bench},
	{ActionDeliver, is(models.StateReadyPickup), frontOffice},
	{ActionCancel, open, adminOnly},
}

func is(state models.TicketState) func(models.TicketState) bool {
	return func(current models.TicketState) bool {
		return current == state
	}
}

func open(current models.TicketState) bool {
	return current.Valid() && !current.Terminal()
}

// Permitted returns the actions role may take on a ticket in state.
func Permitted(state models.TicketState, role models.Role) []Action {
	var actions []Action
	for _, r := range rules {
		if r.from(state) && hasRole(r.roles, role) {
			actions = append(actions, r.action)
		}
	}
	return actions
}

func Allowed(state models.TicketState, role models.Role, action Action) bool {
	for _, r := range rules {
		if r.action == action && r.from(state) && hasRole(r.roles, role) {
			return true
		}
	}
	return false
}

func hasRole(roles []models.Role, role models.Role) bool {
	return models.User{Rol: role}.HasAnyRole(roles...)
}

func ParseAction(value string) (Action, bool) {
	action := Action(value)
	for _, r := range rules {
		if r.action == action {
			return action, true
		}
	}
	return "", false
}

func (a Action) Label() string {
	switch a {
	case ActionAssignTechnician:
		return "Asignar técnico"
	case ActionRecordDiagnosis:
		return "Registrar diagnóstico"
	case ActionApproveBudget:
		return "Aprobar presupuesto"
	case ActionRejectBudget:
		return "Rechazar presupuesto"
	case ActionStartRepair:
		return "Iniciar reparación"
	case ActionRecordTests:
		return "Registrar pruebas"
	case ActionMarkReady:
		return "Marcar listo para entrega"
	case ActionDeliver:
		return "Registrar entrega"
	case ActionCancel:
		return "Cancelar ticket"
	default:
		return string(a)
	}
}

// NeedsForm reports whether the action collects input before submitting.
func (a Action) NeedsForm() bool {
	switch a {
	case ActionApproveBudget, ActionStartRepair, ActionMarkReady:
		return false
	default:
		return true
	}
}

func (a Action) successMessage() string {
	switch a {
	case ActionAssignTechnician:
		return "Técnico asignado correctamente"
	case ActionRecordDiagnosis:
		return "Diagnóstico registrado correctamente"
	case ActionApproveBudget:
		return "Presupuesto aprobado"
	case ActionRejectBudget:
		return "Presupuesto rechazado"
	case ActionStartRepair:
		return "Reparación iniciada"
	case ActionRecordTests:
		return "Resultado de pruebas registrado"
	case ActionMarkReady:
		return "Ticket listo para entrega"
	case ActionDeliver:
		return "Entrega registrada correctamente"
	case ActionCancel:
		return "Ticket cancelado"
	default:
		return "Operación realizada"
	}
}
