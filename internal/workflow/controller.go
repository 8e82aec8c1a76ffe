package workflow

import (
	"context"
	"errors"
	"fmt"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNotPermitted = errors.New("action not permitted for ticket state and role")
	ErrInvalidInput = errors.New("action input is incomplete")
)

// Transitioner is the part of the API client the workflow drives.
type Transitioner interface {
	GetTicket(ctx context.Context, token string, id int64) (models.Ticket, error)
	AssignTechnician(ctx context.Context, token string, id int64, req gateway.AssignTechnicianRequest) (models.Ticket, error)
	RecordDiagnosis(ctx context.Context, token string, id int64, req gateway.DiagnosisRequest) (models.Ticket, error)
	ApproveBudget(ctx context.Context, token string, id int64) (models.Ticket, error)
	RejectBudget(ctx context.Context, token string, id int64, req gateway.RejectBudgetRequest) (models.Ticket, error)
	StartRepair(ctx context.Context, token string, id int64, req gateway.StartRepairRequest) (models.Ticket, error)
	RecordTests(ctx context.Context, token string, id int64, req gateway.TestResultRequest) (models.Ticket, error)
	MarkReady(ctx context.Context, token string, id int64) (models.Ticket, error)
	Deliver(ctx context.Context, token string, id int64, req gateway.DeliveryRequest) (models.Ticket, error)
	Cancel(ctx context.Context, token string, id int64, req gateway.CancelRequest) (models.Ticket, error)
}

type Controller struct {
	api    Transitioner
	logger *zap.Logger
}

func NewController(api Transitioner, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{api: api, logger: logger}
}

// Result is the outcome of one submission. On success Ticket holds the
// reloaded ticket; otherwise it is the ticket as it was before.
type Result struct {
	Ticket      models.Ticket
	Message     string
	FieldErrors FieldErrors
	Err         error
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (c *Controller) Submit(ctx context.Context, token string, ticket models.Ticket, role models.Role, action Action, in Input) Result {
	if !Allowed(ticket.Estado, role, action) {
		return Result{Ticket: ticket, Message: gateway.MessageForbidden, Err: ErrNotPermitted}
	}

	payload, errs := prepare(action, in)
	if !errs.Empty() {
		return Result{Ticket: ticket, Message: "Revisa los campos marcados", FieldErrors: errs, Err: ErrInvalidInput}
	}

	updated, err := c.send(ctx, token, ticket.ID, action, payload)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Info("ticket transition failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.String("action", string(action)),
				zap.String("state", string(ticket.Estado)),
				zap.Error(err))
		}
		return Result{Ticket: ticket, Message: gateway.Message(err), Err: err}
	}

	reloaded, err := c.api.GetTicket(ctx, token, ticket.ID)
	if err != nil {
		c.logger.Warn("ticket reload after transition failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		if updated.ID == 0 {
			updated = ticket
		}
		reloaded = updated
	}

	c.logger.Info("ticket transition",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("action", string(action)),
		zap.String("from", string(ticket.Estado)),
		zap.String("to", string(reloaded.Estado)))
	return Result{Ticket: reloaded, Message: action.successMessage()}
}

func (c *Controller) send(ctx context.Context, token string, id int64, action Action, payload any) (models.Ticket, error) {
	switch req := payload.(type) {
	case gateway.AssignTechnicianRequest:
		return c.api.AssignTechnician(ctx, token, id, req)
	case gateway.DiagnosisRequest:
		return c.api.RecordDiagnosis(ctx, token, id, req)
	case gateway.RejectBudgetRequest:
		return c.api.RejectBudget(ctx, token, id, req)
	case gateway.StartRepairRequest:
		return c.api.StartRepair(ctx, token, id, req)
	case gateway.TestResultRequest:
		return c.api.RecordTests(ctx, token, id, req)
	case gateway.DeliveryRequest:
		return c.api.Deliver(ctx, token, id, req)
	case gateway.CancelRequest:
		return c.api.Cancel(ctx, token, id, req)
	}
	switch action {
	case ActionApproveBudget:
		return c.api.ApproveBudget(ctx, token, id)
	case ActionMarkReady:
		return c.api.MarkReady(ctx, token, id)
	}
	return models.Ticket{}, fmt.Errorf("no endpoint for action %q", action)
}
