package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tesig/console/internal/models"
)

type AssignTechnicianRequest struct {
	TecnicoID int64 `json:"tecnicoId"`
}

type DiagnosisRequest struct {
	Diagnostico         string  `json:"diagnostico"`
	PresupuestoManoObra float64 `json:"presupuestoManoObra"`
	PresupuestoPiezas   float64 `json:"presupuestoPiezas"`
	TiempoEstimadoDias  int     `json:"tiempoEstimadoDias"`
}

type RejectBudgetRequest struct {
	MotivoRechazo string `json:"motivoRechazo"`
}

type StartRepairRequest struct {
	Observaciones string `json:"observaciones,omitempty"`
}

type TestResultRequest struct {
	ResultadoPruebas string `json:"resultadoPruebas"`
	Exitoso          bool   `json:"exitoso"`
}

type DeliveryRequest struct {
	NombreQuienRecibe    string `json:"nombreQuienRecibe"`
	ParentescoRecibe     string `json:"parentescoRecibe,omitempty"`
	ObservacionesEntrega string `json:"observacionesEntrega,omitempty"`
}

type CancelRequest struct {
	MotivoCancelacion string `json:"motivoCancelacion"`
}

func (c *Client) ListTickets(ctx context.Context, token string, page PageRequest) (models.Page[models.Ticket], error) {
	var out models.Page[models.Ticket]
	err := c.do(ctx, "tickets.list", http.MethodGet, "/tickets", page.values(), token, nil, &out)
	return out, err
}

func (c *Client) GetTicket(ctx context.Context, token string, id int64) (models.Ticket, error) {
	var out models.Ticket
	err := c.do(ctx, "tickets.get", http.MethodGet, idPath("/tickets", id), nil, token, nil, &out)
	return out, err
}

func (c *Client) TicketByNumber(ctx context.Context, token, numero string) (models.Ticket, error) {
	var out models.Ticket
	err := c.do(ctx, "tickets.by_number", http.MethodGet, "/tickets/numero/"+url.PathEscape(numero), nil, token, nil, &out)
	return out, err
}

func (c *Client) TicketsByCustomer(ctx context.Context, token string, customerID int64, page PageRequest) (models.Page[models.Ticket], error) {
	var out models.Page[models.Ticket]
	err := c.do(ctx, "tickets.by_customer", http.MethodGet, idPath("/tickets/cliente", customerID), page.values(), token, nil, &out)
	return out, err
}

func (c *Client) TicketsByTechnician(ctx context.Context, token string, technicianID int64, page PageRequest) (models.Page[models.Ticket], error) {
	var out models.Page[models.Ticket]
	err := c.do(ctx, "tickets.by_technician", http.MethodGet, idPath("/tickets/tecnico", technicianID), page.values(), token, nil, &out)
	return out, err
}

func (c *Client) TicketsByState(ctx context.Context, token string, state models.TicketState, page PageRequest) (models.Page[models.Ticket], error) {
	var out models.Page[models.Ticket]
	err := c.do(ctx, "tickets.by_state", http.MethodGet, "/tickets/estado/"+url.PathEscape(string(state)), page.values(), token, nil, &out)
	return out, err
}

func (c *Client) CreateTicket(ctx context.Context, token string, input models.TicketInput) (models.Ticket, error) {
	var out models.Ticket
	err := c.do(ctx, "tickets.create", http.MethodPost, "/tickets", nil, token, input, &out)
	return out, err
}

func (c *Client) transition(ctx context.Context, token string, id int64, segment string, body any) (models.Ticket, error) {
	if body == nil {
		body = struct{}{}
	}
	var out models.Ticket
	err := c.do(ctx, "tickets."+segment, http.MethodPost, idPath("/tickets", id, segment), nil, token, body, &out)
	return out, err
}

func (c *Client) AssignTechnician(ctx context.Context, token string, id int64, req AssignTechnicianRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "asignar-tecnico", req)
}

func (c *Client) RecordDiagnosis(ctx context.Context, token string, id int64, req DiagnosisRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "diagnostico", req)
}

func (c *Client) ApproveBudget(ctx context.Context, token string, id int64) (models.Ticket, error) {
	return c.transition(ctx, token, id, "aprobar-presupuesto", nil)
}

func (c *Client) RejectBudget(ctx context.Context, token string, id int64, req RejectBudgetRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "rechazar-presupuesto", req)
}

func (c *Client) StartRepair(ctx context.Context, token string, id int64, req StartRepairRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "iniciar-reparacion", req)
}

func (c *Client) RecordTests(ctx context.Context, token string, id int64, req TestResultRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "pruebas", req)
}

func (c *Client) MarkReady(ctx context.Context, token string, id int64) (models.Ticket, error) {
	return c.transition(ctx, token, id, "listo-entrega", nil)
}

func (c *Client) Deliver(ctx context.Context, token string, id int64, req DeliveryRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "entregar", req)
}

func (c *Client) Cancel(ctx context.Context, token string, id int64, req CancelRequest) (models.Ticket, error) {
	return c.transition(ctx, token, id, "cancelar", req)
}

func (c *Client) TicketParts(ctx context.Context, token string, ticketID int64) ([]models.TicketPart, error) {
	var out []models.TicketPart
	err := c.do(ctx, "tickets.parts", http.MethodGet, idPath("/tickets", ticketID, "piezas"), nil, token, nil, &out)
	return out, err
}

func (c *Client) AddTicketPart(ctx context.Context, token string, ticketID int64, input models.TicketPartInput) (models.TicketPart, error) {
	var out models.TicketPart
	err := c.do(ctx, "tickets.parts_add", http.MethodPost, idPath("/tickets", ticketID, "piezas"), nil, token, input, &out)
	return out, err
}

func (c *Client) RemoveTicketPart(ctx context.Context, token string, ticketID, ticketPartID int64) error {
	path := idPath("/tickets", ticketID, "piezas", strconv.FormatInt(ticketPartID, 10))
	return c.do(ctx, "tickets.parts_remove", http.MethodDelete, path, nil, token, nil, nil)
}

func (c *Client) UpdateTicketPartQuantity(ctx context.Context, token string, ticketID, ticketPartID int64, cantidad int) (models.TicketPart, error) {
	path := idPath("/tickets", ticketID, "piezas", strconv.FormatInt(ticketPartID, 10), "cantidad")
	query := url.Values{}
	query.Set("cantidad", strconv.Itoa(cantidad))
	var out models.TicketPart
	err := c.do(ctx, "tickets.parts_quantity", http.MethodPut, path, query, token, nil, &out)
	return out, err
}

func (c *Client) TicketPDF(ctx context.Context, token string, id int64) (Download, error) {
	return c.download(ctx, "tickets.pdf", idPath("/tickets", id, "pdf"), token)
}

func (c *Client) BudgetPDF(ctx context.Context, token string, id int64) (Download, error) {
	return c.download(ctx, "tickets.budget_pdf", idPath("/tickets", id, "presupuesto-pdf"), token)
}
