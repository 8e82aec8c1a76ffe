package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

type TicketState string

const (
	StateReceived    TicketState = "INGRESADO"
	StateAssigned    TicketState = "ASIGNADO"
	StateDiagnosing  TicketState = "EN_DIAGNOSTICO"
	StateQuoted      TicketState = "PRESUPUESTADO"
	StateApproved    TicketState = "APROBADO"
	StateRejected    TicketState = "RECHAZADO"
	StateRepairing   TicketState = "EN_REPARACION"
	StateTesting     TicketState = "EN_PRUEBAS"
	StateReadyPickup TicketState = "LISTO_ENTREGA"
	StateDelivered   TicketState = "ENTREGADO"
	StateCancelled   TicketState = "CANCELADO"
)

var ticketStates = []TicketState{
	StateReceived,
	StateAssigned,
	StateDiagnosing,
	StateQuoted,
	StateApproved,
	StateRejected,
	StateRepairing,
	StateTesting,
	StateReadyPickup,
	StateDelivered,
	StateCancelled,
}

// AllTicketStates returns the lifecycle states in order.
func AllTicketStates() []TicketState {
	out := make([]TicketState, len(ticketStates))
	copy(out, ticketStates)
	return out
}

func (s TicketState) Valid() bool {
	for _, state := range ticketStates {
		if s == state {
			return true
		}
	}
	return false
}

func (s TicketState) Terminal() bool {
	return s == StateDelivered || s == StateCancelled
}

func (s TicketState) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// UnmarshalJSON accepts the bare state code as well as the
// {"codigo","nombre","descripcion"} object some endpoints return.
func (s *TicketState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Codigo string `json:"codigo"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*s = TicketState(obj.Codigo)
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*s = TicketState(code)
	return nil
}

var ticketNumberPattern = regexp.MustCompile(`^TKT-\d{8}-\d{4}$`)

func ValidTicketNumber(value string) bool {
	return ticketNumberPattern.MatchString(value)
}

type Ticket struct {
	ID                      int64           `json:"id"`
	NumeroTicket            string          `json:"numeroTicket"`
	TipoEquipo              string          `json:"tipoEquipo"`
	Marca                   string          `json:"marca"`
	Modelo                  string          `json:"modelo,omitempty"`
	NumeroSerie             string          `json:"numeroSerie,omitempty"`
	FallaReportada          string          `json:"fallaReportada"`
	Accesorios              string          `json:"accesorios,omitempty"`
	Estado                  TicketState     `json:"estado"`
	Diagnostico             string          `json:"diagnostico,omitempty"`
	PresupuestoManoObra     *float64        `json:"presupuestoManoObra,omitempty"`
	PresupuestoPiezas       *float64        `json:"presupuestoPiezas,omitempty"`
	PresupuestoTotal        *float64        `json:"presupuestoTotal,omitempty"`
	TiempoEstimadoDias      *int            `json:"tiempoEstimadoDias,omitempty"`
	FechaPresupuesto        string          `json:"fechaPresupuesto,omitempty"`
	FechaRespuestaCliente   string          `json:"fechaRespuestaCliente,omitempty"`
	MotivoRechazo           string          `json:"motivoRechazo,omitempty"`
	MotivoCancelacion       string          `json:"motivoCancelacion,omitempty"`
	ObservacionesReparacion string          `json:"observacionesReparacion,omitempty"`
	FechaInicioReparacion   string          `json:"fechaInicioReparacion,omitempty"`
	FechaFinReparacion      string          `json:"fechaFinReparacion,omitempty"`
	ResultadoPruebas        string          `json:"resultadoPruebas,omitempty"`
	FechaEntrega            string          `json:"fechaEntrega,omitempty"`
	ObservacionesEntrega    string          `json:"observacionesEntrega,omitempty"`
	Cliente                 CustomerSummary `json:"cliente"`
	TecnicoAsignado         *UserSummary    `json:"tecnicoAsignado,omitempty"`
	UsuarioIngreso          *UserSummary    `json:"usuarioIngreso,omitempty"`
	PiezasUtilizadas        []TicketPart    `json:"piezasUtilizadas,omitempty"`
	CreatedAt               string          `json:"createdAt,omitempty"`
	UpdatedAt               string          `json:"updatedAt,omitempty"`
}

type TicketPart struct {
	ID              int64   `json:"id"`
	PiezaID         int64   `json:"piezaId"`
	PiezaCodigo     string  `json:"piezaCodigo"`
	PiezaNombre     string  `json:"piezaNombre"`
	Cantidad        int     `json:"cantidad"`
	PrecioUnitario  float64 `json:"precioUnitario"`
	Subtotal        float64 `json:"subtotal"`
	StockDescontado bool    `json:"stockDescontado"`
}

type TicketInput struct {
	ClienteID      int64  `json:"clienteId"`
	TipoEquipo     string `json:"tipoEquipo"`
	Marca          string `json:"marca"`
	Modelo         string `json:"modelo,omitempty"`
	NumeroSerie    string `json:"numeroSerie,omitempty"`
	FallaReportada string `json:"fallaReportada"`
	Accesorios     string `json:"accesorios,omitempty"`
}

type TicketPartInput struct {
	PiezaID        int64    `json:"piezaId"`
	Cantidad       int      `json:"cantidad"`
	PrecioUnitario *float64 `json:"precioUnitario,omitempty"`
	Notas          string   `json:"notas,omitempty"`
}

// PublicTicket is the reduced view returned by the unauthenticated lookup.
type PublicTicket struct {
	NumeroTicket          string          `json:"numeroTicket"`
	TipoEquipo            string          `json:"tipoEquipo"`
	Marca                 string          `json:"marca"`
	Modelo                string          `json:"modelo,omitempty"`
	FallaReportada        string          `json:"fallaReportada"`
	Estado                TicketState     `json:"estado"`
	Cliente               CustomerSummary `json:"cliente"`
	FechaIngreso          string          `json:"fechaIngreso,omitempty"`
	FechaPresupuesto      string          `json:"fechaPresupuesto,omitempty"`
	FechaInicioReparacion string          `json:"fechaInicioReparacion,omitempty"`
	FechaFinReparacion    string          `json:"fechaFinReparacion,omitempty"`
	FechaEntrega          string          `json:"fechaEntrega,omitempty"`
	PresupuestoTotal      *float64        `json:"presupuestoTotal,omitempty"`
	TiempoEstimadoDias    *int            `json:"tiempoEstimadoDias,omitempty"`
	Diagnostico           string          `json:"diagnostico,omitempty"`
	ObservacionesEntrega  string          `json:"observacionesEntrega,omitempty"`
}
