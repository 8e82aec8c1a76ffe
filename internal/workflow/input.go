package workflow

import (
	"regexp"
	"strconv"
	"strings"

	"tesig/console/internal/gateway"
)

const (
	FieldTechnician   = "tecnicoId"
	FieldDiagnosis    = "diagnostico"
	FieldLabor        = "presupuestoManoObra"
	FieldParts        = "presupuestoPiezas"
	FieldTimeEstimate = "tiempoEstimado"
	FieldRejection    = "motivoRechazo"
	FieldTestResult   = "resultadoPruebas"
	FieldReceiver     = "nombreQuienRecibe"
	FieldCancellation = "motivoCancelacion"

	maxEstimateDays = 365
)

// Input is the shared action form. Only the fields of the action being
// submitted are read.
type Input struct {
	TechnicianID         string
	Diagnosis            string
	LaborEstimate        string
	PartsEstimate        string
	TimeEstimate         string
	RejectionReason      string
	TestResult           string
	TestsPassed          bool
	ReceiverName         string
	ReceiverRelationship string
	CancellationReason   string
	Notes                string
}

type FieldErrors map[string]string

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

var leadingDays = regexp.MustCompile(`^\s*(\d+)`)

// Validate checks the fields the action requires without building a request.
func Validate(action Action, in Input) FieldErrors {
	_, errs := prepare(action, in)
	return errs
}

func prepare(action Action, in Input) (any, FieldErrors) {
	errs := FieldErrors{}
	switch action {
	case ActionAssignTechnician:
		id, ok := parseID(in.TechnicianID)
		if !ok {
			errs[FieldTechnician] = "Selecciona un técnico"
		}
		return gateway.AssignTechnicianRequest{TecnicoID: id}, errs

	case ActionRecordDiagnosis:
		diagnosis := strings.TrimSpace(in.Diagnosis)
		if diagnosis == "" {
			errs[FieldDiagnosis] = "El diagnóstico es obligatorio"
		}
		labor, ok := parseAmount(in.LaborEstimate)
		if !ok {
			errs[FieldLabor] = "Ingresa un monto válido de mano de obra"
		}
		parts, ok := parseAmount(in.PartsEstimate)
		if !ok {
			errs[FieldParts] = "Ingresa un monto válido de piezas"
		}
		days, ok := parseDays(in.TimeEstimate)
		if !ok {
			errs[FieldTimeEstimate] = "Indica el tiempo estimado en días (1 a 365)"
		}
		return gateway.DiagnosisRequest{
			Diagnostico:         diagnosis,
			PresupuestoManoObra: labor,
			PresupuestoPiezas:   parts,
			TiempoEstimadoDias:  days,
		}, errs

	case ActionRejectBudget:
		reason := strings.TrimSpace(in.RejectionReason)
		if reason == "" {
			errs[FieldRejection] = "El motivo del rechazo es obligatorio"
		}
		return gateway.RejectBudgetRequest{MotivoRechazo: reason}, errs

	case ActionStartRepair:
		return gateway.StartRepairRequest{Observaciones: strings.TrimSpace(in.Notes)}, errs

	case ActionRecordTests:
		result := strings.TrimSpace(in.TestResult)
		if result == "" {
			errs[FieldTestResult] = "El resultado de las pruebas es obligatorio"
		}
		return gateway.TestResultRequest{ResultadoPruebas: result, Exitoso: in.TestsPassed}, errs

	case ActionDeliver:
		receiver := strings.TrimSpace(in.ReceiverName)
		if receiver == "" {
			errs[FieldReceiver] = "Indica quién recibe el equipo"
		}
		relationship := strings.TrimSpace(in.ReceiverRelationship)
		return gateway.DeliveryRequest{
			NombreQuienRecibe:    receiver,
			ParentescoRecibe:     relationship,
			ObservacionesEntrega: deliveryNotes(receiver, relationship, strings.TrimSpace(in.Notes)),
		}, errs

	case ActionCancel:
		reason := strings.TrimSpace(in.CancellationReason)
		if reason == "" {
			errs[FieldCancellation] = "El motivo de cancelación es obligatorio"
		}
		return gateway.CancelRequest{MotivoCancelacion: reason}, errs

	default:
		return nil, errs
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// parseDays reads the leading day count of free text such as "3 días".
func parseDays(raw string) (int, bool) {
	match := leadingDays.FindStringSubmatch(raw)
	if match == nil {
		return 0, false
	}
	days, err := strconv.Atoi(match[1])
	if err != nil || days < 1 || days > maxEstimateDays {
		return 0, false
	}
	return days, true
}

func deliveryNotes(receiver, relationship, notes string) string {
	if receiver == "" {
		return notes
	}
	text := "Recibido por: " + receiver
	if relationship != "" {
		text += " (" + relationship + ")"
	}
	if notes != "" {
		text += ". " + notes
	}
	return text
}
