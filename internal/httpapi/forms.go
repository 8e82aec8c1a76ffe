package httpapi

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"tesig/console/internal/models"
	"tesig/console/internal/workflow"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\d{4}-\d{4}$`)
	partCodePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)
)

func field(form url.Values, name string) string {
	return strings.TrimSpace(form.Get(name))
}

func length(value string) int {
	return utf8.RuneCountInString(value)
}

func checked(form url.Values, name string) bool {
	switch form.Get(name) {
	case "on", "true", "1":
		return true
	}
	return false
}

func customerInputFromForm(form url.Values) models.CustomerInput {
	return models.CustomerInput{
		Nombre:    field(form, "nombre"),
		Apellido:  field(form, "apellido"),
		Email:     strings.ToLower(field(form, "email")),
		Telefono:  field(form, "telefono"),
		Direccion: field(form, "direccion"),
	}
}

func validateCustomer(in models.CustomerInput) workflow.FieldErrors {
	errs := workflow.FieldErrors{}
	if n := length(in.Nombre); n < 2 || n > 100 {
		errs["nombre"] = "El nombre debe tener entre 2 y 100 caracteres"
	}
	if n := length(in.Apellido); n < 2 || n > 100 {
		errs["apellido"] = "El apellido debe tener entre 2 y 100 caracteres"
	}
	switch {
	case in.Email == "":
		errs["email"] = "El email es obligatorio"
	case !emailPattern.MatchString(in.Email) || length(in.Email) > 100:
		errs["email"] = "El email no es válido"
	}
	if !phonePattern.MatchString(in.Telefono) {
		errs["telefono"] = "El teléfono debe tener el formato 0000-0000"
	}
	if length(in.Direccion) > 200 {
		errs["direccion"] = "La dirección no puede exceder 200 caracteres"
	}
	return errs
}

// partForm keeps the raw numeric text so a rejected form is redrawn with
// what the user typed.
type partForm struct {
	Input       models.PartInput
	PrecioCosto string
	PrecioVenta string
	Stock       string
	StockMinimo string
}

func partFormFromPart(p models.Part) partForm {
	return partForm{
		Input: models.PartInput{
			Codigo:            p.Codigo,
			Nombre:            p.Nombre,
			Descripcion:       p.Descripcion,
			Categoria:         p.Categoria,
			Marca:             p.Marca,
			Modelo:            p.Modelo,
			Compatibilidad:    p.Compatibilidad,
			PrecioCosto:       p.PrecioCosto,
			PrecioVenta:       p.PrecioVenta,
			Stock:             p.Stock,
			StockMinimo:       p.StockMinimo,
			Ubicacion:         p.Ubicacion,
			Proveedor:         p.Proveedor,
			ProveedorTelefono: p.ProveedorTelefono,
			ProveedorEmail:    p.ProveedorEmail,
			Notas:             p.Notas,
			Activo:            p.Activo,
		},
		PrecioCosto: strconv.FormatFloat(p.PrecioCosto, 'f', 2, 64),
		PrecioVenta: strconv.FormatFloat(p.PrecioVenta, 'f', 2, 64),
		Stock:       strconv.Itoa(p.Stock),
		StockMinimo: strconv.Itoa(p.StockMinimo),
	}
}

func partFormFromValues(form url.Values) partForm {
	return partForm{
		Input: models.PartInput{
			Codigo:            strings.ToUpper(field(form, "codigo")),
			Nombre:            field(form, "nombre"),
			Descripcion:       field(form, "descripcion"),
			Categoria:         field(form, "categoria"),
			Marca:             field(form, "marca"),
			Modelo:            field(form, "modelo"),
			Compatibilidad:    field(form, "compatibilidad"),
			Ubicacion:         field(form, "ubicacion"),
			Proveedor:         field(form, "proveedor"),
			ProveedorTelefono: field(form, "proveedorTelefono"),
			ProveedorEmail:    field(form, "proveedorEmail"),
			Notas:             field(form, "notas"),
			Activo:            checked(form, "activo"),
		},
		PrecioCosto: field(form, "precioCosto"),
		PrecioVenta: field(form, "precioVenta"),
		Stock:       field(form, "stock"),
		StockMinimo: field(form, "stockMinimo"),
	}
}

// validatePart checks the form and fills the numeric fields of Input.
func validatePart(f *partForm) workflow.FieldErrors {
	errs := workflow.FieldErrors{}
	in := &f.Input
	switch {
	case in.Codigo == "":
		errs["codigo"] = "El código es obligatorio"
	case length(in.Codigo) > 50:
		errs["codigo"] = "El código no puede exceder 50 caracteres"
	case !partCodePattern.MatchString(in.Codigo):
		errs["codigo"] = "El código solo puede contener letras mayúsculas, números y guiones"
	}
	if n := length(in.Nombre); n == 0 || n > 100 {
		errs["nombre"] = "El nombre es obligatorio y no puede exceder 100 caracteres"
	}
	if n := length(in.Categoria); n == 0 || n > 50 {
		errs["categoria"] = "La categoría es obligatoria y no puede exceder 50 caracteres"
	}
	if in.ProveedorEmail != "" && !emailPattern.MatchString(in.ProveedorEmail) {
		errs["proveedorEmail"] = "El email del proveedor no es válido"
	}
	if v, ok := nonNegativeAmount(f.PrecioCosto); ok {
		in.PrecioCosto = v
	} else {
		errs["precioCosto"] = "El precio de costo debe ser un número mayor o igual a 0"
	}
	if v, ok := nonNegativeAmount(f.PrecioVenta); ok {
		in.PrecioVenta = v
	} else {
		errs["precioVenta"] = "El precio de venta debe ser un número mayor o igual a 0"
	}
	if v, ok := nonNegativeInt(f.Stock); ok {
		in.Stock = v
	} else {
		errs["stock"] = "El stock debe ser un entero mayor o igual a 0"
	}
	if v, ok := nonNegativeInt(f.StockMinimo); ok {
		in.StockMinimo = v
	} else {
		errs["stockMinimo"] = "El stock mínimo debe ser un entero mayor o igual a 0"
	}
	return errs
}

func stockAdjustmentFromForm(form url.Values) (models.StockAdjustment, workflow.FieldErrors) {
	adj := models.StockAdjustment{
		TipoMovimiento: strings.ToUpper(field(form, "tipoMovimiento")),
		Motivo:         field(form, "motivo"),
		Referencia:     field(form, "referencia"),
	}
	errs := workflow.FieldErrors{}
	if adj.TipoMovimiento != models.MovementIn && adj.TipoMovimiento != models.MovementOut {
		errs["tipoMovimiento"] = "El tipo de movimiento debe ser ENTRADA o SALIDA"
	}
	if v, ok := nonNegativeInt(field(form, "cantidad")); ok && v >= 1 {
		adj.Cantidad = v
	} else {
		errs["cantidad"] = "La cantidad debe ser al menos 1"
	}
	if n := length(adj.Motivo); n == 0 || n > 500 {
		errs["motivo"] = "El motivo es obligatorio y no puede exceder 500 caracteres"
	}
	if length(adj.Referencia) > 100 {
		errs["referencia"] = "La referencia no puede exceder 100 caracteres"
	}
	return adj, errs
}

// ticketForm carries the customer id as typed, next to the parsed input.
type ticketForm struct {
	Input     models.TicketInput
	ClienteID string
}

func ticketFormFromValues(form url.Values) ticketForm {
	return ticketForm{
		Input: models.TicketInput{
			TipoEquipo:     field(form, "tipoEquipo"),
			Marca:          field(form, "marca"),
			Modelo:         field(form, "modelo"),
			NumeroSerie:    field(form, "numeroSerie"),
			FallaReportada: field(form, "fallaReportada"),
			Accesorios:     field(form, "accesorios"),
		},
		ClienteID: field(form, "clienteId"),
	}
}

func validateTicket(f *ticketForm) workflow.FieldErrors {
	errs := workflow.FieldErrors{}
	if id, err := strconv.ParseInt(f.ClienteID, 10, 64); err == nil && id > 0 {
		f.Input.ClienteID = id
	} else {
		errs["clienteId"] = "Selecciona un cliente"
	}
	if n := length(f.Input.TipoEquipo); n < 2 || n > 50 {
		errs["tipoEquipo"] = "El tipo de equipo debe tener entre 2 y 50 caracteres"
	}
	if n := length(f.Input.Marca); n == 0 || n > 100 {
		errs["marca"] = "La marca es obligatoria"
	}
	if n := length(f.Input.FallaReportada); n < 10 || n > 1000 {
		errs["fallaReportada"] = "Describe la falla con entre 10 y 1000 caracteres"
	}
	if length(f.Input.Accesorios) > 500 {
		errs["accesorios"] = "Los accesorios no pueden exceder 500 caracteres"
	}
	return errs
}

func ticketPartFromForm(form url.Values) (models.TicketPartInput, workflow.FieldErrors) {
	in := models.TicketPartInput{Notas: field(form, "notas")}
	errs := workflow.FieldErrors{}
	if id, err := strconv.ParseInt(field(form, "piezaId"), 10, 64); err == nil && id > 0 {
		in.PiezaID = id
	} else {
		errs["piezaId"] = "Selecciona una pieza"
	}
	if v, ok := nonNegativeInt(field(form, "cantidad")); ok && v >= 1 {
		in.Cantidad = v
	} else {
		errs["cantidad"] = "La cantidad debe ser al menos 1"
	}
	if raw := field(form, "precioUnitario"); raw != "" {
		if v, ok := nonNegativeAmount(raw); ok && v > 0 {
			in.PrecioUnitario = &v
		} else {
			errs["precioUnitario"] = "El precio unitario debe ser mayor a 0"
		}
	}
	if length(in.Notas) > 500 {
		errs["notas"] = "Las notas no pueden exceder 500 caracteres"
	}
	return in, errs
}

func nonNegativeAmount(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func nonNegativeInt(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// actionInput reads the shared workflow form.
func actionInput(form url.Values) workflow.Input {
	return workflow.Input{
		TechnicianID:         field(form, workflow.FieldTechnician),
		Diagnosis:            field(form, workflow.FieldDiagnosis),
		LaborEstimate:        field(form, workflow.FieldLabor),
		PartsEstimate:        field(form, workflow.FieldParts),
		TimeEstimate:         field(form, workflow.FieldTimeEstimate),
		RejectionReason:      field(form, workflow.FieldRejection),
		TestResult:           field(form, workflow.FieldTestResult),
		TestsPassed:          testsPassed(form),
		ReceiverName:         field(form, workflow.FieldReceiver),
		ReceiverRelationship: field(form, "parentescoRecibe"),
		CancellationReason:   field(form, workflow.FieldCancellation),
		Notes:                field(form, "observaciones"),
	}
}

// testsPassed defaults to true. The form posts a hidden "false" ahead of
// the checkbox so an unticked box is still seen.
func testsPassed(form url.Values) bool {
	values, ok := form["exitoso"]
	if !ok {
		return true
	}
	for _, v := range values {
		if v == "on" || v == "true" {
			return true
		}
	}
	return false
}
