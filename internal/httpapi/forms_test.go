package httpapi

import (
	"net/url"
	"testing"

	"tesig/console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeReturnURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", defaultLanding},
		{"/tickets/5", "/tickets/5"},
		{"/tickets?estado=INGRESADO", "/tickets?estado=INGRESADO"},
		{"//evil.example/x", defaultLanding},
		{"/\\evil.example", defaultLanding},
		{"https://evil.example/x", defaultLanding},
		{"tickets", defaultLanding},
		{"/login", defaultLanding},
		{"/logout?x=1", defaultLanding},
		{"  /clientes  ", "/clientes"},
	}

	for _, tt := range cases {
		if got := safeReturnURL(tt.raw); got != tt.want {
			t.Fatalf("safeReturnURL(%q)=%q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValidateCustomer(t *testing.T) {
	in := customerInputFromForm(url.Values{
		"nombre":   {" Carla "},
		"apellido": {"Cliente"},
		"email":    {"Carla@Example.COM"},
		"telefono": {"5555-1234"},
	})
	assert.Equal(t, "Carla", in.Nombre)
	assert.Equal(t, "carla@example.com", in.Email)
	assert.True(t, validateCustomer(in).Empty())

	errs := validateCustomer(models.CustomerInput{Nombre: "C", Apellido: "Cliente", Email: "no-at", Telefono: "55551234"})
	assert.Contains(t, errs, "nombre")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "telefono")
	assert.NotContains(t, errs, "apellido")
}

func TestValidatePartFillsNumbers(t *testing.T) {
	form := partFormFromValues(url.Values{
		"codigo":      {"ssd-480"},
		"nombre":      {"SSD 480GB"},
		"categoria":   {"Almacenamiento"},
		"precioCosto": {"25,50"},
		"precioVenta": {"40"},
		"stock":       {"3"},
		"stockMinimo": {"5"},
		"activo":      {"on"},
	})

	errs := validatePart(&form)

	require.True(t, errs.Empty(), "%v", errs)
	assert.Equal(t, "SSD-480", form.Input.Codigo)
	assert.Equal(t, 25.5, form.Input.PrecioCosto)
	assert.Equal(t, 40.0, form.Input.PrecioVenta)
	assert.Equal(t, 3, form.Input.Stock)
	assert.True(t, form.Input.Activo)
}

func TestValidatePartRejectsBadValues(t *testing.T) {
	form := partFormFromValues(url.Values{
		"codigo":      {"SSD 480"},
		"categoria":   {"Almacenamiento"},
		"precioCosto": {"-1"},
		"precioVenta": {"abc"},
		"stock":       {"1.5"},
		"stockMinimo": {"0"},
	})

	errs := validatePart(&form)

	for _, name := range []string{"codigo", "nombre", "precioCosto", "precioVenta", "stock"} {
		assert.Contains(t, errs, name)
	}
	assert.NotContains(t, errs, "stockMinimo")
	assert.Equal(t, "SSD 480", form.Input.Codigo)
}

func TestStockAdjustmentFromForm(t *testing.T) {
	adj, errs := stockAdjustmentFromForm(url.Values{
		"tipoMovimiento": {"salida"},
		"cantidad":       {"2"},
		"motivo":         {"Uso en reparación"},
	})
	require.True(t, errs.Empty())
	assert.Equal(t, models.MovementOut, adj.TipoMovimiento)
	assert.Equal(t, 2, adj.Cantidad)

	_, errs = stockAdjustmentFromForm(url.Values{"tipoMovimiento": {"AJUSTE"}, "cantidad": {"0"}})
	assert.Contains(t, errs, "tipoMovimiento")
	assert.Contains(t, errs, "cantidad")
	assert.Contains(t, errs, "motivo")
}

func TestValidateTicket(t *testing.T) {
	form := ticketFormFromValues(url.Values{
		"clienteId":      {"9"},
		"tipoEquipo":     {"Laptop"},
		"marca":          {"Lenovo"},
		"fallaReportada": {"No enciende al conectar el cargador"},
	})
	require.True(t, validateTicket(&form).Empty())
	assert.EqualValues(t, 9, form.Input.ClienteID)

	form = ticketFormFromValues(url.Values{"tipoEquipo": {"L"}, "fallaReportada": {"corta"}})
	errs := validateTicket(&form)
	assert.Equal(t, "Selecciona un cliente", errs["clienteId"])
	assert.Contains(t, errs, "tipoEquipo")
	assert.Contains(t, errs, "marca")
	assert.Contains(t, errs, "fallaReportada")
}

func TestTicketPartFromForm(t *testing.T) {
	in, errs := ticketPartFromForm(url.Values{"piezaId": {"4"}, "cantidad": {"2"}, "precioUnitario": {"12.5"}})
	require.True(t, errs.Empty())
	assert.EqualValues(t, 4, in.PiezaID)
	require.NotNil(t, in.PrecioUnitario)
	assert.Equal(t, 12.5, *in.PrecioUnitario)

	in, errs = ticketPartFromForm(url.Values{"piezaId": {"4"}, "cantidad": {"1"}})
	require.True(t, errs.Empty())
	assert.Nil(t, in.PrecioUnitario)

	_, errs = ticketPartFromForm(url.Values{"cantidad": {"0"}, "precioUnitario": {"0"}})
	assert.Contains(t, errs, "piezaId")
	assert.Contains(t, errs, "cantidad")
	assert.Contains(t, errs, "precioUnitario")
}

func TestTestsPassed(t *testing.T) {
	cases := []struct {
		form url.Values
		want bool
	}{
		{url.Values{}, true},
		{url.Values{"exitoso": {"false"}}, false},
		{url.Values{"exitoso": {"false", "on"}}, true},
		{url.Values{"exitoso": {"true"}}, true},
	}

	for _, tt := range cases {
		if got := testsPassed(tt.form); got != tt.want {
			t.Fatalf("testsPassed(%v)=%v, want %v", tt.form, got, tt.want)
		}
	}
}

func TestActionInputReadsDeliveryFields(t *testing.T) {
	in := actionInput(url.Values{
		"nombreQuienRecibe": {" Pedro Pérez "},
		"parentescoRecibe":  {"Hermano"},
		"observaciones":     {"Sin rayones"},
	})

	assert.Equal(t, "Pedro Pérez", in.ReceiverName)
	assert.Equal(t, "Hermano", in.ReceiverRelationship)
	assert.Equal(t, "Sin rayones", in.Notes)
	assert.True(t, in.TestsPassed)
}
