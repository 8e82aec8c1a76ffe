package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/session"
	"tesig/console/internal/session/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteAPI stands in for the repair-shop REST API. Unregistered routes
// answer 404.
type remoteAPI struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	mux    *http.ServeMux
	url    string
}

func newRemoteAPI(t *testing.T) *remoteAPI {
	t.Helper()
	api := &remoteAPI{mux: http.NewServeMux(), bodies: make(map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		call := r.Method + " " + r.URL.Path
		api.mu.Lock()
		api.calls = append(api.calls, call)
		api.bodies[call] = string(body)
		api.mu.Unlock()
		api.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	api.url = srv.URL
	return api
}

func (a *remoteAPI) handle(pattern string, fn http.HandlerFunc) {
	a.mux.HandleFunc(pattern, fn)
}

func (a *remoteAPI) count(call string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (a *remoteAPI) body(call string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[call]
}

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < http.StatusBadRequest,
		"message": "",
		"data":    data,
	})
}

func failure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

var staff = map[string]models.User{
	"admin":     {ID: 1, Username: "admin", NombreCompleto: "Ana Admin", Rol: models.RoleAdmin, Activo: true},
	"recepcion": {ID: 2, Username: "recepcion", NombreCompleto: "Rita Recepción", Rol: models.RoleFrontDesk, Activo: true},
	"tecnico":   {ID: 3, Username: "tecnico", NombreCompleto: "Tomás Técnico", Rol: models.RoleTechnician, Activo: true},
}

type harness struct {
	api      *remoteAPI
	handler  *Handler
	routes   http.Handler
	sessions *session.Manager
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	api := newRemoteAPI(t)
	api.handle("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds gateway.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		user, ok := staff[creds.Username]
		if !ok || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		envelope(w, http.StatusOK, map[string]any{"token": "token-" + creds.Username, "tipo": "Bearer", "usuario": user})
	})

	client := gateway.New(gateway.Config{BaseURL: api.url + "/api", Timeout: 5 * time.Second})
	manager := session.NewManager(memory.NewStore(), client, session.Options{TTL: time.Hour})
	if opts.LoginLimit.IPPerMinute == 0 {
		opts.LoginLimit = RateLimitConfig{IPPerMinute: 600, IPBurst: 100}
	}
	h := NewHandler(client, manager, opts)
	return &harness{api: api, handler: h, routes: h.Routes(), sessions: manager}
}

func (hs *harness) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	s, err := hs.sessions.Login(context.Background(), gateway.Credentials{Username: username, Password: "secret"})
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: s.ID}
}

func (hs *harness) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	hs.routes.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) post(target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	hs.routes.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func ticketJSON(id int64, state models.TicketState) map[string]any {
	return map[string]any{
		"id":             id,
		"numeroTicket":   "TKT-20240115-0001",
		"tipoEquipo":     "Laptop",
		"marca":          "Lenovo",
		"fallaReportada": "No enciende al conectar el cargador",
		"estado":         state,
		"cliente":        map[string]any{"id": 9, "nombreCompleto": "Carla Cliente"},
	}
}

func TestHealth(t *testing.T) {
	hs := newHarness(t, Options{})
	rec := hs.get("/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	metrics := hs.get("/metrics", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "console_http_requests_total")
}

func TestRequireSessionRedirectsToLoginWithReturnURL(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.get("/tickets?estado=INGRESADO", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?returnUrl="+url.QueryEscape("/tickets?estado=INGRESADO"), rec.Header().Get("Location"))
	assert.Zero(t, hs.api.count("GET /api/tickets/estado/INGRESADO"))
}

func TestRequireRoleSendsOtherRolesToDashboard(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "tecnico")

	rec := hs.get("/clientes/nuevo", cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, defaultLanding, rec.Header().Get("Location"))
	assert.NotNil(t, responseCookie(rec, flashCookie))
}

func TestRequireRoleOnDeleteIsAdminOnly(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "recepcion")

	rec := hs.post("/clientes/4/eliminar", url.Values{}, cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, defaultLanding, rec.Header().Get("Location"))
	assert.Zero(t, hs.api.count("DELETE /api/clientes/4"))
}

func TestSearchWithoutSessionAnswersJSON(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.get("/api/buscar/clientes?q=ana&seq=1", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestLoginRoundTrip(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.post("/login", url.Values{"username": {"admin"}, "password": {"secret"}, "returnUrl": {"/tickets/7"}}, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tickets/7", rec.Header().Get("Location"))
	cookie := responseCookie(rec, sessionCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	s, err := hs.sessions.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "token-admin", s.Token)
	assert.Equal(t, models.RoleAdmin, s.User.Rol)
}

func TestLoginIgnoresForeignReturnURL(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.post("/login", url.Values{"username": {"admin"}, "password": {"secret"}, "returnUrl": {"https://evil.example/x"}}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, defaultLanding, rec.Header().Get("Location"))
}

func TestLoginBadCredentials(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.post("/login", url.Values{"username": {"admin"}, "password": {"nope"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), messageBadCredentials)
	assert.Nil(t, responseCookie(rec, sessionCookie))
}

func TestLoginIsRateLimited(t *testing.T) {
	hs := newHarness(t, Options{LoginLimit: RateLimitConfig{IPPerMinute: 1, IPBurst: 2}})
	form := url.Values{"username": {"admin"}, "password": {"nope"}}

	assert.Equal(t, http.StatusUnauthorized, hs.post("/login", form, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, hs.post("/login", form, nil).Code)
	rec := hs.post("/login", form, nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, hs.api.count("POST /api/auth/login"))
}

func TestLoginLimitIgnoresRotatedForwardedFor(t *testing.T) {
	hs := newHarness(t, Options{LoginLimit: RateLimitConfig{IPPerMinute: 1, IPBurst: 2}})
	form := url.Values{"username": {"admin"}, "password": {"nope"}}

	codes := make([]int, 0, 3)
	for _, forwarded := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		hs.routes.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestLogoutDropsSession(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "admin")

	rec := hs.post("/logout", url.Values{}, cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, err := hs.sessions.Load(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestUnauthorizedFromAPIExpiresSession(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		failure(w, http.StatusUnauthorized, "Token expirado")
	})
	cookie := hs.login(t, "admin")

	rec := hs.get("/tickets", cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?returnUrl="+url.QueryEscape("/tickets"), rec.Header().Get("Location"))
	_, err := hs.sessions.Load(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestNotFoundFallsBackToList(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "admin")

	rec := hs.get("/clientes/404", cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, customersPath, rec.Header().Get("Location"))
	assert.NotNil(t, responseCookie(rec, flashCookie))
}

func TestForbiddenShowsMessageAndKeepsSession(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/piezas/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	cookie := hs.login(t, "tecnico")

	rec := hs.get("/inventario/7", cookie)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), gateway.MessageForbidden)
	_, err := hs.sessions.Load(context.Background(), cookie.Value)
	assert.NoError(t, err)
}

func TestRejectBudgetWithoutReasonMakesNoCall(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets/5", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, ticketJSON(5, models.StateQuoted))
	})
	cookie := hs.login(t, "recepcion")

	rec := hs.post("/tickets/5/acciones/reject-budget", url.Values{"motivoRechazo": {"  "}}, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "El motivo del rechazo es obligatorio")
	assert.Zero(t, hs.api.count("POST /api/tickets/5/rechazar-presupuesto"))
}

func TestDiagnosisMovesTicketToQuoted(t *testing.T) {
	hs := newHarness(t, Options{})
	var (
		mu    sync.Mutex
		state = models.StateAssigned
	)
	hs.api.handle("GET /api/tickets/5", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		envelope(w, http.StatusOK, ticketJSON(5, state))
	})
	hs.api.handle("GET /api/tickets/5/piezas", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, []any{})
	})
	hs.api.handle("POST /api/tickets/5/diagnostico", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		state = models.StateQuoted
		mu.Unlock()
		envelope(w, http.StatusOK, ticketJSON(5, models.StateQuoted))
	})
	cookie := hs.login(t, "tecnico")

	rec := hs.post("/tickets/5/acciones/record-diagnosis", url.Values{
		"diagnostico":         {"Pantalla dañada"},
		"presupuestoManoObra": {"50"},
		"presupuestoPiezas":   {"30"},
		"tiempoEstimado":      {"3 días"},
	}, cookie)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tickets/5", rec.Header().Get("Location"))
	assert.Equal(t, 1, hs.api.count("POST /api/tickets/5/diagnostico"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(hs.api.body("POST /api/tickets/5/diagnostico")), &sent))
	assert.Equal(t, "Pantalla dañada", sent["diagnostico"])
	assert.EqualValues(t, 50, sent["presupuestoManoObra"])
	assert.EqualValues(t, 30, sent["presupuestoPiezas"])
	assert.EqualValues(t, 3, sent["tiempoEstimadoDias"])

	detail := hs.get("/tickets/5", cookie)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), models.StateQuoted.Label())
	assert.NotContains(t, detail.Body.String(), "/acciones/record-diagnosis")
}

func TestActionNotOfferedForStateIsRefused(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets/5", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, ticketJSON(5, models.StateDelivered))
	})
	cookie := hs.login(t, "admin")

	rec := hs.post("/tickets/5/acciones/cancel", url.Values{"motivoCancelacion": {"Cliente desiste"}}, cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tickets/5", rec.Header().Get("Location"))
	assert.Zero(t, hs.api.count("POST /api/tickets/5/cancelar"))
}

func TestActionFailureKeepsTicketAndShowsMessage(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets/5", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, ticketJSON(5, models.StateQuoted))
	})
	hs.api.handle("POST /api/tickets/5/aprobar-presupuesto", func(w http.ResponseWriter, r *http.Request) {
		failure(w, http.StatusBadRequest, "El presupuesto ya fue respondido")
	})
	cookie := hs.login(t, "recepcion")

	rec := hs.post("/tickets/5/acciones/approve-budget", url.Values{}, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "El presupuesto ya fue respondido")
	assert.Contains(t, rec.Body.String(), models.StateQuoted.Label())
}

func TestPublicLookupNotFound(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.get("/consulta?numero=TKT-20240101-0001", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), messageTicketNotFound)
	assert.NotContains(t, rec.Body.String(), "Descargar PDF")
	assert.Equal(t, 1, hs.api.count("GET /api/publico/tickets/TKT-20240101-0001"))
}

func TestPublicLookupRejectsMalformedNumber(t *testing.T) {
	hs := newHarness(t, Options{})

	rec := hs.post("/consulta", url.Values{"numero": {"12345"}}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), messageBadTicketNumber)
	assert.Zero(t, hs.api.count("GET /api/publico/tickets/12345"))
}

func TestPublicLookupFound(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/publico/tickets/TKT-20240115-0001", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		envelope(w, http.StatusOK, map[string]any{
			"numeroTicket": "TKT-20240115-0001",
			"tipoEquipo":   "Laptop",
			"marca":        "Lenovo",
			"estado":       map[string]any{"codigo": "EN_REPARACION", "nombre": "En reparación"},
			"cliente":      map[string]any{"nombreCompleto": "Carla Cliente"},
		})
	})
	cookie := hs.login(t, "admin")

	rec := hs.get("/consulta?numero=tkt-20240115-0001", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Carla Cliente")
	assert.Contains(t, rec.Body.String(), models.StateRepairing.Label())
	assert.Contains(t, rec.Body.String(), "/consulta/TKT-20240115-0001/pdf")
}

func TestStaleSearchAnswersNoContent(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/clientes/buscar/nombre", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, map[string]any{
			"content":    []any{map[string]any{"id": 9, "nombreCompleto": "Carla Cliente", "email": "carla@example.com"}},
			"page":       0,
			"totalPages": 1,
			"first":      true,
			"last":       true,
		})
	})
	cookie := hs.login(t, "recepcion")

	fresh := hs.get("/api/buscar/clientes?q=carla&seq=5", cookie)
	require.Equal(t, http.StatusOK, fresh.Code)
	var body struct {
		Seq     uint64        `json:"seq"`
		Results []customerHit `json:"results"`
	}
	require.NoError(t, json.Unmarshal(fresh.Body.Bytes(), &body))
	assert.EqualValues(t, 5, body.Seq)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Carla Cliente", body.Results[0].NombreCompleto)

	stale := hs.get("/api/buscar/clientes?q=car&seq=3", cookie)
	assert.Equal(t, http.StatusNoContent, stale.Code)
	assert.Equal(t, 1, hs.api.count("GET /api/clientes/buscar/nombre"))
}

func TestReloadedPageSearchIsAnswered(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/piezas/buscar", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, map[string]any{
			"content": []any{map[string]any{"id": 1, "codigo": "SSD-480", "nombre": "SSD 480GB", "stock": 2}},
			"last":    true,
		})
	})
	cookie := hs.login(t, "tecnico")

	for _, seq := range []string{"1", "2", "3", "4", "5"} {
		require.Equal(t, http.StatusOK, hs.get("/api/buscar/piezas?q=ssd&seq="+seq+"&view=first", cookie).Code)
	}

	rec := hs.get("/api/buscar/piezas?q=ssd&seq=1&view=second", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SSD-480")
	assert.Equal(t, http.StatusNoContent, hs.get("/api/buscar/piezas?q=ssd&seq=2&view=first", cookie).Code)
}

func TestShortSearchTermSkipsAPI(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "recepcion")

	rec := hs.get("/api/buscar/piezas?q=a&seq=1", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"seq":1,"results":[]}`, rec.Body.String())
	assert.Zero(t, hs.api.count("GET /api/piezas/buscar"))
}

func TestCustomerListSearchesByEmail(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/clientes/buscar/email/{email}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("email") != "carla@example.com" {
			failure(w, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		envelope(w, http.StatusOK, map[string]any{"id": 9, "nombreCompleto": "Carla Cliente", "email": "carla@example.com"})
	})
	cookie := hs.login(t, "recepcion")

	rec := hs.get("/clientes?q=Carla@Example.com", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Carla Cliente")
	assert.Equal(t, 1, hs.api.count("GET /api/clientes/buscar/email/carla@example.com"))
	assert.Zero(t, hs.api.count("GET /api/clientes/buscar/nombre"))

	missing := hs.get("/clientes?q=nadie@example.com", cookie)

	assert.Equal(t, http.StatusOK, missing.Code)
	assert.Contains(t, missing.Body.String(), "No se encontraron clientes")
}

func TestCustomerCreateValidatesBeforeCallingAPI(t *testing.T) {
	hs := newHarness(t, Options{})
	cookie := hs.login(t, "recepcion")

	rec := hs.post("/clientes/nuevo", url.Values{
		"nombre":   {"Carla"},
		"apellido": {"Cliente"},
		"email":    {"carla@example.com"},
		"telefono": {"5555"},
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "0000-0000")
	assert.Zero(t, hs.api.count("POST /api/clientes"))
}

func TestCustomerCreate(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("POST /api/clientes", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusCreated, map[string]any{"id": 12, "nombreCompleto": "Carla Cliente"})
	})
	cookie := hs.login(t, "recepcion")

	rec := hs.post("/clientes/nuevo", url.Values{
		"nombre":   {"Carla"},
		"apellido": {"Cliente"},
		"email":    {"Carla@Example.com"},
		"telefono": {"5555-1234"},
	}, cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes/12", rec.Header().Get("Location"))
	assert.Contains(t, hs.api.body("POST /api/clientes"), `"email":"carla@example.com"`)
}

func TestDashboardCountsOpenStates(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets/estado/{state}", func(w http.ResponseWriter, r *http.Request) {
		total := 0
		if r.PathValue("state") == string(models.StateRepairing) {
			total = 4
		}
		envelope(w, http.StatusOK, map[string]any{"content": []any{}, "totalElements": total})
	})
	cookie := hs.login(t, "admin")

	rec := hs.get("/dashboard", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Admin")
	assert.Equal(t, 1, hs.api.count("GET /api/tickets/estado/EN_REPARACION"))
	assert.Zero(t, hs.api.count("GET /api/tickets/estado/ENTREGADO"))
}

func TestTechnicianTicketListShowsOwnTickets(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/tickets/tecnico/3", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, map[string]any{"content": []any{ticketJSON(5, models.StateRepairing)}, "totalElements": 1, "totalPages": 1})
	})
	cookie := hs.login(t, "tecnico")

	rec := hs.get("/tickets?estado=INGRESADO", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TKT-20240115-0001")
	assert.Zero(t, hs.api.count("GET /api/tickets/estado/INGRESADO"))
}

func TestPartExportStreamsWorkbook(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.api.handle("GET /api/piezas", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		envelope(w, http.StatusOK, map[string]any{
			"content":    []any{map[string]any{"id": 1, "codigo": "SSD-480", "nombre": "SSD 480GB", "categoria": "Almacenamiento", "stock": 2, "stockMinimo": 5, "estadoStock": "STOCK_BAJO"}},
			"page":       0,
			"totalPages": 1,
			"last":       true,
		})
	})
	cookie := hs.login(t, "admin")

	rec := hs.get("/inventario/export.xlsx", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestRenderDropsResultWhenClientLeft(t *testing.T) {
	hs := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/consulta", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	hs.handler.render(rec, req, http.StatusOK, "lookup", &lookupView{baseView: baseView{Title: "x"}})

	assert.Empty(t, rec.Body.String())
}

func TestFlashIsShownOnce(t *testing.T) {
	hs := newHarness(t, Options{})
	rec := httptest.NewRecorder()
	setFlash(rec, flashSuccess, "Cliente creado exitosamente")
	flashed := responseCookie(rec, flashCookie)
	require.NotNil(t, flashed)

	req := httptest.NewRequest(http.MethodGet, "/consulta", nil)
	req.AddCookie(flashed)
	page := httptest.NewRecorder()
	hs.routes.ServeHTTP(page, req)

	assert.Contains(t, page.Body.String(), "Cliente creado exitosamente")
	cleared := responseCookie(page, flashCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}
