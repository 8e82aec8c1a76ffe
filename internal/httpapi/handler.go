package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/search"
	"tesig/console/internal/session"
	"tesig/console/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionCookie = "tesig_session"

var (
	everyone    = []models.Role{models.RoleAdmin, models.RoleFrontDesk, models.RoleTechnician}
	frontOffice = []models.Role{models.RoleAdmin, models.RoleFrontDesk}
	bench       = []models.Role{models.RoleAdmin, models.RoleTechnician}
	adminOnly   = []models.Role{models.RoleAdmin}
)

// API is the slice of the remote REST API the console screens use.
type API interface {
	workflow.Transitioner

	ListCustomers(ctx context.Context, token string, page gateway.PageRequest) (models.Page[models.Customer], error)
	GetCustomer(ctx context.Context, token string, id int64) (models.Customer, error)
	SearchCustomersByName(ctx context.Context, token, nombre string, page gateway.PageRequest) (models.Page[models.Customer], error)
	FindCustomerByEmail(ctx context.Context, token, email string) (models.Customer, error)
	CreateCustomer(ctx context.Context, token string, input models.CustomerInput) (models.Customer, error)
	UpdateCustomer(ctx context.Context, token string, id int64, input models.CustomerInput) (models.Customer, error)
	DeleteCustomer(ctx context.Context, token string, id int64) error

	ListParts(ctx context.Context, token string, page gateway.PageRequest) (models.Page[models.Part], error)
	GetPart(ctx context.Context, token string, id int64) (models.Part, error)
	SearchParts(ctx context.Context, token, term string, page gateway.PageRequest) (models.Page[models.Part], error)
	PartsByCategory(ctx context.Context, token, categoria string, page gateway.PageRequest) (models.Page[models.Part], error)
	Categories(ctx context.Context, token string) ([]string, error)
	LowStockParts(ctx context.Context, token string) ([]models.Part, error)
	OutOfStockParts(ctx context.Context, token string) ([]models.Part, error)
	CreatePart(ctx context.Context, token string, input models.PartInput) (models.Part, error)
	UpdatePart(ctx context.Context, token string, id int64, input models.PartInput) (models.Part, error)
	DeletePart(ctx context.Context, token string, id int64) error
	AdjustStock(ctx context.Context, token string, id int64, adj models.StockAdjustment) (models.Part, error)

	ListTickets(ctx context.Context, token string, page gateway.PageRequest) (models.Page[models.Ticket], error)
	TicketsByCustomer(ctx context.Context, token string, customerID int64, page gateway.PageRequest) (models.Page[models.Ticket], error)
	TicketsByTechnician(ctx context.Context, token string, technicianID int64, page gateway.PageRequest) (models.Page[models.Ticket], error)
	TicketsByState(ctx context.Context, token string, state models.TicketState, page gateway.PageRequest) (models.Page[models.Ticket], error)
	CreateTicket(ctx context.Context, token string, input models.TicketInput) (models.Ticket, error)
	TicketParts(ctx context.Context, token string, ticketID int64) ([]models.TicketPart, error)
	AddTicketPart(ctx context.Context, token string, ticketID int64, input models.TicketPartInput) (models.TicketPart, error)
	RemoveTicketPart(ctx context.Context, token string, ticketID, ticketPartID int64) error
	TicketPDF(ctx context.Context, token string, id int64) (gateway.Download, error)
	BudgetPDF(ctx context.Context, token string, id int64) (gateway.Download, error)

	PublicTicket(ctx context.Context, numero string) (models.PublicTicket, error)
	PublicTicketPDF(ctx context.Context, numero string) (gateway.Download, error)
}

// Sessions is implemented by *session.Manager.
type Sessions interface {
	Login(ctx context.Context, creds gateway.Credentials) (*session.Session, error)
	Load(ctx context.Context, id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
	Expire(ctx context.Context, id string) error
}

type Options struct {
	PageSize       int
	SearchDebounce time.Duration
	CookieSecure   bool
	LoginLimit     RateLimitConfig
	Sequencer      *search.Sequencer
	Logger         *zap.Logger
}

type Handler struct {
	api          API
	sessions     Sessions
	workflow     *workflow.Controller
	sequencer    *search.Sequencer
	limiter      *RateLimiter
	views        *views
	logger       *zap.Logger
	pageSize     int
	debounce     time.Duration
	cookieSecure bool
}

type errorResponse struct {
	RequestID string        `json:"request_id"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(api API, sessions Sessions, options Options) *Handler {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	debounce := options.SearchDebounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	sequencer := options.Sequencer
	if sequencer == nil {
		sequencer = search.NewSequencer(0)
	}
	return &Handler{
		api:          api,
		sessions:     sessions,
		workflow:     workflow.NewController(api, logger),
		sequencer:    sequencer,
		limiter:      NewRateLimiter(options.LoginLimit),
		views:        mustParseViews(),
		logger:       logger,
		pageSize:     pageSize,
		debounce:     debounce,
		cookieSecure: options.CookieSecure,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.loadSession)
	r.Use(LoggingMiddleware(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", staticHandler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/consulta", http.StatusSeeOther)
	})
	r.Get("/consulta", h.handleLookup)
	r.Post("/consulta", h.handleLookup)
	r.Get("/consulta/{numero}/pdf", h.handleLookupPDF)

	r.Get("/login", h.handleLoginForm)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession)

		r.Get("/dashboard", h.handleDashboard)

		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", h.handleCustomerList)
			r.With(RequireRole(frontOffice...)).Get("/nuevo", h.handleCustomerNew)
			r.With(RequireRole(frontOffice...)).Post("/nuevo", h.handleCustomerCreate)
			r.Get("/{id}", h.handleCustomerDetail)
			r.With(RequireRole(frontOffice...)).Get("/{id}/editar", h.handleCustomerEdit)
			r.With(RequireRole(frontOffice...)).Post("/{id}/editar", h.handleCustomerUpdate)
			r.With(RequireRole(adminOnly...)).Post("/{id}/eliminar", h.handleCustomerDelete)
		})

		r.Route("/inventario", func(r chi.Router) {
			r.Get("/", h.handlePartList)
			r.With(RequireRole(frontOffice...)).Get("/export.xlsx", h.handlePartExport)
			r.With(RequireRole(frontOffice...)).Get("/nuevo", h.handlePartNew)
			r.With(RequireRole(frontOffice...)).Post("/nuevo", h.handlePartCreate)
			r.Get("/{id}", h.handlePartDetail)
			r.With(RequireRole(frontOffice...)).Get("/{id}/editar", h.handlePartEdit)
			r.With(RequireRole(frontOffice...)).Post("/{id}/editar", h.handlePartUpdate)
			r.With(RequireRole(frontOffice...)).Post("/{id}/stock", h.handlePartStock)
			r.With(RequireRole(adminOnly...)).Post("/{id}/eliminar", h.handlePartDelete)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.handleTicketList)
			r.With(RequireRole(frontOffice...)).Get("/nuevo", h.handleTicketNew)
			r.With(RequireRole(frontOffice...)).Post("/nuevo", h.handleTicketCreate)
			r.Get("/{id}", h.handleTicketDetail)
			r.Get("/{id}/acciones/{action}", h.handleActionForm)
			r.Post("/{id}/acciones/{action}", h.handleActionSubmit)
			r.With(RequireRole(bench...)).Post("/{id}/piezas", h.handleTicketPartAdd)
			r.With(RequireRole(bench...)).Post("/{id}/piezas/{tpid}/eliminar", h.handleTicketPartRemove)
			r.Get("/{id}/pdf", h.handleTicketPDF)
			r.Get("/{id}/presupuesto-pdf", h.handleBudgetPDF)
		})

		r.Route("/api/buscar", func(r chi.Router) {
			r.Get("/clientes", h.handleSearchCustomers)
			r.Get("/piezas", h.handleSearchParts)
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loadSession attaches the session named by the cookie, if any, to the
// request context. Unknown or expired ids clear the cookie.
func (h *Handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		s, err := h.sessions.Load(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				h.logger.Warn("session load failed", zap.Error(err))
			}
			h.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, s *session.Session) {
	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		cookie.Expires = s.ExpiresAt
	}
	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// current returns the session of an authenticated route. The guards make
// sure it is present.
func current(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

// intercept handles the failures every screen treats the same way: a
// client that went away and a session the API no longer accepts. It
// reports whether the response has been dealt with.
func (h *Handler) intercept(w http.ResponseWriter, r *http.Request, err error) bool {
	if r.Context().Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}
	if !gateway.IsUnauthorized(err) {
		return false
	}
	if s := current(r); s != nil {
		if expireErr := h.sessions.Expire(r.Context(), s.ID); expireErr != nil {
			h.logger.Warn("session expire failed", zap.Error(expireErr))
		}
	}
	h.clearSessionCookie(w)
	setFlash(w, flashError, gateway.MessageUnauthorized)
	redirectToLogin(w, r)
	return true
}

// fail maps a gateway error onto a full screen. Not-found falls back to
// fallback with a flash message when one is given.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if h.intercept(w, r, err) {
		return
	}
	if gateway.IsNotFound(err) && fallback != "" {
		setFlash(w, flashError, gateway.Message(err))
		http.Redirect(w, r, fallback, http.StatusSeeOther)
		return
	}
	h.render(w, r, errorStatus(err), "error", &errorView{baseView: baseView{Title: "Error"}, Message: gateway.Message(err)})
}

func errorStatus(err error) int {
	apiErr, ok := gateway.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case gateway.KindNetwork, gateway.KindServer, gateway.KindUnknown:
		return http.StatusBadGateway
	case gateway.KindRejected:
		return http.StatusUnprocessableEntity
	}
	if apiErr.Status >= http.StatusBadRequest {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func (h *Handler) page(r *http.Request) gateway.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return gateway.PageRequest{Page: max(page, 0), Size: h.pageSize}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageLink rebuilds the current query with a different page number.
func pageLink(r *http.Request, page int) string {
	query := r.URL.Query()
	query.Set("page", strconv.Itoa(page))
	return r.URL.Path + "?" + query.Encode()
}

func serveDownload(w http.ResponseWriter, d gateway.Download, fallbackName string) {
	name := d.Filename
	if name == "" {
		name = fallbackName
	}
	contentType := d.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+strings.ReplaceAll(name, "\"", "")+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Body)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/api/") {
		target += "?returnUrl=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
