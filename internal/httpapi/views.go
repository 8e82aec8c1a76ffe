package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tesig/console/internal/models"
	"tesig/console/internal/session"
	"tesig/console/internal/workflow"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"login",
	"lookup",
	"dashboard",
	"error",
	"customers",
	"customer_form",
	"customer_detail",
	"parts",
	"part_form",
	"part_detail",
	"tickets",
	"ticket_form",
	"ticket_detail",
	"ticket_action",
}

type views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"badge":  workflow.BadgeClass,
	"money":  money,
	"amount": amount,
	"date":   formatDate,
	"days":   days,
	"states": models.AllTicketStates,
	"inc":    func(i int) int { return i + 1 },
}

func mustParseViews() *views {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
	return &views{pages: pages}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// baseView is embedded by every page model and filled in by render.
type baseView struct {
	Title          string
	Authenticated  bool
	User           models.User
	CanManage      bool
	IsAdmin        bool
	IsTechnician   bool
	Flash          *flash
	DebounceMillis int64
}

func (b *baseView) base() *baseView {
	return b
}

type viewModel interface {
	base() *baseView
}

type errorView struct {
	baseView
	Message string
}

// render writes the page unless the client has already gone away, in which
// case the late result is dropped.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, view viewModel) {
	if r.Context().Err() != nil {
		return
	}
	b := view.base()
	if s, ok := session.FromContext(r.Context()); ok && s.IsAuthenticated() {
		b.Authenticated = true
		b.User = s.User
		b.CanManage = s.HasAnyRole(frontOffice...)
		b.IsAdmin = s.HasRole(models.RoleAdmin)
		b.IsTechnician = s.HasRole(models.RoleTechnician)
	}
	if b.Flash == nil {
		b.Flash = takeFlash(w, r)
	}
	b.DebounceMillis = h.debounce.Milliseconds()

	tmpl, ok := h.views.pages[name]
	if !ok {
		h.logger.Error("unknown view", zap.String("view", name))
		http.Error(w, "Error al generar la página", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		h.logger.Error("render failed", zap.String("view", name), zap.Error(err))
		http.Error(w, "Error al generar la página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

const flashCookie = "tesig_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

type flash struct {
	Kind    string
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "|")
	if !ok || message == "" {
		return nil
	}
	if kind != flashSuccess {
		kind = flashError
	}
	return &flash{Kind: kind, Message: message}
}

func money(value any) string {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("$%.2f", v)
	case *float64:
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("$%.2f", *v)
	}
	return "-"
}

// amount formats an optional price for an input field.
func amount(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}

func days(value *int) string {
	if value == nil {
		return "-"
	}
	if *value == 1 {
		return "1 día"
	}
	return fmt.Sprintf("%d días", *value)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// formatDate shows API timestamps as day/month/year. Values it cannot read
// are shown unchanged.
func formatDate(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if layout == "2006-01-02" {
				return t.Format("02/01/2006")
			}
			return t.Format("02/01/2006 15:04")
		}
	}
	return value
}
