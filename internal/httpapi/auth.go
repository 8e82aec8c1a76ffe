package httpapi

import (
	"net/http"

	"tesig/console/internal/gateway"
	"tesig/console/internal/session"

	"go.uber.org/zap"
)

const (
	messageBadCredentials = "Usuario o contraseña incorrectos"
	messageMissingLogin   = "Usuario y contraseña son obligatorios"
	messageTooManyLogins  = "Demasiados intentos. Espera un momento e inténtalo de nuevo."
)

type loginView struct {
	baseView
	Username  string
	ReturnURL string
	Error     string
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	returnURL := safeReturnURL(r.URL.Query().Get("returnUrl"))
	if s, ok := session.FromContext(r.Context()); ok && s.IsAuthenticated() {
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", &loginView{
		baseView:  baseView{Title: "Iniciar sesión"},
		ReturnURL: returnURL,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &loginView{
		baseView:  baseView{Title: "Iniciar sesión"},
		Username:  field(r.PostForm, "username"),
		ReturnURL: safeReturnURL(r.PostForm.Get("returnUrl")),
	}
	password := r.PostForm.Get("password")

	if !h.limiter.Allow(r, view.Username) {
		view.Error = messageTooManyLogins
		h.render(w, r, http.StatusTooManyRequests, "login", view)
		return
	}
	if view.Username == "" || password == "" {
		view.Error = messageMissingLogin
		h.render(w, r, http.StatusBadRequest, "login", view)
		return
	}

	s, err := h.sessions.Login(r.Context(), gateway.Credentials{Username: view.Username, Password: password})
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		view.Error = loginFailure(err)
		status := errorStatus(err)
		if _, ok := gateway.AsError(err); !ok {
			h.logger.Warn("login refused", zap.String("username", view.Username), zap.Error(err))
			status = http.StatusForbidden
		}
		h.render(w, r, status, "login", view)
		return
	}

	h.setSessionCookie(w, s)
	http.Redirect(w, r, view.ReturnURL, http.StatusSeeOther)
}

// loginFailure words a failed login. The API answers bad credentials with
// 401, which elsewhere means an expired session.
func loginFailure(err error) string {
	apiErr, ok := gateway.AsError(err)
	if !ok {
		return gateway.MessageForbidden
	}
	if apiErr.Kind == gateway.KindUnauthorized && apiErr.Message == gateway.MessageUnauthorized {
		return messageBadCredentials
	}
	return apiErr.Message
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	h.clearSessionCookie(w)
	setFlash(w, flashSuccess, "Sesión cerrada")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
