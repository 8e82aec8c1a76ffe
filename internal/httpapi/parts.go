package httpapi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tesig/console/internal/export"
	"tesig/console/internal/gateway"
	"tesig/console/internal/models"
	"tesig/console/internal/workflow"

	"go.uber.org/zap"
)

const (
	partsPath = "/inventario"

	exportPageSize = 100
	exportMaxPages = 200
)

type partListView struct {
	baseView
	Parts      []models.Part
	Paged      bool
	Total      int64
	Query      string
	Category   string
	Stock      string
	Categories []string
	PrevURL    string
	NextURL    string
}

type partFormView struct {
	baseView
	ID      int64
	Action  string
	Form    partForm
	Errors  workflow.FieldErrors
	Message string
}

type partDetailView struct {
	baseView
	Part         models.Part
	Adjustment   models.StockAdjustment
	AdjustErrors workflow.FieldErrors
	Message      string
}

func (h *Handler) handlePartList(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	q := r.URL.Query()
	view := &partListView{
		baseView: baseView{Title: "Inventario"},
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("categoria")),
		Stock:    strings.ToUpper(strings.TrimSpace(q.Get("stock"))),
	}
	if !s.HasAnyRole(frontOffice...) {
		view.Stock = ""
	}

	var err error
	switch view.Stock {
	case models.StockOut:
		view.Parts, err = h.api.OutOfStockParts(r.Context(), s.Token)
	case models.StockLow:
		view.Parts, err = h.api.LowStockParts(r.Context(), s.Token)
	default:
		view.Stock = ""
		var page models.Page[models.Part]
		switch {
		case view.Query != "":
			page, err = h.api.SearchParts(r.Context(), s.Token, view.Query, h.page(r))
		case view.Category != "":
			page, err = h.api.PartsByCategory(r.Context(), s.Token, view.Category, h.page(r))
		default:
			page, err = h.api.ListParts(r.Context(), s.Token, h.page(r))
		}
		view.Parts, view.Paged, view.Total = page.Content, true, page.TotalElements
		if page.HasPrevious() {
			view.PrevURL = pageLink(r, page.PreviousPage())
		}
		if page.HasNext() {
			view.NextURL = pageLink(r, page.NextPage())
		}
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	categories, err := h.api.Categories(r.Context(), s.Token)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		h.logger.Warn("part categories unavailable", zap.Error(err))
	}
	view.Categories = categories
	h.render(w, r, http.StatusOK, "parts", view)
}

func (h *Handler) handlePartNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "part_form", &partFormView{
		baseView: baseView{Title: "Nueva pieza"},
		Action:   partsPath + "/nuevo",
		Form: partForm{
			Input:       models.PartInput{Activo: true},
			Stock:       "0",
			StockMinimo: "5",
		},
	})
}

func (h *Handler) handlePartCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &partFormView{
		baseView: baseView{Title: "Nueva pieza"},
		Action:   partsPath + "/nuevo",
		Form:     partFormFromValues(r.PostForm),
	}
	if view.Errors = validatePart(&view.Form); !view.Errors.Empty() {
		h.render(w, r, http.StatusBadRequest, "part_form", view)
		return
	}

	created, err := h.api.CreatePart(r.Context(), current(r).Token, view.Form.Input)
	if err != nil {
		if h.intercept(w, r, err) {
			return
		}
		view.Message = gateway.Message(err)
		h.render(w, r, errorStatus(err), "part_form", view)
		return
	}
	setFlash(w, flashSuccess, "Pieza creada exitosamente")
	http.Redirect(w, r, partPath(created.ID), http.StatusSeeOther)
}

func (h *Handler) handlePartDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, partsPath)
		return
	}
	part, err := h.api.GetPart(r.Context(), current(r).Token, id)
	if err != nil {
		h.fail(w, r, err, partsPath)
		return
	}
	h.render(w, r, http.StatusOK, "part_detail", &partDetailView{
		baseView:   baseView{Title: part.Nombre},
		Part:       part,
		Adjustment: models.StockAdjustment{TipoMovimiento: models.MovementIn},
	})
}

func (h *Handler) handlePartEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, partsPath)
		return
	}
	part, err := h.api.GetPart(r.Context(), current(r).Token, id)
	if err != nil {
		h.fail(w, r, err, partsPath)
		return
	}
	h.render(w, r, http.StatusOK, "part_form", &partFormView{
		baseView: baseView{Title: "Editar pieza"},
		ID:       id,
		Action:   partPath(id) + "/editar",
		Form:     partFormFromPart(part),
	})
}

func (h *Handler) handlePartUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, partsPath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := &partFormView{
		baseView: baseView{Title: "Editar pieza"},
		ID:       id,
		Action:   partPath(id) + "/editar",
		Form:     partFormFromValues(r.PostForm),
	}
	if view.Errors = validatePart(&view.Form); !view.Errors.Empty() {
		h.render(w, r, http.StatusBadRequest, "part_form", view)
		return
	}

	if _, err := h.api.UpdatePart(r.Context(), current(r).Token, id, view.Form.Input); err != nil {
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, partsPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		view.Message = gateway.Message(err)
		h.render(w, r, errorStatus(err), "part_form", view)
		return
	}
	setFlash(w, flashSuccess, "Pieza actualizada exitosamente")
	http.Redirect(w, r, partPath(id), http.StatusSeeOther)
}

func (h *Handler) handlePartStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, partsPath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s := current(r)
	adj, errs := stockAdjustmentFromForm(r.PostForm)

	status := http.StatusBadRequest
	message := ""
	if errs.Empty() {
		_, err := h.api.AdjustStock(r.Context(), s.Token, id, adj)
		if err == nil {
			setFlash(w, flashSuccess, "Stock ajustado exitosamente")
			http.Redirect(w, r, partPath(id), http.StatusSeeOther)
			return
		}
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, partsPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		status, message = errorStatus(err), gateway.Message(err)
	}

	part, err := h.api.GetPart(r.Context(), s.Token, id)
	if err != nil {
		h.fail(w, r, err, partsPath)
		return
	}
	h.render(w, r, status, "part_detail", &partDetailView{
		baseView:     baseView{Title: part.Nombre},
		Part:         part,
		Adjustment:   adj,
		AdjustErrors: errs,
		Message:      message,
	})
}

func (h *Handler) handlePartDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r, partsPath)
		return
	}
	if err := h.api.DeletePart(r.Context(), current(r).Token, id); err != nil {
		if gateway.IsNotFound(err) {
			h.fail(w, r, err, partsPath)
			return
		}
		if h.intercept(w, r, err) {
			return
		}
		setFlash(w, flashError, gateway.Message(err))
		http.Redirect(w, r, partPath(id), http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Pieza eliminada exitosamente")
	http.Redirect(w, r, partsPath, http.StatusSeeOther)
}

// handlePartExport pages through the whole inventory and streams it as a
// workbook.
func (h *Handler) handlePartExport(w http.ResponseWriter, r *http.Request) {
	token := current(r).Token
	var parts []models.Part
	for number := 0; number < exportMaxPages; number++ {
		page, err := h.api.ListParts(r.Context(), token, gateway.PageRequest{Page: number, Size: exportPageSize, Sort: "codigo"})
		if err != nil {
			h.fail(w, r, err, partsPath)
			return
		}
		parts = append(parts, page.Content...)
		if page.Last || len(page.Content) == 0 || number+1 >= page.TotalPages {
			break
		}
	}

	book, err := export.PartsWorkbook(parts)
	if err != nil {
		h.logger.Error("inventory export failed", zap.Error(err))
		setFlash(w, flashError, "No se pudo generar el archivo de inventario")
		http.Redirect(w, r, partsPath, http.StatusSeeOther)
		return
	}
	defer func() { _ = book.Close() }()

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		h.logger.Error("inventory export failed", zap.Error(err))
		setFlash(w, flashError, "No se pudo generar el archivo de inventario")
		http.Redirect(w, r, partsPath, http.StatusSeeOther)
		return
	}
	serveDownload(w, gateway.Download{
		ContentType: export.ContentType,
		Filename:    "inventario-" + time.Now().Format("20060102") + ".xlsx",
		Body:        buf.Bytes(),
	}, "inventario.xlsx")
}

func partPath(id int64) string {
	return partsPath + "/" + strconv.FormatInt(id, 10)
}
