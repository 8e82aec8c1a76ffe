package gateway

import (
	"context"
	"net/http"
	"net/url"

	"tesig/console/internal/models"
)

func (c *Client) ListParts(ctx context.Context, token string, page PageRequest) (models.Page[models.Part], error) {
	var out models.Page[models.Part]
	err := c.do(ctx, "parts.list", http.MethodGet, "/piezas", page.values(), token, nil, &out)
	return out, err
}

func (c *Client) GetPart(ctx context.Context, token string, id int64) (models.Part, error) {
	var out models.Part
	err := c.do(ctx, "parts.get", http.MethodGet, idPath("/piezas", id), nil, token, nil, &out)
	return out, err
}

func (c *Client) PartByCode(ctx context.Context, token, codigo string) (models.Part, error) {
	var out models.Part
	err := c.do(ctx, "parts.by_code", http.MethodGet, "/piezas/codigo/"+url.PathEscape(codigo), nil, token, nil, &out)
	return out, err
}

// SearchParts matches the term against code, name, brand and model.
func (c *Client) SearchParts(ctx context.Context, token, term string, page PageRequest) (models.Page[models.Part], error) {
	query := page.values()
	query.Set("q", term)
	var out models.Page[models.Part]
	err := c.do(ctx, "parts.search", http.MethodGet, "/piezas/buscar", query, token, nil, &out)
	return out, err
}

func (c *Client) SearchPartsByName(ctx context.Context, token, nombre string, page PageRequest) (models.Page[models.Part], error) {
	query := page.values()
	query.Set("nombre", nombre)
	var out models.Page[models.Part]
	err := c.do(ctx, "parts.search_name", http.MethodGet, "/piezas/buscar/nombre", query, token, nil, &out)
	return out, err
}

func (c *Client) PartsByCategory(ctx context.Context, token, categoria string, page PageRequest) (models.Page[models.Part], error) {
	query := page.values()
	query.Set("categoria", categoria)
	var out models.Page[models.Part]
	err := c.do(ctx, "parts.by_category", http.MethodGet, "/piezas/buscar/categoria", query, token, nil, &out)
	return out, err
}

func (c *Client) AvailableParts(ctx context.Context, token string, page PageRequest) (models.Page[models.Part], error) {
	var out models.Page[models.Part]
	err := c.do(ctx, "parts.available", http.MethodGet, "/piezas/disponibles", page.values(), token, nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context, token string) ([]string, error) {
	var out []string
	err := c.do(ctx, "parts.categories", http.MethodGet, "/piezas/categorias", nil, token, nil, &out)
	return out, err
}

func (c *Client) LowStockParts(ctx context.Context, token string) ([]models.Part, error) {
	var out []models.Part
	err := c.do(ctx, "parts.low_stock", http.MethodGet, "/piezas/stock-bajo", nil, token, nil, &out)
	return out, err
}

func (c *Client) OutOfStockParts(ctx context.Context, token string) ([]models.Part, error) {
	var out []models.Part
	err := c.do(ctx, "parts.out_of_stock", http.MethodGet, "/piezas/sin-stock", nil, token, nil, &out)
	return out, err
}

func (c *Client) CreatePart(ctx context.Context, token string, input models.PartInput) (models.Part, error) {
	var out models.Part
	err := c.do(ctx, "parts.create", http.MethodPost, "/piezas", nil, token, input, &out)
	return out, err
}

func (c *Client) UpdatePart(ctx context.Context, token string, id int64, input models.PartInput) (models.Part, error) {
	var out models.Part
	err := c.do(ctx, "parts.update", http.MethodPut, idPath("/piezas", id), nil, token, input, &out)
	return out, err
}

func (c *Client) DeletePart(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "parts.delete", http.MethodDelete, idPath("/piezas", id), nil, token, nil, nil)
}

func (c *Client) AdjustStock(ctx context.Context, token string, id int64, adj models.StockAdjustment) (models.Part, error) {
	var out models.Part
	err := c.do(ctx, "parts.adjust_stock", http.MethodPost, idPath("/piezas", id, "ajustar-stock"), nil, token, adj, &out)
	return out, err
}
