package gateway

import (
	"context"
	"net/http"
	"net/url"

	"tesig/console/internal/models"
)

func (c *Client) ListCustomers(ctx context.Context, token string, page PageRequest) (models.Page[models.Customer], error) {
	var out models.Page[models.Customer]
	err := c.do(ctx, "customers.list", http.MethodGet, "/clientes", page.values(), token, nil, &out)
	return out, err
}

func (c *Client) GetCustomer(ctx context.Context, token string, id int64) (models.Customer, error) {
	var out models.Customer
	err := c.do(ctx, "customers.get", http.MethodGet, idPath("/clientes", id), nil, token, nil, &out)
	return out, err
}

func (c *Client) SearchCustomersByName(ctx context.Context, token, nombre string, page PageRequest) (models.Page[models.Customer], error) {
	query := page.values()
	query.Set("nombre", nombre)
	var out models.Page[models.Customer]
	err := c.do(ctx, "customers.search", http.MethodGet, "/clientes/buscar/nombre", query, token, nil, &out)
	return out, err
}

func (c *Client) FindCustomerByEmail(ctx context.Context, token, email string) (models.Customer, error) {
	var out models.Customer
	err := c.do(ctx, "customers.by_email", http.MethodGet, "/clientes/buscar/email/"+url.PathEscape(email), nil, token, nil, &out)
	return out, err
}

func (c *Client) CreateCustomer(ctx context.Context, token string, input models.CustomerInput) (models.Customer, error) {
	var out models.Customer
	err := c.do(ctx, "customers.create", http.MethodPost, "/clientes", nil, token, input, &out)
	return out, err
}

func (c *Client) UpdateCustomer(ctx context.Context, token string, id int64, input models.CustomerInput) (models.Customer, error) {
	var out models.Customer
	err := c.do(ctx, "customers.update", http.MethodPut, idPath("/clientes", id), nil, token, input, &out)
	return out, err
}

func (c *Client) DeleteCustomer(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "customers.delete", http.MethodDelete, idPath("/clientes", id), nil, token, nil, nil)
}
