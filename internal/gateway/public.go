package gateway

import (
	"context"
	"net/http"
	"net/url"

	"tesig/console/internal/models"
)

func (c *Client) PublicTicket(ctx context.Context, numero string) (models.PublicTicket, error) {
	var out models.PublicTicket
	err := c.do(ctx, "public.ticket", http.MethodGet, "/publico/tickets/"+url.PathEscape(numero), nil, "", nil, &out)
	return out, err
}

func (c *Client) PublicTicketPDF(ctx context.Context, numero string) (Download, error) {
	return c.download(ctx, "public.ticket_pdf", "/publico/tickets/"+url.PathEscape(numero)+"/pdf", "")
}
