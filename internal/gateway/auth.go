package gateway

import (
	"context"
	"net/http"

	"tesig/console/internal/models"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token   string      `json:"token"`
	Tipo    string      `json:"tipo"`
	Usuario models.User `json:"usuario"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var result LoginResult
	if err := c.do(ctx, "auth.login", http.MethodPost, "/auth/login", nil, "", creds, &result); err != nil {
		return LoginResult{}, err
	}
	if result.Token == "" {
		return LoginResult{}, rejected(http.StatusOK, "El servidor no devolvió un token de sesión.")
	}
	return result, nil
}

func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	var user models.User
	err := c.do(ctx, "auth.me", http.MethodGet, "/auth/me", nil, token, nil, &user)
	return user, err
}
