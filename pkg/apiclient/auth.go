package apiclient

import (
	"context"
	"net/http"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

// RegisteredUser is the backend's reply to a successful registration.
type RegisteredUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginResponse is the body of a successful login. Older backends reply
// with {"token": ...} instead of access_token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Token       string `json:"token"`
}

// BearerToken returns whichever token field the backend filled in.
func (r LoginResponse) BearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// HealthStatus is the body of GET /.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp LoginResponse
	err := c.do(ctx, call{
		method:       http.MethodPost,
		path:         "/auth/login",
		route:        "/auth/login",
		body:         creds,
		authEndpoint: true,
	}, &resp)
	if err != nil {
		return "", err
	}

	token := resp.BearerToken()
	if token == "" {
		return "", models.NewServerError(http.StatusOK, "login response carried no token")
	}
	return token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (RegisteredUser, error) {
	var user RegisteredUser
	err := c.do(ctx, call{
		method:       http.MethodPost,
		path:         "/auth/register",
		route:        "/auth/register",
		body:         creds,
		authEndpoint: true,
	}, &user)
	return user, err
}

// Health calls the backend's root health check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/",
		route:  "/",
	}, &status)
	return status, err
}
