package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/fieldsadmin/customfields"
	"github.com/gaborage/fieldsadmin/server"
	"github.com/gaborage/fieldsadmin/session"
)

type sessionHandler struct {
	sessions Sessions
	secure   bool
}

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes the caller's session. SessionID is also set as
// the session cookie; non-browser clients send it as a bearer token.
type SessionResponse struct {
	SessionID string                `json:"sessionId,omitempty"`
	Account   *customfields.Account `json:"account"`
	Admin     bool                  `json:"admin"`
}

type empty struct{}

func (h *sessionHandler) login(req loginRequest, ctx server.HandlerContext) (SessionResponse, server.IAPIError) {
	sess, err := h.sessions.Login(ctx.Context(), req.Token)
	if err != nil {
		if isAny(err, session.ErrInvalidToken) {
			return SessionResponse{}, server.NewUnauthorizedError("Invalid access token")
		}
		return SessionResponse{}, server.NewBadGatewayError("Could not validate the access token").
			WithDetails("error", err.Error())
	}
	h.setCookie(ctx.Echo, sess.ID)
	return started(sess), nil
}

func (h *sessionHandler) loginAdmin(req adminLoginRequest, ctx server.HandlerContext) (SessionResponse, server.IAPIError) {
	sess, err := h.sessions.LoginAsAdmin(ctx.Context(), req.Email, req.Password)
	if err != nil {
		if isAny(err, session.ErrInvalidCredentials) {
			return SessionResponse{}, server.NewUnauthorizedError("Invalid email or password")
		}
		return SessionResponse{}, server.NewInternalServerError("").WithDetails("error", err.Error())
	}
	h.setCookie(ctx.Echo, sess.ID)
	return started(sess), nil
}

func (h *sessionHandler) logout(_ empty, ctx server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	if err := h.sessions.Logout(ctx.Context(), SessionID(ctx.Echo)); err != nil {
		return server.NoContent(), server.NewInternalServerError("").WithDetails("error", err.Error())
	}
	h.clearCookie(ctx.Echo)
	return server.NoContent(), nil
}

// me re-validates the caller's token, the way the dashboard logs back in
// on page load.
func (h *sessionHandler) me(_ empty, ctx server.HandlerContext) (SessionResponse, server.IAPIError) {
	sess, err := h.sessions.Restore(ctx.Context(), SessionID(ctx.Echo))
	if err != nil {
		if isAny(err, session.ErrNotLoggedIn, session.ErrInvalidToken) {
			h.clearCookie(ctx.Echo)
			return SessionResponse{}, server.NewUnauthorizedError("Not logged in")
		}
		return SessionResponse{}, server.NewBadGatewayError("Could not validate the access token").
			WithDetails("error", err.Error())
	}
	return SessionResponse{Account: &sess.Account, Admin: sess.Admin}, nil
}

func started(sess *session.Session) SessionResponse {
	return SessionResponse{SessionID: sess.ID, Account: &sess.Account, Admin: sess.Admin}
}

func (h *sessionHandler) setCookie(c echo.Context, id string) {
	c.SetCookie(h.cookie(id, 0))
}

func (h *sessionHandler) clearCookie(c echo.Context) {
	c.SetCookie(h.cookie("", -1))
}

func (h *sessionHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
