// Package api registers the dashboard's JSON routes under /api.
//
// Callers identify themselves with the session id returned by a login,
// either as the SessionCookie cookie or as an "Authorization: Bearer <id>"
// header.
package api

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/fieldsadmin/company"
	"github.com/gaborage/fieldsadmin/customfields"
	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/server"
	"github.com/gaborage/fieldsadmin/session"
)

// SessionCookie carries the session id for browser callers
const SessionCookie = "fieldsadmin_session"

const sessionContextKey = "fieldsadmin.session"

// Sessions is the subset of session.Service the handlers use
type Sessions interface {
	Login(ctx context.Context, token string) (*session.Session, error)
	LoginAsAdmin(ctx context.Context, email, password string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Restore(ctx context.Context, id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
}

// Fields lists custom field definitions visible to a token
type Fields interface {
	List(ctx context.Context, token string) ([]customfields.Field, customfields.Source, error)
}

// Companies manages registered companies
type Companies interface {
	List(ctx context.Context) ([]company.Company, error)
	Get(ctx context.Context, id string) (*company.Company, error)
	Create(ctx context.Context, in company.CreateInput) (*company.Company, error)
	Update(ctx context.Context, id string, in company.UpdateInput) (*company.Company, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the services behind the routes.
//
// TokenDomains lists the hosts that may receive a session's API token from
// the HTTP tester; it defaults to the custom-fields API domain.
// SecureCookie marks the session cookie Secure.
type Deps struct {
	Sessions     Sessions
	Fields       Fields
	Companies    Companies
	Client       httpclient.Client
	Logger       logger.Logger
	TokenDomains []string
	SecureCookie bool
}

// Register adds every route to s.
//
//	POST   /api/session/login
//	POST   /api/session/admin
//	POST   /api/session/logout
//	GET    /api/session/me
//	GET    /api/custom-fields          logged in
//	POST   /api/http-tester            logged in
//	GET    /api/companies              admin
//	POST   /api/companies              admin
//	GET    /api/companies/:id          admin
//	PUT    /api/companies/:id          admin
//	DELETE /api/companies/:id          admin
func Register(s *server.Server, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	domains := deps.TokenDomains
	if len(domains) == 0 {
		domains = httpclient.DefaultProxy().Domains
	}
	hr := s.Registry()
	g := s.API()

	sh := &sessionHandler{sessions: deps.Sessions, secure: deps.SecureCookie}
	server.POST(hr, g, "/session/login", sh.login)
	server.POST(hr, g, "/session/admin", sh.loginAdmin)
	server.POST(hr, g, "/session/logout", sh.logout)
	server.GET(hr, g, "/session/me", sh.me)

	loggedIn := RequireSession(deps.Sessions)
	fh := &fieldsHandler{fields: deps.Fields}
	server.GET(hr, g, "/custom-fields", fh.list, loggedIn)

	th := &testerHandler{
		client:    deps.Client,
		log:       deps.Logger,
		tokenHost: httpclient.Proxy{Domains: domains},
	}
	server.POST(hr, g, "/http-tester", th.run, loggedIn)

	admin := RequireAdmin(deps.Sessions)
	ch := &companyHandler{companies: deps.Companies}
	companies := g.Group("/companies", admin)
	server.GET(hr, companies, "", ch.list)
	server.POST(hr, companies, "", ch.create)
	server.GET(hr, companies, "/:id", ch.get)
	server.PUT(hr, companies, "/:id", ch.update)
	server.DELETE(hr, companies, "/:id", ch.remove)
}

// SessionID returns the session id the caller presented, preferring a
// bearer token over the cookie. It is empty when there is none.
func SessionID(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if scheme, id, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(id)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// CurrentSession returns the session RequireSession or RequireAdmin stored
// on c, or nil.
func CurrentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}

// RequireSession rejects callers that do not present a live session
func RequireSession(sessions Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := sessions.Get(c.Request().Context(), SessionID(c))
			if err != nil {
				if errors.Is(err, session.ErrNotLoggedIn) {
					return server.NewUnauthorizedError("Login required")
				}
				return err
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers unless they present an admin session
func RequireAdmin(sessions Sessions) echo.MiddlewareFunc {
	requireSession := RequireSession(sessions)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return requireSession(func(c echo.Context) error {
			if !CurrentSession(c).Admin {
				return server.NewForbiddenError("Administrator access required")
			}
			return next(c)
		})
	}
}

var (
	_ Sessions  = (*session.Service)(nil)
	_ Fields    = (*customfields.Service)(nil)
	_ Companies = (*company.Service)(nil)
)

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
