package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

// LoginPath is where anonymous visitors of login-only pages are sent.
const LoginPath = "/catalog/login"

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// userFromCookie resolves the session cookie to an active user.
func (m *Middleware) userFromCookie(c echo.Context) (*models.User, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	claims, err := m.authService.ValidateToken(cookie.Value)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid or expired token")
	}

	// Verify user still exists and is active
	user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, errcodes.Unauthorized("User not found or inactive")
	}
	return user, nil
}

func setUser(c echo.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("username", user.Username)
	c.Set("user", user)
}

// Authenticate extracts and validates the JWT from the cookie.
// If valid, it verifies the user is still active and adds user info to the context.
// If not authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.userFromCookie(c)
		if err != nil {
			return err
		}
		setUser(c, user)
		return next(c)
	}
}

// AuthenticateOptional extracts user info if available but doesn't require authentication.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, err := m.userFromCookie(c); err == nil {
			setUser(c, user)
		}
		return next(c)
	}
}

// RequireLogin is the HTML counterpart of Authenticate: anonymous visitors are
// redirected to the login page with the requested URL in `next`.
// Must be used after AuthenticateOptional.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("user").(*models.User); !ok {
			target := LoginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			return c.Redirect(http.StatusFound, target)
		}
		return next(c)
	}
}

// RequirePermission returns middleware that checks if the user has the required permission.
// Must be used after Authenticate or RequireLogin.
func (m *Middleware) RequirePermission(resource, operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*models.User)
			if !ok {
				return errcodes.Unauthorized("Authentication required")
			}

			if !user.HasPermission(resource, operation) {
				return errcodes.Forbidden("You don't have permission to " + operation + " " + resource)
			}

			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok
}
