package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"studentms/internal/auth"
	apperrors "studentms/internal/errors"
	"studentms/internal/logging"
	"studentms/internal/model"
)

// UserContextKey is where the authenticated *model.User is stored on the echo context.
const UserContextKey = "user"

// guardFailure marks errors from the guard that are not credential problems,
// such as a database outage while loading the user.
type guardFailure struct {
	err error
}

func (g *guardFailure) Error() string { return g.err.Error() }
func (g *guardFailure) Unwrap() error { return g.err }

// Authenticate extracts the bearer token and resolves it through guard.
// Missing or invalid credentials give 401 and inactive users 403.
func Authenticate(guard *auth.Guard) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  UserContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			user, err := guard.Authenticate(c.Request().Context(), token)
			if err != nil {
				var domainErr *apperrors.Error
				if errors.As(err, &domainErr) {
					return nil, err
				}
				return nil, &guardFailure{err: err}
			}
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var failure *guardFailure
			if errors.As(err, &failure) {
				logging.FromContext(c.Request().Context()).Error("authenticate request", "error", failure.err)
				return httpError(failure)
			}
			var domainErr *apperrors.Error
			if errors.As(err, &domainErr) {
				return httpError(domainErr)
			}
			// nothing usable in the Authorization header
			return httpError(auth.ErrNotAuthenticated)
		},
	})
}

// RequireRoles lets the request through only when the authenticated user holds one of roles.
// It must run after Authenticate.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	authorize := auth.Authorize(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := authorize(CurrentUser(c), nil); err != nil {
				return httpError(err)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(UserContextKey).(*model.User)
	return user
}

func httpError(err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}
