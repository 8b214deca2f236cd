package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "studentms/internal/errors"
	"studentms/internal/logging"
	"studentms/internal/repository"
)

var (
	errInvalidBody = apperrors.BadRequest("INVALID_BODY", "invalid request body")
	errInvalidID   = apperrors.BadRequest("INVALID_ID", "invalid id")
	errInvalidPage = apperrors.BadRequest("INVALID_PAGINATION", "skip and limit must be non-negative integers")
)

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError turns err into an echo.HTTPError carrying an ErrorResponse.
// Unexpected errors are logged and reported as a bare 500.
func respondError(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	if he.StatusCode >= 500 {
		logging.FromContext(c.Request().Context()).Error("request failed", "error", err)
	}
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// bindAndValidate decodes the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// parseOptionalID reads a positive integer query parameter; absent means 0.
func parseOptionalID(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest("INVALID_QUERY", name+" must be a positive integer")
	}
	return uint(id), nil
}

func parsePage(c echo.Context) (repository.Page, error) {
	var page repository.Page
	if raw := c.QueryParam("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return page, errInvalidPage
		}
		page.Skip = skip
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return page, errInvalidPage
		}
		page.Limit = limit
	}
	return page, nil
}
