package viewstate

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

// Fail converts a backend call error into the portal response. Missing
// credentials send the user back to the entry point; everything else becomes
// an HTTP error carrying the user-facing guidance.
func Fail(c echo.Context, err error) error {
	switch apiclient.Classify(err) {
	case apiclient.KindAuthenticationMissing:
		return c.Redirect(http.StatusSeeOther, "/")
	case apiclient.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, apiclient.Guidance(err))
	case apiclient.KindServer:
		var se *apiclient.ServerError
		errors.As(err, &se)
		status := se.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return echo.NewHTTPError(status, apiclient.Guidance(err))
	case apiclient.KindNetwork:
		return echo.NewHTTPError(http.StatusBadGateway, apiclient.Guidance(err))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
