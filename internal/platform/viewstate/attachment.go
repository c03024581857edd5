package viewstate

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

// Attachment streams a downloaded backend file to the portal user.
func Attachment(c echo.Context, att *apiclient.Attachment) error {
	ct := att.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	return c.Blob(http.StatusOK, ct, att.Data)
}
