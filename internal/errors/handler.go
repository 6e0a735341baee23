package errors

import (
	"log"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler is a custom echo.HTTPErrorHandler. API paths get JSON error
// payloads, everything else gets the rendered error page. Operational errors
// reach the client verbatim; unclassified errors are logged with a stack trace
// and reduced to a generic message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := normalize(err)
	if !httpErr.Operational {
		log.Printf("unexpected error: %v\n%s", err, debug.Stack())
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api") || c.Echo().Renderer == nil {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(httpErr.StatusCode)
			return
		}
		_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		return
	}

	_ = c.Render(httpErr.StatusCode, "error", map[string]interface{}{
		"Title":   "Something went wrong!",
		"Message": httpErr.Message,
	})
}

func normalize(err error) *HTTPError {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(echoErr.Code)
		if s, ok := echoErr.Message.(string); ok {
			msg = s
		}
		code := "BAD_REQUEST"
		if echoErr.Code == http.StatusUnauthorized {
			code = "UNAUTHENTICATED"
		} else if echoErr.Code == http.StatusNotFound {
			code = "NOT_FOUND"
		} else if echoErr.Code == http.StatusMethodNotAllowed {
			code = "METHOD_NOT_ALLOWED"
		}
		return NewHTTPError(echoErr.Code, msg, code)
	}

	return MapErrorToHTTP(err)
}
