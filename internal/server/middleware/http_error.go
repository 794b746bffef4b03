package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const statusClientClosedRequest = 499

var httpStatusByCode = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.NotFound:           http.StatusNotFound,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.FailedPrecondition: http.StatusPreconditionFailed,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}

// ErrorHandler renders errors as ResponseError JSON. Status errors are
// mapped to the closest HTTP status.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := &ResponseError{
			Status:       http.StatusInternalServerError,
			Success:      false,
			Err:          err,
			ErrorMessage: http.StatusText(http.StatusInternalServerError),
		}

		var he *echo.HTTPError
		var re *ResponseError
		switch {
		case errors.As(err, &he):
			resp.Status = he.Code
			resp.ErrorMessage = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok {
				resp.ErrorMessage = msg
			}
		case errors.As(err, &re):
			resp = re
		case errors.Is(err, context.Canceled) && c.Request().Context().Err() != nil:
			resp.Status = statusClientClosedRequest
		default:
			if st, ok := status.FromError(err); ok {
				resp.ErrorCode = st.Code().String()
				resp.ErrorMessage = st.Message()
				if code, ok := httpStatusByCode[st.Code()]; ok {
					resp.Status = code
				}
			}
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Status)
		} else {
			err = c.JSON(resp.Status, resp)
		}
		if err != nil {
			log.Errorw("could not respond", "code", resp.Status, "error", err)
		}
	}
}
