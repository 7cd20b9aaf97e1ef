package echoweb

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
)

var (
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpBusy     = echo.NewHTTPError(http.StatusConflict, "another operation is in progress, try again")
)

type errorView struct {
	Code    int
	Message string
}

// fieldErrors translates validation errors into messages keyed by field name.
func (s *Server) fieldErrors(err error) (map[string]string, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(s.deps.Translator)
		}
		return fldErrs, true
	case *core.ValidationError:
		return origErr.FieldMap(), true
	}
	return nil, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *Server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		origErr := errors.Cause(err)
		switch {
		case errors.Is(err, crud.ErrNotFound):
			code, message = http.StatusNotFound, "record not found"
		case errors.Is(err, crud.ErrBusy):
			code, message = errHttpBusy.Code, fmt.Sprint(errHttpBusy.Message)
		case errors.Is(err, crud.ErrUnknownKey), errors.Is(err, crud.ErrNoDialog), errors.Is(err, crud.ErrNoDelete):
			code, message = http.StatusBadRequest, origErr.Error()
		default:
			switch e := origErr.(type) {
			case *echo.HTTPError:
				if e.Internal != nil {
					if herr, ok := e.Internal.(*echo.HTTPError); ok {
						e = herr
					}
				}
				code = e.Code
				message = fmt.Sprint(e.Message)
			case validator.ValidationErrors, *core.ValidationError:
				code, message = http.StatusBadRequest, "invalid input"
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)

				args := []interface{}{errors.Wrap(err, message)}
				if acc, ok := contextAccount(ctx); ok {
					args = append(args, acc)
				}
				s.deps.Logger.Error(message, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = s.render(ctx, code, "error", http.StatusText(code), errorView{Code: code, Message: message})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
