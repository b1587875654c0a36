// Package api serves the report pages, data endpoints and exports over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"reporter_service/internal/domain/model"
)

// ErrorResponse is the body of every failed data request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// NewServer returns an echo instance with middleware, error handling and the
// handler's routes.
func NewServer(h *Handler, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

// statusOf maps an error to its response status and whether retrying can help.
func statusOf(err error) (int, bool) {
	var he *echo.HTTPError
	var ne *model.NetworkError
	switch {
	case errors.As(err, &he):
		return he.Code, false
	case model.IsValidation(err):
		return http.StatusBadRequest, false
	case model.IsDataShape(err):
		return http.StatusBadGateway, true
	case errors.As(err, &ne):
		if ne.Timeout {
			return http.StatusGatewayTimeout, true
		}
		return http.StatusBadGateway, true
	}
	return http.StatusInternalServerError, false
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, retryable := statusOf(err)
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(he.Code)
			}
		}
		if status == http.StatusInternalServerError {
			logger.Error("internal error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
			msg = http.StatusText(status)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(status)
		} else {
			sendErr = c.JSON(status, ErrorResponse{Error: msg, Retryable: retryable})
		}
		if sendErr != nil {
			logger.Error("failed to send error response", zap.Error(sendErr))
		}
	}
}
