package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/observability"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the global chain: request id, timeout, error
// rendering and request logging, in that order.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// errorHandlingMiddleware renders any error or panic from later handlers as
// {"error": {"code", "message", "details"}} with the error's fixed status.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			err = renderError(c, logger, metrics, apperrors.ToDomainError(err))
		}()
		return c.Next()
	}
}

func renderError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, de *apperrors.DomainError) error {
	metrics.RecordError(utils.CopyString(c.Route().Path), utils.CopyString(c.Method()), de.Code)
	if de.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", utils.CopyString(c.GetRespHeader(fiber.HeaderXRequestID))),
			zap.String("path", utils.CopyString(c.Path())),
			zap.String("code", de.Code),
			zap.Error(de))
	}
	return c.Status(de.HTTPStatus).JSON(fiber.Map{
		"error": errorBody{Code: de.Code, Message: de.Message, Details: de.Details},
	})
}
