package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reco-api/pkg/logger"
)

const localError = "handler_error"

// RequestObserver recibe la duración de cada petición (lo implementa el colector Prometheus).
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger registra cada petición con zerolog y la reporta a obs (puede ser nil).
// La ruta se toma del patrón registrado (/api/inventory/:id) para no multiplicar series.
func RequestLogger(log *logger.Logger, obs RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler de Fiber escriba la respuesta antes de medir
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		if obs != nil {
			obs.ObserveRequest(c.Method(), route, status, elapsed)
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
			if herr, ok := c.Locals(localError).(error); ok {
				ev = ev.Err(herr)
			} else if err != nil {
				ev = ev.Err(err)
			}
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("route", route).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("request_id", requestID(c)).
			Str("user_id", GetUserID(c)).
			Msg("petición HTTP")
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
