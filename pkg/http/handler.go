package http

import "github.com/labstack/echo/v4"

// Handler defines HTTP route registration interface. mw applies to the
// handler's routes only.
type Handler interface {
	RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc)
}
