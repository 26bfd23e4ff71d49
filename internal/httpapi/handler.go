package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/healthcheck"
	"github.com/wenchangshou/devicectl/internal/node"
)

// StatusSource is the subset of controller.Facade the status routes read.
type StatusSource interface {
	StatusAllChannels() []channel.Status
	StateAllNodes() []node.Snapshot
}

type handler struct {
	facade  StatusSource
	checker healthcheck.Checker // optional; nil disables /health
}

func (h *handler) register(e *echo.Echo) {
	e.GET("/ping", h.ping)
	e.GET("/health", h.health)
	e.GET("/status/channels", h.statusChannels)
	e.GET("/status/nodes", h.statusNodes)
}

func (h *handler) ping(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *handler) health(c echo.Context) error {
	if h.checker == nil {
		return c.JSON(http.StatusOK, []healthcheck.CheckResult{})
	}
	return c.JSON(http.StatusOK, h.checker.ListChecks(c.Request().Context()))
}

func (h *handler) statusChannels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.facade.StatusAllChannels())
}

func (h *handler) statusNodes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.facade.StateAllNodes())
}
